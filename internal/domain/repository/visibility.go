package repository

import "github.com/jhoicas/Comercial-api/internal/domain/entity"

// Visibility filtro territorial explícito que se aplica a las consultas sobre leads.
type Visibility struct {
	AllAccounts bool
	PrefixIDs   []string
}

// VisibilityFor construye el filtro a partir de los permisos del actor.
func VisibilityFor(actor entity.Actor) Visibility {
	if actor.SeeAllAccounts || actor.Role == entity.RoleAdmin {
		return Visibility{AllAccounts: true}
	}
	ids := make([]string, len(actor.PrefixIDs))
	copy(ids, actor.PrefixIDs)
	return Visibility{PrefixIDs: ids}
}

// Allows indica si un lead del prefijo dado pasa el filtro.
func (v Visibility) Allows(prefixID string) bool {
	if v.AllAccounts {
		return true
	}
	for _, p := range v.PrefixIDs {
		if p == prefixID {
			return true
		}
	}
	return false
}
