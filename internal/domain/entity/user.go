package entity

// Roles válidos.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleComercial  = "comercial"
)

// Actor usuario que ejecuta una operación, con su visibilidad por territorio.
type Actor struct {
	UserID         string
	Role           string
	PrefixIDs      []string
	SeeAllAccounts bool // privilegio "ver todas las cuentas"
}

// CanSee indica si el actor puede ver cuentas del prefijo dado.
func (a Actor) CanSee(prefixID string) bool {
	if a.SeeAllAccounts || a.Role == RoleAdmin {
		return true
	}
	for _, p := range a.PrefixIDs {
		if p == prefixID {
			return true
		}
	}
	return false
}

// SalesRep comercial responsable de un prefijo.
type SalesRep struct {
	UserID   string
	Name     string
	PrefixID string
}
