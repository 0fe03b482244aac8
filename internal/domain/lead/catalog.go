package lead

import (
	"fmt"

	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/textnorm"
)

// StateCatalog índice en memoria de lead_states. Se resuelve por nombre o kind,
// nunca por id numérico fijo.
type StateCatalog struct {
	byID   map[string]entity.LeadState
	byName map[string]entity.LeadState
	byKind map[string][]string
}

// NewStateCatalog construye el catálogo a partir de las filas de la tabla.
func NewStateCatalog(states []entity.LeadState) *StateCatalog {
	c := &StateCatalog{
		byID:   make(map[string]entity.LeadState, len(states)),
		byName: make(map[string]entity.LeadState, len(states)),
		byKind: make(map[string][]string),
	}
	for _, s := range states {
		c.byID[s.ID] = s
		c.byName[textnorm.Key(s.Name)] = s
		c.byKind[s.Kind] = append(c.byKind[s.Kind], s.ID)
	}
	return c
}

// ByName busca un estado por nombre (normalizado).
func (c *StateCatalog) ByName(name string) (entity.LeadState, error) {
	s, ok := c.byName[textnorm.Key(name)]
	if !ok {
		return entity.LeadState{}, fmt.Errorf("%w: %q", domain.ErrStateNotConfigured, name)
	}
	return s, nil
}

// ByID busca un estado por id.
func (c *StateCatalog) ByID(id string) (entity.LeadState, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// IDsByKind ids de todos los estados de los kinds indicados.
func (c *StateCatalog) IDsByKind(kinds ...string) []string {
	var ids []string
	for _, k := range kinds {
		ids = append(ids, c.byKind[k]...)
	}
	return ids
}

// Len cantidad de estados cargados.
func (c *StateCatalog) Len() int { return len(c.byID) }
