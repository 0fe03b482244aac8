package apptest

import (
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// Ids de catálogo sembrados por SeedCatalogs.
const (
	StateNew          = "ls-nuevo"
	StateContacted    = "ls-contactado"
	StateRecontacting = "ls-recontactando"
	StateInfoSent     = "ls-info"
	StateRescheduled  = "ls-reagendado"
	StateLost         = "ls-perdido"
	StateWon          = "ls-ganado"
	StateExpired      = "ls-vencido"

	QuotePending  = "qs-pendiente"
	QuoteAccepted = "qs-aceptado"
	QuoteRejected = "qs-rechazado"
	QuoteExpired  = "qs-vencido"
)

// SeedCatalogs carga los catálogos de estados de lead y de presupuesto.
func (s *Store) SeedCatalogs() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LeadStates = []entity.LeadState{
		{ID: StateNew, Name: entity.LeadStateNew, Kind: entity.LeadStateKindInitial},
		{ID: StateContacted, Name: "Contactado", Kind: entity.LeadStateKindInProgress},
		{ID: StateRecontacting, Name: "Recontactando", Kind: entity.LeadStateKindRecontact},
		{ID: StateInfoSent, Name: "Info Enviada", Kind: entity.LeadStateKindInProgress},
		{ID: StateRescheduled, Name: "Reagendado", Kind: entity.LeadStateKindInProgress},
		{ID: StateLost, Name: "Perdido", Kind: entity.LeadStateKindFinalNegative},
		{ID: StateWon, Name: "Ganado", Kind: entity.LeadStateKindFinalPositive},
		{ID: StateExpired, Name: entity.LeadStateExpired, Kind: entity.LeadStateKindExpired},
	}
	s.QuoteStates = []entity.QuoteState{
		{ID: QuotePending, Name: entity.QuoteStatePending},
		{ID: QuoteAccepted, Name: entity.QuoteStateAccepted},
		{ID: QuoteRejected, Name: entity.QuoteStateRejected},
		{ID: QuoteExpired, Name: entity.QuoteStateExpired},
	}
	return s
}

// AddLead inserta un lead activo, no cliente, en el estado y prefijo dados.
func (s *Store) AddLead(id, prefixID, stateID string, createdAt time.Time) *entity.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &entity.Lead{ID: id, Name: "Lead " + id, PrefixID: prefixID, StateID: stateID, IsActive: true, CreatedAt: createdAt}
	s.Leads[id] = l
	return l
}

// Lead copia del lead guardado (nil si no existe).
func (s *Store) Lead(id string) *entity.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.Leads[id]
	if !ok {
		return nil
	}
	cp := *l
	return &cp
}

// AddRep asigna un comercial al prefijo.
func (s *Store) AddRep(prefixID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reps[prefixID] = &entity.SalesRep{UserID: userID, Name: "Comercial " + userID, PrefixID: prefixID}
}

// FixedClock reloj fijo para los servicios.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
