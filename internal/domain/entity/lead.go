package entity

import "time"

// Tipos (kinds) de estado de lead. Los nombres concretos viven en la tabla lead_states.
const (
	LeadStateKindInitial       = "inicial"
	LeadStateKindInProgress    = "en_curso"
	LeadStateKindRecontact     = "recontacto"
	LeadStateKindFinalPositive = "final_positivo"
	LeadStateKindFinalNegative = "final_negativo"
	LeadStateKindExpired       = "vencido"
)

// Nombres de estado que el sistema necesita resolver por nombre.
const (
	LeadStateNew     = "Nuevo"
	LeadStateExpired = "Vencido"
)

// LeadState fila del catálogo de estados de lead.
type LeadState struct {
	ID   string
	Name string
	Kind string
}

// Lead cliente potencial dentro del embudo comercial.
// PrefixID es el territorio ("prefijo") que determina el comercial responsable.
type Lead struct {
	ID         string
	Name       string
	PrefixID   string
	StateID    string
	IsClient   bool
	IsActive   bool
	CreatedAt  time.Time
	ModifiedAt *time.Time
}

// LastActivity devuelve la última modificación o, si nunca se modificó, la creación.
func (l *Lead) LastActivity() time.Time {
	if l.ModifiedAt != nil {
		return *l.ModifiedAt
	}
	return l.CreatedAt
}

// LeadStateChange registro de auditoría de una transición de estado.
type LeadStateChange struct {
	ID              string
	LeadID          string
	PreviousStateID string
	NewStateID      string
	Reason          string
	ActorID         string
	CreatedAt       time.Time
}

// LostLeadFollowUp seguimiento programado sobre un lead perdido.
type LostLeadFollowUp struct {
	ID          string
	LeadID      string
	UserID      string
	ScheduledAt time.Time
	CompletedAt *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
}
