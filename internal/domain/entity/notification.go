package entity

import "time"

// Tipos de entidad a los que se asocia una notificación.
const (
	EntityLead     = "lead"
	EntityQuote    = "presupuesto"
	EntityFollowUp = "seguimiento"
)

// Tipos de notificación.
const (
	NotificationCommentReminder = "recordatorio_comentario"
	NotificationLostFollowUp    = "seguimiento_perdido"
	NotificationQuoteExpiring   = "presupuesto_por_vencer"
	NotificationQuoteCreated    = "presupuesto_creado"
	NotificationQuoteExpired    = "presupuesto_vencido"
	NotificationLeadExpired     = "lead_vencido"
)

// Prioridades.
const (
	PriorityUrgent = "urgente"
	PriorityHigh   = "alta"
	PriorityNormal = "normal"
)

// Notification aviso programado para un usuario. Nunca se borra físicamente:
// DeletedAt marca las canceladas o reemplazadas.
type Notification struct {
	ID          string
	UserID      string
	EntityType  string
	EntityID    string
	Type        string
	Title       string
	Message     string
	ScheduledAt time.Time
	Priority    string
	ReadAt      *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
}

// IsPending indica si la notificación cuenta como activa en now:
// no leída, no eliminada y con fecha futura.
func (n *Notification) IsPending(now time.Time) bool {
	return n.ReadAt == nil && n.DeletedAt == nil && n.ScheduledAt.After(now)
}
