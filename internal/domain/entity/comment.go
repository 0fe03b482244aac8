package entity

import "time"

// Comment entrada inmutable del historial de interacciones de un lead.
// Puede disparar una transición de estado y/o un recordatorio (ReminderAt).
type Comment struct {
	ID          string
	LeadID      string
	CommentType string
	Text        string
	ActorID     string
	ReminderAt  *time.Time
	CreatedAt   time.Time
}
