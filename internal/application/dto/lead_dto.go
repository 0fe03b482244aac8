package dto

import "time"

// ApplyTransitionRequest entrada de la máquina de estados.
type ApplyTransitionRequest struct {
	LeadID      string `validate:"required"`
	CommentType string `validate:"required"`
	ActorID     string `validate:"required"`
}

// CreateCommentRequest body para POST /api/leads/:id/comments.
type CreateCommentRequest struct {
	CommentType string     `json:"comment_type" validate:"required,max=120"`
	Text        string     `json:"text" validate:"required,max=4000"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
}

// CommentResponse comentario registrado y efecto sobre el estado del lead.
type CommentResponse struct {
	ID           string     `json:"id"`
	LeadID       string     `json:"lead_id"`
	CommentType  string     `json:"comment_type"`
	Text         string     `json:"text"`
	ReminderAt   *time.Time `json:"reminder_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Transitioned bool       `json:"transitioned"`
	NewState     string     `json:"new_state,omitempty"`
}

// CreateFollowUpRequest body para POST /api/leads/:id/followups.
type CreateFollowUpRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// FollowUpResponse seguimiento creado.
type FollowUpResponse struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	UserID      string    `json:"user_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
