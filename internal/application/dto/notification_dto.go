package dto

import "time"

// ScheduleReminderRequest body para POST /api/notifications/reminders.
// UserID vacío = el propio usuario autenticado.
type ScheduleReminderRequest struct {
	UserID     string    `json:"user_id,omitempty"`
	EntityType string    `json:"entity_type" validate:"required,oneof=lead presupuesto seguimiento"`
	EntityID   string    `json:"entity_id" validate:"required"`
	Type       string    `json:"type" validate:"required,max=60"`
	WhenAt     time.Time `json:"when_at" validate:"required"`
	Title      string    `json:"title" validate:"max=200"`
	Message    string    `json:"message" validate:"max=2000"`
}

// CancelNotificationsRequest body para POST /api/notifications/cancel.
type CancelNotificationsRequest struct {
	EntityType string   `json:"entity_type" validate:"required,oneof=lead presupuesto seguimiento"`
	EntityID   string   `json:"entity_id" validate:"required"`
	UserID     string   `json:"user_id,omitempty"`
	Types      []string `json:"types,omitempty"`
}

// CancelNotificationsResponse filas canceladas.
type CancelNotificationsResponse struct {
	Cancelled int64 `json:"cancelled"`
}

// NotificationResponse notificación programada.
type NotificationResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Priority    string    `json:"priority"`
}

// ScheduledCountResponse respuesta de GET /api/notifications/scheduled/count.
type ScheduledCountResponse struct {
	FollowUps        int64 `json:"follow_ups"`
	CommentReminders int64 `json:"comment_reminders"`
	Total            int64 `json:"total"`
}
