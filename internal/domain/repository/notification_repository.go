package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// CancelFilter selecciona notificaciones pendientes a cancelar.
// UserID vacío = cualquier usuario; Types vacío = cualquier tipo.
type CancelFilter struct {
	UserID     string
	EntityType string
	EntityID   string
	Types      []string
}

// Matches indica si la notificación cae dentro del filtro (sin mirar si está pendiente).
func (f CancelFilter) Matches(n *entity.Notification) bool {
	if n.EntityType != f.EntityType || n.EntityID != f.EntityID {
		return false
	}
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == n.Type {
			return true
		}
	}
	return false
}

// ScheduledCountsResult conteo de avisos programados visibles para un usuario.
type ScheduledCountsResult struct {
	FollowUps        int64
	CommentReminders int64
}

// NotificationRepository puerto de persistencia de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// CancelPending marca deleted_at en las filas no leídas, no eliminadas y con fecha posterior a now.
	CancelPending(ctx context.Context, filter CancelFilter, now time.Time) (int64, error)
	// ScheduledCounts cuenta seguimientos abiertos y recordatorios de comentarios futuros,
	// unidos a leads y restringidos por visibility.
	ScheduledCounts(ctx context.Context, visibility Visibility, now time.Time) (ScheduledCountsResult, error)
}
