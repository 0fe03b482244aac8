package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo notificaciones sobre PostgreSQL (pool o tx).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta una notificación.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, entity_type, entity_id, type, title, message,
			scheduled_at, priority, read_at, deleted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.UserID, n.EntityType, n.EntityID, n.Type, n.Title, n.Message,
		n.ScheduledAt, n.Priority, n.ReadAt, n.DeletedAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CancelPending marca deleted_at en las pendientes que coinciden con el filtro.
// user_id y type solo filtran cuando vienen informados.
func (r *NotificationRepo) CancelPending(ctx context.Context, f repository.CancelFilter, now time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET deleted_at = $1
		WHERE entity_type = $2
		  AND entity_id = $3
		  AND ($4 = '' OR user_id = $4)
		  AND (cardinality($5::text[]) = 0 OR type = ANY($5::text[]))
		  AND read_at IS NULL
		  AND deleted_at IS NULL
		  AND scheduled_at > $1`
	tag, err := r.q.Exec(ctx, query, now, f.EntityType, f.EntityID, f.UserID, emptyIfNil(f.Types))
	if err != nil {
		return 0, fmt.Errorf("cancel notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ScheduledCounts seguimientos abiertos y recordatorios de comentarios futuros sobre
// leads visibles para la visibilidad dada.
func (r *NotificationRepo) ScheduledCounts(ctx context.Context, v repository.Visibility, now time.Time) (repository.ScheduledCountsResult, error) {
	var res repository.ScheduledCountsResult
	prefixes := emptyIfNil(v.PrefixIDs)

	followUps := `
		SELECT COUNT(*)
		FROM lost_lead_followups f
		JOIN leads l ON l.id = f.lead_id
		WHERE f.completed_at IS NULL
		  AND f.deleted_at IS NULL
		  AND f.scheduled_at > $1
		  AND ($2 OR l.prefix_id = ANY($3::text[]))`
	if err := r.q.QueryRow(ctx, followUps, now, v.AllAccounts, prefixes).Scan(&res.FollowUps); err != nil {
		return res, fmt.Errorf("count follow-ups: %w", err)
	}

	reminders := `
		SELECT COUNT(*)
		FROM lead_comments c
		JOIN leads l ON l.id = c.lead_id
		WHERE c.reminder_at IS NOT NULL
		  AND c.reminder_at > $1
		  AND ($2 OR l.prefix_id = ANY($3::text[]))`
	if err := r.q.QueryRow(ctx, reminders, now, v.AllAccounts, prefixes).Scan(&res.CommentReminders); err != nil {
		return res, fmt.Errorf("count comment reminders: %w", err)
	}
	return res, nil
}
