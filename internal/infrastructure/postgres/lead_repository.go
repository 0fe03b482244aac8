package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var (
	_ repository.LeadRepository        = (*LeadRepo)(nil)
	_ repository.LeadStateRepository   = (*LeadStateRepo)(nil)
	_ repository.LeadHistoryRepository = (*LeadHistoryRepo)(nil)
	_ repository.CommentRepository     = (*CommentRepo)(nil)
	_ repository.FollowUpRepository    = (*FollowUpRepo)(nil)
)

const leadColumns = `id, name, prefix_id, state_id, is_client, is_active, created_at, modified_at`

// LeadRepo leads sobre PostgreSQL (pool o tx).
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var l entity.Lead
	if err := row.Scan(&l.ID, &l.Name, &l.PrefixID, &l.StateID, &l.IsClient, &l.IsActive, &l.CreatedAt, &l.ModifiedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByID obtiene un lead por ID.
func (r *LeadRepo) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get lead")
	}
	return l, nil
}

// GetForUpdate obtiene el lead y bloquea la fila (SELECT FOR UPDATE). Usar dentro de una tx.
func (r *LeadRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "get lead for update")
	}
	return l, nil
}

// UpdateState cambia el estado y fija modified_at.
func (r *LeadRepo) UpdateState(ctx context.Context, id, stateID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE leads SET state_id = $2, modified_at = $3 WHERE id = $1`, id, stateID, at)
	if err != nil {
		return fmt.Errorf("update lead state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindExpirable leads activos, no clientes, fuera de los estados excluidos y sin actividad desde cutoff.
func (r *LeadRepo) FindExpirable(ctx context.Context, excludedStateIDs []string, cutoff time.Time) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE is_client = false
		  AND is_active = true
		  AND state_id <> ALL($1)
		  AND COALESCE(modified_at, created_at) <= $2
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, emptyIfNil(excludedStateIDs), cutoff)
	if err != nil {
		return nil, fmt.Errorf("find expirable leads: %w", err)
	}
	defer rows.Close()

	var out []*entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LeadStateRepo catálogo lead_states.
type LeadStateRepo struct {
	q Querier
}

// NewLeadStateRepository construye el adaptador.
func NewLeadStateRepository(q Querier) *LeadStateRepo {
	return &LeadStateRepo{q: q}
}

// List devuelve el catálogo completo.
func (r *LeadStateRepo) List(ctx context.Context) ([]entity.LeadState, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, kind FROM lead_states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list lead states: %w", err)
	}
	defer rows.Close()

	var out []entity.LeadState
	for rows.Next() {
		var s entity.LeadState
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind); err != nil {
			return nil, fmt.Errorf("scan lead state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LeadHistoryRepo auditoría lead_state_history.
type LeadHistoryRepo struct {
	q Querier
}

// NewLeadHistoryRepository construye el adaptador.
func NewLeadHistoryRepository(q Querier) *LeadHistoryRepo {
	return &LeadHistoryRepo{q: q}
}

// Create inserta el registro de auditoría.
func (r *LeadHistoryRepo) Create(ctx context.Context, c *entity.LeadStateChange) error {
	query := `
		INSERT INTO lead_state_history (id, lead_id, previous_state_id, new_state_id, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, c.ID, c.LeadID, c.PreviousStateID, c.NewStateID, c.Reason, nullString(c.ActorID), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead history: %w", err)
	}
	return nil
}

// CommentRepo comentarios lead_comments.
type CommentRepo struct {
	q Querier
}

// NewCommentRepository construye el adaptador.
func NewCommentRepository(q Querier) *CommentRepo {
	return &CommentRepo{q: q}
}

// Create inserta el comentario.
func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	query := `
		INSERT INTO lead_comments (id, lead_id, comment_type, text, actor_id, reminder_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, c.ID, c.LeadID, c.CommentType, c.Text, c.ActorID, c.ReminderAt, c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FollowUpRepo seguimientos lost_lead_followups.
type FollowUpRepo struct {
	q Querier
}

// NewFollowUpRepository construye el adaptador.
func NewFollowUpRepository(q Querier) *FollowUpRepo {
	return &FollowUpRepo{q: q}
}

// Create inserta el seguimiento.
func (r *FollowUpRepo) Create(ctx context.Context, f *entity.LostLeadFollowUp) error {
	query := `
		INSERT INTO lost_lead_followups (id, lead_id, user_id, scheduled_at, completed_at, deleted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, f.ID, f.LeadID, f.UserID, f.ScheduledAt, f.CompletedAt, f.DeletedAt, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert follow-up: %w", err)
	}
	return nil
}
