package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo borradores quote_drafts. El payload se guarda como JSONB.
type DraftRepo struct {
	q Querier
}

// NewDraftRepository construye el adaptador.
func NewDraftRepository(q Querier) *DraftRepo {
	return &DraftRepo{q: q}
}

// Create inserta un borrador.
func (r *DraftRepo) Create(ctx context.Context, d *entity.QuoteDraft) error {
	query := `
		INSERT INTO quote_drafts (token, actor_id, lead_id, step, payload, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, d.Token, d.ActorID, d.LeadID, d.Step, payloadOrEmpty(d.Payload), d.ExpiresAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

// Get borrador por token (vencido o no: el caso de uso decide).
func (r *DraftRepo) Get(ctx context.Context, token string) (*entity.QuoteDraft, error) {
	query := `
		SELECT token, actor_id, lead_id, step, payload, expires_at, created_at, updated_at
		FROM quote_drafts WHERE token = $1`
	var d entity.QuoteDraft
	err := r.q.QueryRow(ctx, query, token).Scan(&d.Token, &d.ActorID, &d.LeadID, &d.Step, &d.Payload, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get draft")
	}
	return &d, nil
}

// Update guarda paso, payload y vigencia.
func (r *DraftRepo) Update(ctx context.Context, d *entity.QuoteDraft) error {
	query := `
		UPDATE quote_drafts SET step = $2, payload = $3, expires_at = $4, updated_at = $5
		WHERE token = $1`
	tag, err := r.q.Exec(ctx, query, d.Token, d.Step, payloadOrEmpty(d.Payload), d.ExpiresAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el borrador (idempotente).
func (r *DraftRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM quote_drafts WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// DeleteExpired elimina los borradores con expires_at <= now.
func (r *DraftRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM quote_drafts WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func payloadOrEmpty(p []byte) []byte {
	if len(p) == 0 {
		return []byte("{}")
	}
	return p
}
