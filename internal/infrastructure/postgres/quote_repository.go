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
	_ repository.QuoteRepository      = (*QuoteRepo)(nil)
	_ repository.QuoteStateRepository = (*QuoteStateRepo)(nil)
)

const quoteColumns = `id, lead_id, owner_id, promotion_id, state_id, valid_until,
	subtotal_rate, subtotal_subscription, subtotal_extras, total, created_at, updated_at, deleted_at`

// QuoteRepo presupuestos y líneas sobre PostgreSQL (pool o tx).
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var q entity.Quote
	var promotionID *string
	err := row.Scan(&q.ID, &q.LeadID, &q.OwnerID, &promotionID, &q.StateID, &q.ValidUntil,
		&q.SubtotalRate, &q.SubtotalSubscription, &q.SubtotalExtras, &q.Total,
		&q.CreatedAt, &q.UpdatedAt, &q.DeletedAt)
	if err != nil {
		return nil, err
	}
	q.PromotionID = derefString(promotionID)
	return &q, nil
}

// Create inserta cabecera y líneas. Llamar dentro de una tx para que sea atómico.
func (r *QuoteRepo) Create(ctx context.Context, q *entity.Quote, lines []entity.QuoteLine) error {
	query := `
		INSERT INTO quotes (id, lead_id, owner_id, promotion_id, state_id, valid_until,
			subtotal_rate, subtotal_subscription, subtotal_extras, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		q.ID, q.LeadID, q.OwnerID, nullString(q.PromotionID), q.StateID, q.ValidUntil,
		q.SubtotalRate, q.SubtotalSubscription, q.SubtotalExtras, q.Total, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return r.insertLines(ctx, q.ID, lines)
}

func (r *QuoteRepo) insertLines(ctx context.Context, quoteID string, lines []entity.QuoteLine) error {
	query := `
		INSERT INTO quote_lines (id, quote_id, kind, position, product_id, unit_value, quantity,
			bonification_percent, pack_promotion_type, applies_to_all_units, min_quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, l := range lines {
		_, err := r.q.Exec(ctx, query,
			l.ID, quoteID, l.Kind, l.Position, l.ProductID, l.UnitValue, l.Quantity,
			l.BonificationPercent, nullString(l.PackPromotionType), l.AppliesToAllUnits, l.MinQuantity, l.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert quote line: %w", err)
		}
	}
	return nil
}

// GetByID presupuesto no cancelado.
func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	q, err := scanQuote(r.q.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, notFound(err, "get quote")
	}
	return q, nil
}

// Lines líneas del presupuesto ordenadas por posición.
func (r *QuoteRepo) Lines(ctx context.Context, quoteID string) ([]entity.QuoteLine, error) {
	query := `
		SELECT id, quote_id, kind, position, product_id, unit_value, quantity, bonification_percent,
			pack_promotion_type, applies_to_all_units, min_quantity, subtotal
		FROM quote_lines WHERE quote_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list quote lines: %w", err)
	}
	defer rows.Close()

	var out []entity.QuoteLine
	for rows.Next() {
		var l entity.QuoteLine
		var pack *string
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.Kind, &l.Position, &l.ProductID, &l.UnitValue, &l.Quantity,
			&l.BonificationPercent, &pack, &l.AppliesToAllUnits, &l.MinQuantity, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan quote line: %w", err)
		}
		l.PackPromotionType = derefString(pack)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update reemplaza la cabecera y todas las líneas.
func (r *QuoteRepo) Update(ctx context.Context, q *entity.Quote, lines []entity.QuoteLine) error {
	query := `
		UPDATE quotes
		SET promotion_id = $2, valid_until = $3, subtotal_rate = $4, subtotal_subscription = $5,
			subtotal_extras = $6, total = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query,
		q.ID, nullString(q.PromotionID), q.ValidUntil, q.SubtotalRate, q.SubtotalSubscription,
		q.SubtotalExtras, q.Total, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM quote_lines WHERE quote_id = $1`, q.ID); err != nil {
		return fmt.Errorf("delete quote lines: %w", err)
	}
	return r.insertLines(ctx, q.ID, lines)
}

// SoftDelete cancela el presupuesto.
func (r *QuoteRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE quotes SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("soft delete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateState cambia el estado del presupuesto.
func (r *QuoteRepo) UpdateState(ctx context.Context, id, stateID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE quotes SET state_id = $2, updated_at = $3 WHERE id = $1`, id, stateID, at)
	if err != nil {
		return fmt.Errorf("update quote state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindValidUntilBetween presupuestos vigentes con valid_until en [from, to).
func (r *QuoteRepo) FindValidUntilBetween(ctx context.Context, from, to time.Time, excludedStateIDs []string) ([]*entity.Quote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE deleted_at IS NULL AND valid_until >= $1 AND valid_until < $2 AND state_id <> ALL($3)
		ORDER BY id`
	return r.list(ctx, "find expiring quotes", query, from, to, emptyIfNil(excludedStateIDs))
}

// FindExpired presupuestos vigentes con valid_until anterior a before.
func (r *QuoteRepo) FindExpired(ctx context.Context, before time.Time, excludedStateIDs []string) ([]*entity.Quote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE deleted_at IS NULL AND valid_until < $1 AND state_id <> ALL($2)
		ORDER BY id`
	return r.list(ctx, "find expired quotes", query, before, emptyIfNil(excludedStateIDs))
}

func (r *QuoteRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Quote, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, op)
	}
	defer rows.Close()

	var out []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, wrap(err, "scan quote")
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuoteStateRepo catálogo quote_states.
type QuoteStateRepo struct {
	q Querier
}

// NewQuoteStateRepository construye el adaptador.
func NewQuoteStateRepository(q Querier) *QuoteStateRepo {
	return &QuoteStateRepo{q: q}
}

// List devuelve el catálogo completo.
func (r *QuoteStateRepo) List(ctx context.Context) (entity.QuoteStates, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM quote_states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list quote states: %w", err)
	}
	defer rows.Close()

	var out entity.QuoteStates
	for rows.Next() {
		var s entity.QuoteState
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan quote state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
