package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var _ repository.PromotionRepository = (*PromotionRepo)(nil)

// PromotionRepo promociones y sus productos.
type PromotionRepo struct {
	q Querier
}

// NewPromotionRepository construye el adaptador.
func NewPromotionRepository(q Querier) *PromotionRepo {
	return &PromotionRepo{q: q}
}

// GetByID promoción con sus productos, activa o no.
func (r *PromotionRepo) GetByID(ctx context.Context, id string) (*entity.Promotion, error) {
	promos, err := r.load(ctx, `SELECT id, name, starts_at, ends_at, active, created_at FROM promotions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(promos) == 0 {
		return nil, domain.ErrNotFound
	}
	return promos[0], nil
}

// ListActive promociones activas cuya ventana contiene at.
func (r *PromotionRepo) ListActive(ctx context.Context, at time.Time) ([]*entity.Promotion, error) {
	query := `
		SELECT id, name, starts_at, ends_at, active, created_at
		FROM promotions
		WHERE active = true AND starts_at <= $1 AND ends_at >= $1
		ORDER BY created_at DESC, id DESC`
	return r.load(ctx, query, at)
}

func (r *PromotionRepo) load(ctx context.Context, query string, args ...any) ([]*entity.Promotion, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	var promos []*entity.Promotion
	byID := map[string]*entity.Promotion{}
	for rows.Next() {
		var p entity.Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.StartsAt, &p.EndsAt, &p.Active, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, &p)
		byID[p.ID] = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	if len(promos) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(promos))
	for _, p := range promos {
		ids = append(ids, p.ID)
	}
	productRows, err := r.q.Query(ctx, `
		SELECT promotion_id, product_id, kind, bonification, min_quantity
		FROM promotion_products
		WHERE promotion_id = ANY($1)
		ORDER BY promotion_id, product_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list promotion products: %w", err)
	}
	defer productRows.Close()
	for productRows.Next() {
		var promotionID string
		var pp entity.PromotionProduct
		if err := productRows.Scan(&promotionID, &pp.ProductID, &pp.Kind, &pp.Bonification, &pp.MinQuantity); err != nil {
			return nil, fmt.Errorf("scan promotion product: %w", err)
		}
		if p, ok := byID[promotionID]; ok {
			p.Products = append(p.Products, pp)
		}
	}
	return promos, productRows.Err()
}
