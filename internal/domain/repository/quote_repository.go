package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// QuoteRepository puerto de persistencia de presupuestos y sus líneas.
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote, lines []entity.QuoteLine) error
	// GetByID ignora los cancelados (deleted_at); domain.ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	Lines(ctx context.Context, quoteID string) ([]entity.QuoteLine, error)
	// Update reemplaza cabecera y líneas completas.
	Update(ctx context.Context, quote *entity.Quote, lines []entity.QuoteLine) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	UpdateState(ctx context.Context, id, stateID string, at time.Time) error
	// FindValidUntilBetween presupuestos vigentes cuyo valid_until cae en [from, to) y fuera de excludedStateIDs.
	FindValidUntilBetween(ctx context.Context, from, to time.Time, excludedStateIDs []string) ([]*entity.Quote, error)
	// FindExpired presupuestos con valid_until anterior a before y fuera de excludedStateIDs.
	FindExpired(ctx context.Context, before time.Time, excludedStateIDs []string) ([]*entity.Quote, error)
}

// QuoteStateRepository catálogo de estados de presupuesto.
type QuoteStateRepository interface {
	List(ctx context.Context) (entity.QuoteStates, error)
}

// PromotionRepository lectura de promociones con sus productos.
type PromotionRepository interface {
	// GetByID domain.ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.Promotion, error)
	// ListActive promociones activas y en ventana en at.
	ListActive(ctx context.Context, at time.Time) ([]*entity.Promotion, error)
}

// DraftRepository borradores de presupuesto.
type DraftRepository interface {
	Create(ctx context.Context, draft *entity.QuoteDraft) error
	// Get domain.ErrNotFound si el token no existe.
	Get(ctx context.Context, token string) (*entity.QuoteDraft, error)
	Update(ctx context.Context, draft *entity.QuoteDraft) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
