package draft

import (
	"context"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// QuoteCreator crea el presupuesto definitivo al confirmar un borrador.
type QuoteCreator interface {
	Create(ctx context.Context, actor entity.Actor, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error)
}
