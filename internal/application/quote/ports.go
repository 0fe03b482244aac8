package quote

import (
	"context"

	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}
