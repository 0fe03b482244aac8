package expiration

import (
	"context"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// Lock exclusión entre instancias para que un solo proceso barra a la vez.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// JobMetrics métricas por job.
type JobMetrics interface {
	ObserveDuration(job string, d time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
}
