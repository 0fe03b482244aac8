package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Comercial-api/internal/application/expiration"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var (
	_ lead.TxRunner         = (*TxRunner)(nil)
	_ quote.TxRunner        = (*TxRunner)(nil)
	_ notification.TxRunner = (*TxRunner)(nil)
	_ expiration.TxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewTxRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewTxRepos repositorios sobre q (pool o tx).
func NewTxRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Leads:         NewLeadRepository(q),
		LeadHistory:   NewLeadHistoryRepository(q),
		Comments:      NewCommentRepository(q),
		FollowUps:     NewFollowUpRepository(q),
		Notifications: NewNotificationRepository(q),
		Quotes:        NewQuoteRepository(q),
		Drafts:        NewDraftRepository(q),
		Users:         NewUserRepository(q),
	}
}
