// Comando sweeper: ejecuta un único ciclo de barridos (leads, presupuestos, borradores)
// y termina. Pensado para cron externo cuando SWEEP_ENABLED=false en la API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/expiration"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/redis"
	"github.com/jhoicas/Comercial-api/pkg/config"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("sweeper-cmd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	leadRepo := postgres.NewLeadRepository(pool)
	leadStateRepo := postgres.NewLeadStateRepository(pool)

	// proceso corto: sin memoizar estados excluidos
	sweeper, err := expiration.NewSweeper(expiration.SweeperParams{
		TxRunner:       txRunner,
		Leads:          leadRepo,
		LeadStates:     leadStateRepo,
		Quotes:         postgres.NewQuoteRepository(pool),
		QuoteStates:    postgres.NewQuoteStateRepository(pool),
		Excluded:       expiration.NewExcludedStateCache(leadStateRepo, cfg.Sweep.StateCacheTTL, true),
		ExpirationDays: cfg.Sweep.LeadExpirationDays,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar barridos")
	}
	drafts := draft.NewService(postgres.NewDraftRepository(pool), leadRepo, nil, cfg.Drafts.TTL, validator.New(), log)

	var lock expiration.Lock
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		redisLock, err := redis.NewLock(redis.ClientStore{Client: client}, redis.SweepLockKey, cfg.Sweep.LockTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("lock de barridos")
		}
		lock = redisLock
	}

	runner, err := expiration.NewRunner(expiration.RunnerParams{
		Logger:  log,
		Lock:    lock,
		Metrics: metrics.NewJobMetrics(prometheus.NewRegistry()),
		Jobs:    expiration.StandardJobs(sweeper, drafts),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar runner")
	}

	start := time.Now()
	if err := runner.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("ciclo de barrido fallido")
		os.Exit(1)
	}
	log.Info().Int64("duration_ms", time.Since(start).Milliseconds()).Msg("ciclo de barrido completado")
}
