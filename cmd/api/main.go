package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/expiration"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Comercial-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Comercial-api/internal/interfaces/http"
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

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

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
	quoteRepo := postgres.NewQuoteRepository(pool)
	quoteStateRepo := postgres.NewQuoteStateRepository(pool)
	promotionRepo := postgres.NewPromotionRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	draftRepo := postgres.NewDraftRepository(pool)
	val := validator.New()

	quoteSvc := quote.NewService(txRunner, leadRepo, quoteRepo, quoteStateRepo, promotionRepo, val, log)
	leadSvc := lead.NewService(txRunner, leadRepo, leadStateRepo, val, log)
	draftSvc := draft.NewService(draftRepo, leadRepo, quoteSvc, cfg.Drafts.TTL, val, log)
	scheduler := notification.NewScheduler(txRunner, notificationRepo, log)

	sweeper, err := expiration.NewSweeper(expiration.SweeperParams{
		TxRunner:       txRunner,
		Leads:          leadRepo,
		LeadStates:     leadStateRepo,
		Quotes:         quoteRepo,
		QuoteStates:    quoteStateRepo,
		Excluded:       expiration.NewExcludedStateCache(leadStateRepo, cfg.Sweep.StateCacheTTL, cfg.Sweep.StateCacheDisabled),
		ExpirationDays: cfg.Sweep.LeadExpirationDays,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar barridos")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	jobMetrics := metrics.NewJobMetrics(registry)

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
	} else {
		log.Warn().Msg("REDIS_URL vacío: barridos sin bloqueo entre instancias")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Comercial API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:       cfg.App.Name,
		Quotes:        quoteSvc,
		Drafts:        draftSvc,
		Leads:         leadSvc,
		Notifications: scheduler,
		Sweeper:       sweeper,
		Validator:     val,
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWTSecret:     cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if cfg.Sweep.Enabled {
		runner, err := expiration.NewRunner(expiration.RunnerParams{
			Logger:   log,
			Lock:     lock,
			Metrics:  jobMetrics,
			Interval: cfg.Sweep.Interval,
			Jobs:     expiration.StandardJobs(sweeper, draftSvc),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configurar runner de barridos")
		}
		g.Go(func() error {
			return runner.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}
