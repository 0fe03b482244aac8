// Comando migrate: aplica las migraciones goose embebidas.
//
//	go run ./cmd/migrate -cmd up
//	go run ./cmd/migrate -cmd down
//	go run ./cmd/migrate -cmd status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jhoicas/Comercial-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Comercial-api/pkg/config"
	"github.com/jhoicas/Comercial-api/pkg/logger"
)

func main() {
	command := flag.String("cmd", "up", "comando goose: up, down, status, redo, version")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, *command, flag.Args()...); err != nil {
		log.Fatal().Err(err).Str("cmd", *command).Msg("migraciones")
	}
	log.Info().Str("cmd", *command).Msg("migraciones ejecutadas")
}
