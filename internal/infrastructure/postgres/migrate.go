package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir directorio de migraciones dentro del FS embebido.
const MigrationsDir = "migrations"

// Migrate ejecuta un comando de goose (up, down, status, version, redo, reset)
// sobre el pool usando las migraciones embebidas.
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string, args ...string) error {
	if pool == nil {
		return fmt.Errorf("pool is required")
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, MigrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
