package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

type backend int

const (
	backendMemory backend = iota
	backendPostgres
	backendSQLite
)

// parseDatabaseURL picks a backend from DATABASE_URL. The returned string is
// the DSN or file path handed to that backend.
func parseDatabaseURL(raw string) (backend, string) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return backendMemory, ""
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return backendPostgres, raw
	case strings.HasPrefix(raw, "sqlite://"):
		return backendSQLite, strings.TrimPrefix(raw, "sqlite://")
	default:
		return backendSQLite, raw
	}
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		kind, dsn := parseDatabaseURL(cfg.DatabaseURL)
		switch kind {
		case backendPostgres:
			slog.Info("startup: using postgres repository")
			return openPostgres(ctx, dsn)
		case backendSQLite:
			slog.Info("startup: using sqlite repository", "path", dsn)
			return OpenSQLite(ctx, dsn)
		default:
			slog.Warn("startup: DATABASE_URL is empty; sessions are kept in memory only")
			return NewMemoryRepository(), nil
		}
	})
}

func openPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return NewPostgresRepository(p), nil
}
