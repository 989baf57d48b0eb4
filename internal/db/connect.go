package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pegfall/internal/logger"
	"pegfall/internal/migrations"
)

const connectTimeout = 10 * time.Second

// Connect opens a pool and checks that the database answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected")
	return pool, nil
}

// Migrate applies every embedded migration in order. The statements are
// idempotent so re-running is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	all, err := migrations.All()
	if err != nil {
		return nil, err
	}
	applied := make([]string, 0, len(all))
	for _, m := range all {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return applied, fmt.Errorf("apply %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
		logger.Info("migration applied", "name", m.Name)
	}
	return applied, nil
}
