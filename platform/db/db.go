// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"fmt"
	"time"

	"salescrm_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults used when the config leaves a setting unset.
const (
	defaultMaxConns        = 25
	defaultMinConns        = 5
	defaultMaxConnLifetime = time.Hour
)

// NewPool creates the pgx pool and checks connectivity.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PoolConfig parses the database URL and applies the configured pool sizing.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	maxConns := cfg.GetDBMaxConns()
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	minConns := cfg.GetDBMinConns()
	if minConns < 0 {
		minConns = defaultMinConns
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	lifetime := cfg.GetDBMaxConnLifetime()
	if lifetime <= 0 {
		lifetime = defaultMaxConnLifetime
	}

	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)
	poolConfig.MaxConnLifetime = lifetime
	poolConfig.MaxConnIdleTime = lifetime / 2
	poolConfig.HealthCheckPeriod = time.Minute
	return poolConfig, nil
}

// PoolAdapter exposes the pool to the readiness check.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter wraps a pool for health checks.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Ping checks that the database is reachable.
func (a *PoolAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
