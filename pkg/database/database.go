// Package database manages the PostgreSQL pool and ties its
// startup and teardown into the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gradethread/gradethread/pkg/lifecycle"
)

// System exposes the connection pool and its lifecycle hooks.
type System interface {
	// Connection returns the shared pool.
	Connection() *sql.DB
	// Ping verifies the pool can reach the server. Returns an error
	// wrapping ErrNotReady when it cannot.
	Ping(ctx context.Context) error
	// Start registers the startup ping and shutdown close with lc.
	Start(lc *lifecycle.Coordinator) error
}

type system struct {
	pool        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
}

// New opens the pool from cfg. sql.Open validates the DSN and applies
// the pool limits; no connection is dialed until Start runs the ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	pool, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &system{
		pool:        pool,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (s *system) Connection() *sql.DB {
	return s.pool
}

func (s *system) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.connTimeout)
	defer cancel()

	if err := s.pool.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting database connection")

	lc.OnStartup(func() {
		if err := s.Ping(lc.Context()); err != nil {
			s.logger.Error("database ping failed", "error", err)
			return
		}
		s.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("closing database connection")

		if err := s.pool.Close(); err != nil {
			s.logger.Error("database close failed", "error", err)
			return
		}
		s.logger.Info("database connection closed")
	})

	return nil
}
