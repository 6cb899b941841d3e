// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fundmatch-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// Connections are recycled on an interval so long-lived workers pick up
// failovers and credential rotations without a restart.
const connMaxLifetime = 5 * time.Minute

// PostgresClient owns the match-record connection pool. Stores receive the
// underlying *sql.DB; the wrapper exists for lifecycle and health checks.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool sized from config. The connection is not verified
// here; callers ping inside their retry loop so startup backoff stays in one
// place.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxLifetime)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB exposes the pool for stores that manage their own transactions.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
