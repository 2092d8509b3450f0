// Package store persists run history to Postgres. The store is optional: a
// pipeline without a configured database simply skips persistence.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB opens the shared connection pool for the given DSN. The first call
// wins; later calls reuse its pool.
func InitDB(ctx context.Context, dsn string) error {
	var err error
	once.Do(func() {
		if dsn == "" {
			err = fmt.Errorf("database DSN is empty")
			return
		}

		poolCfg, parseErr := pgxpool.ParseConfig(dsn)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	})
	if err == nil && pool == nil {
		err = fmt.Errorf("database pool not initialized")
	}
	return err
}

// GetPool returns the shared connection pool, nil before a successful InitDB.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
