package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"parishcms/internal/domain/repositories"
)

// RepositoryConfig holds the shared dependencies of repository
// implementations.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the environment-prefixed table names.
type TableNames struct {
	Pages         string
	Sections      string
	ActivityItems string
	EventItems    string
	Documents     string
}

// NewTableNames creates table names with the given prefix. Prefixing by
// environment (dev_/test_/prod_) keeps environments apart inside one
// database; the SQL is interpolated before it reaches the server, so each
// environment gets its own statements.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Pages:         prefix + "pages",
		Sections:      prefix + "sections",
		ActivityItems: prefix + "activity_items",
		EventItems:    prefix + "event_items",
		Documents:     prefix + "documents",
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a
// ping before returning.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context when one is present,
// otherwise the pool. Repositories call this on every query so they
// automatically participate in the caller's transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
