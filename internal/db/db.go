package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the subset of pgxpool.Pool used by the archive
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB wraps pgxpool.Pool for database operations
type DB struct {
	pool *pgxpool.Pool
	conn Conn
}

// NewDB creates a new DB connection pool and checks it is reachable
func NewDB(ctx context.Context, url string) (*DB, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{pool: pool, conn: pool}, nil
}

// Close closes the connection pool
func (d *DB) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}
