package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/xtrntr/ihome/internal/booking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes the store translates into booking error kinds
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the database connection pool
func (db *DB) Close(ctx context.Context) error {
	db.Pool.Close()
	return nil
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back on any error.
func (db *DB) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return persistence("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return persistence("commit transaction", err)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", booking.ErrPersistence, op, err)
}

// lookup turns a missing row into ErrNotFound and anything else into a
// storage failure
func lookup(what string, id int, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", booking.ErrNotFound, what, id)
	}
	return persistence("get "+what, err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
