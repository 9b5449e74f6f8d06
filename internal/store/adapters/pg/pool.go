// Package pg implementa el adapter PostgreSQL del store sobre pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

// PgxPool es la porción de pgxpool.Pool que usa el adapter.
// La implementan *pgxpool.Pool y pgxmock.PgxPoolIface.
type PgxPool interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier es lo común entre el pool y una pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return pool, nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapErr traduce errores de pgx a los sentinels del dominio.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("pg: %s: %w", op, repository.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("pg: %s: %w", op, repository.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("pg: %s: %w", op, repository.ErrNotFound)
		}
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}

// nonNil garantiza colecciones vacías en lugar de nil (TEXT[] NULL o sin filas).
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
