package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFromContext returns the transaction opened by ReadTx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// TxRunner runs fn inside a transaction scope. Services depend on it rather
// than on a pool so they can be tested without a database.
type TxRunner interface {
	ReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolRunner opens transactions on the request connection when there is
// one, otherwise on a connection borrowed from the pool.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func (r PoolRunner) ReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return ReadTx(ctx, r.Pool, fn)
}

// ReadTx runs fn inside a read-only transaction. Queries issued through
// Conn(ctx, ...) inside fn use that transaction. The transaction is rolled
// back on every path that does not reach the commit, including panics.
// Nested calls reuse the outer transaction.
func ReadTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	opts := pgx.TxOptions{AccessMode: pgx.ReadOnly}
	var (
		tx  pgx.Tx
		err error
	)
	if c := ConnFromContext(ctx); c != nil {
		tx, err = c.BeginTx(ctx, opts)
	} else {
		tx, err = pool.BeginTx(ctx, opts)
	}
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit read transaction: %w", err)
	}
	return nil
}

// NopRunner calls fn directly. Tests use it with in-memory repositories.
type NopRunner struct{}

func (NopRunner) ReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
