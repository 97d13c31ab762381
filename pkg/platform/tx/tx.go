// Package tx carries a database transaction through context so stores
// and the event outbox can join one commit.
package tx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a transaction in context for downstream stores.
func WithTx(ctx context.Context, txn pgx.Tx) context.Context {
	if txn == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, txn)
}

// From extracts the transaction from context if one is present.
func From(ctx context.Context) (pgx.Tx, bool) {
	txn, ok := ctx.Value(txKey).(pgx.Tx)
	return txn, ok
}

// Runner executes a function as one unit of work.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop runs the function without a transaction. Memory stores keep no
// shared commit to join.
type Nop struct{}

func (Nop) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Pgx begins a transaction on the pool, carries it in context, and
// commits when fn returns nil.
type Pgx struct {
	pool *pgxpool.Pool
}

func NewPgx(pool *pgxpool.Pool) *Pgx {
	return &Pgx{pool: pool}
}

func (r *Pgx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	txn, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = txn.Rollback(ctx) }()

	if err := fn(WithTx(ctx, txn)); err != nil {
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
