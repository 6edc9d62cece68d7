package pool

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// something begins SQL Transaction.
//
// this is extracted interface from "pgxpool.Pool" or "pgx.Tx".
// when you need more details, see them.
type Begin interface {
	Begin(ctx context.Context) (Tx, error)
}

// something sending query with SQL.
//
// this is extracted interface from `pgxpool.Pool` and `pgx.Tx`.
type Queryer interface {
	// sending SQL Command which does not have any result rows.
	Exec(ctx context.Context, sql string, arguments ...interface{}) (commandTag pgconn.CommandTag, err error)

	// sending SQL Command which has result rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)

	// sending SQL Command which has just single result row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// interface extracted from `pgx.Tx`.
//
// `pgx.Tx` does not implement `Tx` directly; wrap with Pool and call Begin.
// This is just a subset. When you need more methods only `pgx.Tx` has, declare them.
type Tx interface {
	Queryer
	Begin

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Pool is the subset of `pgxpool.Pool` the tracker store relies on.
type Pool interface {
	Begin
	Queryer
	Close()
}

type pool struct {
	base *pgxpool.Pool
}

var _ Pool = &pool{}

// Wrap makes a `*pgxpool.Pool` usable as Pool.
func Wrap(base *pgxpool.Pool) Pool {
	return &pool{base: base}
}

func (p *pool) Begin(ctx context.Context) (Tx, error) {
	t, err := p.base.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{base: t}, nil
}

func (p *pool) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return p.base.Exec(ctx, sql, arguments...)
}

func (p *pool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.base.Query(ctx, sql, args...)
}

func (p *pool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.base.QueryRow(ctx, sql, args...)
}

func (p *pool) Close() {
	p.base.Close()
}

type tx struct {
	base pgx.Tx
}

var _ Tx = &tx{}

func (t *tx) Begin(ctx context.Context) (Tx, error) {
	nested, err := t.base.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{base: nested}, nil
}

func (t *tx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return t.base.Exec(ctx, sql, arguments...)
}

func (t *tx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.base.Query(ctx, sql, args...)
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.base.QueryRow(ctx, sql, args...)
}

func (t *tx) Commit(ctx context.Context) error {
	return t.base.Commit(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	return t.base.Rollback(ctx)
}
