package postgres_test

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	sql  string
	args []any
}

// rowStub implements pgx.Row
type rowStub struct {
	vals []any
	err  error
}

func (r rowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

// rowsStub implements the pgx.Rows methods the repository uses.
type rowsStub struct {
	pgx.Rows
	data    [][]any
	i       int
	err     error
	closed  bool
	scanErr error
}

func (r *rowsStub) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *rowsStub) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return assign(dest, r.data[r.i-1])
}

func (r *rowsStub) Err() error { return r.err }
func (r *rowsStub) Close()     { r.closed = true }

// txStub records statements executed inside a transaction.
type txStub struct {
	pgx.Tx
	execs      []call
	failOn     int
	committed  bool
	rolledBack bool
}

func (t *txStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, call{sql: sql, args: args})
	if t.failOn > 0 && len(t.execs) == t.failOn {
		return pgconn.CommandTag{}, fmt.Errorf("exec %d failed", t.failOn)
	}
	return pgconn.CommandTag{}, nil
}

func (t *txStub) Commit(context.Context) error   { t.committed = true; return nil }
func (t *txStub) Rollback(context.Context) error { t.rolledBack = true; return nil }

// poolStub implements postgres.PgxPool for tests.
type poolStub struct {
	execErr  error
	row      rowStub
	rows     *rowsStub
	queryErr error
	tx       *txStub
	execs    []call
	queries  []call
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, call{sql: sql, args: args})
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.queries = append(p.queries, call{sql: sql, args: args})
	return p.row
}

func (p *poolStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.queries = append(p.queries, call{sql: sql, args: args})
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if p.rows == nil {
		p.rows = &rowsStub{}
	}
	return p.rows, nil
}

func (p *poolStub) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if p.tx == nil {
		return nil, fmt.Errorf("no tx configured")
	}
	return p.tx, nil
}

func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

// productRow returns the 16 scanned columns of a catalog row.
func productRow(id int64, name, insureAge, description, source string) []any {
	return []any{id, name, "主約", "TWD", insureAge, "年繳", "20年", description, "", "", source, "", "", "", "", ""}
}
