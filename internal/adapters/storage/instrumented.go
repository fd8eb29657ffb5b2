package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// SQLDB is the subset of *sql.DB the mirror and the stores run against.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*InstrumentedDB)(nil)
)

// Operation labels reported to the QueryObserver.
const (
	OpExec     = "exec"
	OpQuery    = "query"
	OpQueryRow = "query_row"
	OpBeginTx  = "begin_tx"
)

// QueryObserver receives the latency of every database call.
// *perf.Metrics implements it.
type QueryObserver interface {
	ObserveQuery(op string, d time.Duration)
}

// InstrumentedDB times each call made through it. Calls slower than the
// configured threshold are logged at warn level, the rest at debug.
type InstrumentedDB struct {
	db       *sql.DB
	observer QueryObserver
	slow     time.Duration
}

// InstrumentOption customizes an InstrumentedDB.
type InstrumentOption func(*InstrumentedDB)

// WithObserver forwards every call latency to o.
func WithObserver(o QueryObserver) InstrumentOption {
	return func(d *InstrumentedDB) { d.observer = o }
}

// WithSlowThreshold sets the latency at which a call is logged as slow.
// Zero or less disables slow-query warnings.
func WithSlowThreshold(threshold time.Duration) InstrumentOption {
	return func(d *InstrumentedDB) { d.slow = threshold }
}

// Instrument wraps db. Without options nothing is observed and nothing is
// reported as slow.
// PRE: db is open
// POST: calls reach db unchanged; their latency is logged and observed
func Instrument(db *sql.DB, opts ...InstrumentOption) *InstrumentedDB {
	d := &InstrumentedDB{db: db}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Unwrap returns the wrapped handle, e.g. for goose migrations.
func (d *InstrumentedDB) Unwrap() *sql.DB { return d.db }

// Close closes the wrapped handle.
func (d *InstrumentedDB) Close() error { return d.db.Close() }

// PingContext checks that the database is reachable. Not timed.
func (d *InstrumentedDB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *InstrumentedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.record(ctx, OpExec, start, err)
	return res, err
}

func (d *InstrumentedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.record(ctx, OpQuery, start, err)
	return rows, err
}

// QueryRowContext defers errors to Scan, so failures are not logged here.
func (d *InstrumentedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.record(ctx, OpQueryRow, start, nil)
	return row
}

func (d *InstrumentedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, opts)
	d.record(ctx, OpBeginTx, start, err)
	return tx, err
}

func (d *InstrumentedDB) record(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	if d.observer != nil {
		d.observer.ObserveQuery(op, elapsed)
	}

	attrs := []any{"op", op, "duration_ms", float64(elapsed.Microseconds()) / 1000}
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		slog.WarnContext(ctx, "query_failed", append(attrs, "error", err)...)
	case d.slow > 0 && elapsed >= d.slow:
		slog.WarnContext(ctx, "slow_query", attrs...)
	default:
		slog.DebugContext(ctx, "query", attrs...)
	}
}
