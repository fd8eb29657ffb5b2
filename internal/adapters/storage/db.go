package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"gymcrm/internal/domain/dates"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open opens the SQLite database at path with the pragmas the mirror relies on.
// PRE: path is a file path or ":memory:"
// POST: Returns a pinged connection pool
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, db, fsys)
}

// MigrateDB applies all pending migrations.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion; running again is a no-op
func MigrateDB(ctx context.Context, db *sql.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("migration_applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// SchemaVersion returns the current schema version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// LatestSchemaVersion returns the version of the newest embedded migration.
func LatestSchemaVersion() int64 {
	entries, err := fs.Glob(embedMigrations, "migrations/*.sql")
	if err != nil {
		return 0
	}
	var latest int64
	for _, name := range entries {
		v, err := goose.NumericComponent(name)
		if err == nil && v > latest {
			latest = v
		}
	}
	return latest
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// PRE: db is a valid database connection
// POST: All writes made through tx are committed, or none are
func WithTx(ctx context.Context, db SQLDB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NullDate formats a calendar date for a nullable TEXT column.
func NullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return dates.Format(t)
}

// TimeLayout is the fixed-width UTC timestamp format stored in TEXT columns,
// so that string order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime formats a timestamp for a TEXT column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime formats a timestamp for a nullable TEXT column.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ScanDate reads a nullable date column; NULL and unreadable values give the zero time.
func ScanDate(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	d, err := dates.Parse(ns.String)
	if err != nil {
		return time.Time{}
	}
	return d
}

// ParseStoredTime reads a timestamp written by FormatTime.
func ParseStoredTime(value string) (time.Time, error) {
	// RFC3339Nano accepts TimeLayout's fixed nine fraction digits.
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
	}
	return parsed.UTC(), nil
}

// Limit converts a list limit to SQLite's form, where -1 means no limit.
func Limit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

// Execer is the write side shared by *sql.Tx and SQLDB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Compile-time checks for the write targets stores accept.
var (
	_ Execer = (*sql.Tx)(nil)
	_ Execer = SQLDB(nil)
)
