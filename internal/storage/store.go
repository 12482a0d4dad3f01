// Package storage persists users, budgets and transactions in a relational
// database. SQLite (modernc.org/sqlite) is the default; Postgres is reached
// through pgx. Every budget and transaction query is scoped by user id.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgettracker/internal/core"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// sqlitePragmas turns on foreign keys (needed for ON DELETE CASCADE) and
// lets concurrent writers wait instead of failing with SQLITE_BUSY.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type Options struct {
	Dialect     Dialect
	SQLitePath  string
	PostgresURL string
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	version uint
	now     func() time.Time
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (o Options) dsn() (string, error) {
	switch o.Dialect {
	case Postgres:
		if o.PostgresURL == "" {
			return "", errors.New("postgres URL is required")
		}
		return o.PostgresURL, nil
	case SQLite, "":
		if o.SQLitePath == "" {
			return "", errors.New("sqlite path is required")
		}
		sep := "?"
		if strings.Contains(o.SQLitePath, "?") {
			sep = "&"
		}
		return o.SQLitePath + sep + sqlitePragmas, nil
	}
	return "", fmt.Errorf("unsupported database dialect %q", o.Dialect)
}

// Open connects to the database, applies migrations and returns a ready Store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Dialect == "" {
		opts.Dialect = SQLite
	}
	dsn, err := opts.dsn()
	if err != nil {
		return nil, err
	}

	if opts.Dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(opts.Dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(opts.Dialect, dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:      db,
		dialect: opts.Dialect,
		version: version,
		now:     time.Now,
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// SchemaVersion is the migration version applied when the store was opened.
func (s *Store) SchemaVersion() uint {
	return s.version
}

// timestamp returns the current time at the precision both dialects keep.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// expectOne maps a write that touched no row to core.ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the domain sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}
