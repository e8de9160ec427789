// Package store persists session records, engagement snapshots, learner
// state and LLM request logs in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store owns the database handle and hands out repositories.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string

	// conn is db, or the open transaction for a store cloned by inTx.
	conn conn
}

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database named by dsn using driver ("sqlite" or
// "postgres"). SQLite connections get the recommended pragmas. Tables are
// migrated on open.
func Open(driver, dsn string) (*Store, error) {
	var d string
	switch driver {
	case "", DriverSQLite:
		driver, d = DriverSQLite, dialect.SQLite
	case DriverPostgres:
		d = dialect.Postgres
	default:
		return nil, fmt.Errorf("unknown database driver: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialect.SQLite {
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	s := &Store{db: db, drv: entsql.OpenDB(d, db), dialect: d, conn: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inTx runs fn against a copy of the store bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cloned := *s
	cloned.conn = tx
	if err := fn(&cloned); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) SessionRepo() SessionRepo   { return &sessionRepo{s} }
func (s *Store) SnapshotRepo() SnapshotRepo { return &snapshotRepo{s} }
func (s *Store) ProfileRepo() ProfileRepo   { return &profileRepo{s} }
func (s *Store) LearnerRepo() LearnerRepo   { return &learnerRepo{s} }
func (s *Store) ProgressRepo() ProgressRepo { return &progressRepo{s} }
func (s *Store) SurveyRepo() SurveyRepo     { return &surveyRepo{s} }
func (s *Store) AnalysisRepo() AnalysisRepo { return &analysisRepo{s} }
func (s *Store) EventRepo() EventRepo       { return &eventRepo{s} }

// exec runs a built statement.
func (s *Store) exec(ctx context.Context, q entsql.Querier) error {
	query, args := q.Query()
	_, err := s.conn.ExecContext(ctx, query, args...)
	return err
}

// query runs a built select.
func (s *Store) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return s.conn.QueryContext(ctx, query, args...)
}

// insertID runs an insert with RETURNING id and returns the new id.
func (s *Store) insertID(ctx context.Context, ins *entsql.InsertBuilder) (int, error) {
	query, args := ins.Returning("id").Query()
	var id int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
