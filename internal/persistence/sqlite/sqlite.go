// Package sqlite implements the persistence interfaces on SQLite through the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/example/campground/internal/persistence"
	"github.com/example/campground/internal/persistence/sqlite/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Config holds connection settings.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path        string
	BusyTimeout time.Duration
	// Location is the zone stored instants are read back in. Stay nights are
	// counted in this zone, so it must be the campground's. Nil means UTC.
	Location    *time.Location
	Logger      *slog.Logger
}

// Storage is a SQLite-backed persistence.Store.
type Storage struct {
	repositories

	db     *sql.DB
	logger *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	if cfg.Path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: connect %s: %w", cfg.Path, err)
	}

	return &Storage{
		repositories: repositories{q: db, loc: loc},
		db:           db,
		logger:       logger.With("component", "sqlite"),
	}, nil
}

// dsn builds a modernc connection string. Transactions begin IMMEDIATE so a
// read-then-write unit of work holds the write lock from its first statement.
func dsn(cfg Config) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	if cfg.Path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Set("_txlock", "immediate")
	return cfg.Path + "?" + params.Encode()
}

// DB exposes the underlying handle for health checks.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Close closes the connection pool.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.db),
		s.logger,
	)
	return manager.Run(ctx)
}

// MigrationStatus reports applied and pending schema versions.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.db),
		s.logger,
	)
	return manager.Status(ctx)
}

// WithinTransaction runs fn inside a database transaction. fn's error, or a
// panic, rolls the transaction back.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", mapError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	scoped := repositories{q: tx, loc: s.loc}
	if err := fn(ctx, persistence.Repositories{
		Campsites:     scoped,
		AssignedSites: scoped,
		Reservations:  scoped,
		WaitingList:   scoped,
	}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", mapError(err))
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repositories implements every repository interface on a querier.
type repositories struct {
	q   querier
	loc *time.Location
}

// exec runs a write and reports ErrNotFound when requireRow is set and nothing matched.
func (r repositories) exec(ctx context.Context, requireRow bool, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if !requireRow {
		return nil
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
