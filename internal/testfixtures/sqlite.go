package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/example/campground/internal/persistence/memory"
	"github.com/example/campground/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated SQLite storage backed by a temporary file
// for integration-style persistence tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	return NewSQLiteHarnessIn(tb, time.UTC)
}

// NewSQLiteHarnessIn is NewSQLiteHarness with stored instants read back in loc.
func NewSQLiteHarnessIn(tb testing.TB, loc *time.Location) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "campground.db")

	storage, err := sqlite.Open(sqlite.Config{
		Path:     path,
		Location: loc,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryStore returns an empty in-memory storage closed with the test.
func NewMemoryStore(tb testing.TB) *memory.Storage {
	tb.Helper()

	storage := memory.Open()
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}

// LoadLocation returns the named zone from the embedded zone database.
func LoadLocation(tb testing.TB, name string) *time.Location {
	tb.Helper()

	loc, err := time.LoadLocation(name)
	if err != nil {
		tb.Fatalf("failed to load time zone %s: %v", name, err)
	}
	return loc
}
