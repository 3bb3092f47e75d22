package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/campground/internal/persistence"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Path: "  "}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	t.Run("file database uses WAL and immediate transactions", func(t *testing.T) {
		t.Parallel()
		got := dsn(Config{Path: "camp.db", BusyTimeout: 1500 * time.Millisecond})
		path, query, ok := strings.Cut(got, "?")
		if !ok || path != "camp.db" {
			t.Fatalf("expected path prefix, got %q", got)
		}
		values, err := url.ParseQuery(query)
		if err != nil {
			t.Fatalf("unexpected query %q: %v", query, err)
		}
		if values.Get("_txlock") != "immediate" {
			t.Fatalf("expected immediate txlock, got %q", values.Get("_txlock"))
		}
		pragmas := strings.Join(values["_pragma"], ",")
		for _, want := range []string{"busy_timeout(1500)", "foreign_keys(1)", "journal_mode(WAL)"} {
			if !strings.Contains(pragmas, want) {
				t.Fatalf("expected pragma %s in %q", want, pragmas)
			}
		}
	})

	t.Run("memory database skips WAL", func(t *testing.T) {
		t.Parallel()
		if got := dsn(Config{Path: ":memory:", BusyTimeout: time.Second}); strings.Contains(got, "journal_mode") {
			t.Fatalf("expected no journal_mode for memory database, got %q", got)
		}
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := openTestStorage(t)

	for i := 0; i < 2; i++ {
		if err := storage.Migrate(ctx); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}

	status, err := storage.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if len(status.Applied) != 3 || len(status.Pending) != 0 {
		t.Fatalf("expected 3 applied and none pending, got %d/%d", len(status.Applied), len(status.Pending))
	}
	if err := storage.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestMapErrorClassifiesConstraints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := openTestStorage(t)
	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	exec := func(query string, args ...any) error {
		_, err := storage.DB().ExecContext(ctx, query, args...)
		return mapError(err)
	}

	insert := `INSERT INTO campsites (id, name, site_type, created_at, updated_at) VALUES (?, ?, 'daily', ?, ?)`
	now := formatTime(time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC))
	if err := exec(insert, "c1", "A1", now, now); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := exec(insert, "c2", "a1", now, now); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := exec(insert, "c3", "   ", now, now); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if err := exec(`DELETE FROM campsites WHERE id = 'missing'`); err != nil {
		t.Fatalf("expected no error deleting nothing, got %v", err)
	}
	if got := mapError(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
