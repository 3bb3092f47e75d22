package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashTokenCommand(t *testing.T) {
	out, err := runCommand(t, "hash-token", "--cost", "4", "s3cret")
	if err != nil {
		t.Fatalf("hash-token failed: %v", err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Fatalf("expected printed hash to match token, got %v", err)
	}

	if _, err := runCommand(t, "hash-token"); err == nil {
		t.Fatal("expected error without a token argument")
	}
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "campground.db")
	t.Setenv("CAMPGROUND_STORAGE", "sqlite")
	t.Setenv("CAMPGROUND_SQLITE_PATH", dbPath)

	out, err := runCommand(t, "migrate", "--status")
	if err != nil {
		t.Fatalf("migrate --status failed: %v", err)
	}
	if !strings.Contains(out, "current version: none") || !strings.Contains(out, "pending  001") {
		t.Fatalf("expected fresh database to report pending migrations, got %q", out)
	}

	out, err = runCommand(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, "current version: 002") {
		t.Fatalf("expected current version 002, got %q", out)
	}
	if strings.Contains(out, "pending") {
		t.Fatalf("expected no pending migrations, got %q", out)
	}

	t.Run("memory storage is rejected", func(t *testing.T) {
		t.Setenv("CAMPGROUND_STORAGE", "memory")
		if _, err := runCommand(t, "migrate"); err == nil || !strings.Contains(err.Error(), "sqlite") {
			t.Fatalf("expected sqlite storage error, got %v", err)
		}
	})
}

func TestPromoteCommandOnEmptyWaitingList(t *testing.T) {
	t.Setenv("CAMPGROUND_STORAGE", "memory")

	out, err := runCommand(t, "promote")
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	for _, want := range []string{"promoted: 0", "unsatisfiable: 0", "conflicted: 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestServeRequiresTokenHash(t *testing.T) {
	t.Setenv("CAMPGROUND_STORAGE", "memory")
	t.Setenv("CAMPGROUND_API_TOKEN_HASH", "")

	_, err := runCommand(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "CAMPGROUND_API_TOKEN_HASH") {
		t.Fatalf("expected missing token hash error, got %v", err)
	}
}

func TestNewAppWiresSQLiteStorage(t *testing.T) {
	t.Setenv("CAMPGROUND_STORAGE", "sqlite")
	t.Setenv("CAMPGROUND_SQLITE_PATH", filepath.Join(t.TempDir(), "app.db"))

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()

	if a.health == nil {
		t.Fatal("expected a health check for sqlite storage")
	}
	if err := a.health(context.Background()); err != nil {
		t.Fatalf("expected healthy storage, got %v", err)
	}

	campsite, err := a.campsites.CreateCampsite(context.Background(), application.CampsiteInput{Name: "A1", Type: string(application.SiteTypeDaily)})
	if err != nil {
		t.Fatalf("create campsite failed: %v", err)
	}
	if campsite.ID == "" {
		t.Fatal("expected generated campsite id")
	}
}
