package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_PORT", "STORAGE", "SQLITE_PATH", "SQLITE_BUSY_TIMEOUT", "LOG_LEVEL",
	"API_TOKEN_HASH", "LOCK_BACKEND", "LOCK_TTL", "LOCK_WAIT", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "AMQP_URL", "EVENTS_QUEUE", "PROMOTION_SCHEDULE",
	"PROMOTION_TIMEOUT", "AVAILABILITY_CACHE_SIZE", "AVAILABILITY_CACHE_TTL", "TIMEZONE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// Setenv registers the restore; Unsetenv then removes the value for this test.
		t.Setenv(Prefix+key, "")
		if err := os.Unsetenv(Prefix + key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Storage != StorageSQLite || cfg.SQLitePath != "campground.db" {
			t.Fatalf("unexpected storage defaults: %q %q", cfg.Storage, cfg.SQLitePath)
		}
		if cfg.LockBackend != LockLocal || cfg.LockTTL != 30*time.Second || cfg.LockWait != 10*time.Second {
			t.Fatalf("unexpected lock defaults: %+v", cfg)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info level, got %s", cfg.LogLevel)
		}
		if !cfg.PromotionEnabled() || cfg.PromotionSchedule != "@every 15m" {
			t.Fatalf("expected default promotion schedule, got %q", cfg.PromotionSchedule)
		}
		if cfg.AvailabilityCacheSize != 256 || cfg.AvailabilityCacheTTL != 30*time.Second {
			t.Fatalf("unexpected cache defaults: %d %s", cfg.AvailabilityCacheSize, cfg.AvailabilityCacheTTL)
		}
		if cfg.Location() != time.UTC {
			t.Fatalf("expected UTC location, got %s", cfg.Location())
		}
	})

	t.Run("errors when the token hash is required but missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		err = cfg.RequireAPIToken()
		if err == nil {
			t.Fatalf("expected error when the token hash is missing")
		}
		expected := "missing required environment variables: CAMPGROUND_API_TOKEN_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration, level and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CAMPGROUND_HTTP_PORT", "9090")
		t.Setenv("CAMPGROUND_STORAGE", "Memory")
		t.Setenv("CAMPGROUND_LOG_LEVEL", "debug")
		t.Setenv("CAMPGROUND_LOCK_BACKEND", "redis")
		t.Setenv("CAMPGROUND_REDIS_DB", "3")
		t.Setenv("CAMPGROUND_PROMOTION_SCHEDULE", "off")
		t.Setenv("CAMPGROUND_PROMOTION_TIMEOUT", "45s")
		t.Setenv("CAMPGROUND_API_TOKEN_HASH", "$2a$10$abc")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.Storage != StorageMemory {
			t.Fatalf("expected memory storage, got %q", cfg.Storage)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug level, got %s", cfg.LogLevel)
		}
		if cfg.LockBackend != LockRedis || cfg.RedisDB != 3 {
			t.Fatalf("unexpected redis settings: %q %d", cfg.LockBackend, cfg.RedisDB)
		}
		if cfg.PromotionEnabled() {
			t.Fatalf("expected promotion to be disabled by the off schedule")
		}
		if cfg.PromotionTimeout != 45*time.Second {
			t.Fatalf("expected promotion timeout 45s, got %s", cfg.PromotionTimeout)
		}
		if err := cfg.RequireAPIToken(); err != nil {
			t.Fatalf("expected token hash to satisfy requirement, got %v", err)
		}
	})

	t.Run("reports unparsable values by variable name", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CAMPGROUND_HTTP_PORT", "eighty")
		t.Setenv("CAMPGROUND_LOCK_TTL", "soon")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for unparsable values")
		}
		expected := "invalid environment values: CAMPGROUND_HTTP_PORT, CAMPGROUND_LOCK_TTL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports values that fail validation", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CAMPGROUND_STORAGE", "postgres")
		t.Setenv("CAMPGROUND_PROMOTION_SCHEDULE", "whenever")
		t.Setenv("CAMPGROUND_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected validation error")
		}
		for _, key := range []string{"CAMPGROUND_STORAGE", "CAMPGROUND_PROMOTION_SCHEDULE", "CAMPGROUND_TIMEZONE"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}
