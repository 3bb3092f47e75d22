package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "CAMPGROUND_"

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	LockLocal = "local"
	LockRedis = "redis"

	// PromotionOff disables the periodic sweep. An empty value falls back to
	// the default schedule.
	PromotionOff = "off"
)

// Config captures environment driven configuration values for the campground service.
type Config struct {
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	Storage  string `env:"STORAGE" envDefault:"sqlite"`

	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"campground.db"`
	SQLiteBusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`

	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	APITokenHash string     `env:"API_TOKEN_HASH"`

	LockBackend string        `env:"LOCK_BACKEND" envDefault:"local"`
	LockTTL     time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	LockWait    time.Duration `env:"LOCK_WAIT" envDefault:"10s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AMQPURL     string `env:"AMQP_URL"`
	EventsQueue string `env:"EVENTS_QUEUE" envDefault:"campground.events"`

	PromotionSchedule string        `env:"PROMOTION_SCHEDULE" envDefault:"@every 15m"`
	PromotionTimeout  time.Duration `env:"PROMOTION_TIMEOUT" envDefault:"2m"`

	AvailabilityCacheSize int           `env:"AVAILABILITY_CACHE_SIZE" envDefault:"256"`
	AvailabilityCacheTTL  time.Duration `env:"AVAILABILITY_CACHE_TTL" envDefault:"30s"`

	Timezone string `env:"TIMEZONE" envDefault:"UTC"`
}

// Load parses configuration values from the current process environment.
//
// Values that fail to parse or validate are reported together, using the
// prefixed variable names.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		keys := invalidKeys(err)
		if len(keys) == 0 {
			return Config{}, fmt.Errorf("invalid environment values: %w", err)
		}
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(keys, ", "))
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))
	cfg.PromotionSchedule = strings.TrimSpace(cfg.PromotionSchedule)

	if invalid := cfg.validate(); len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// RequireAPIToken reports an error when no token hash is configured. Only
// the HTTP server needs one.
func (c Config) RequireAPIToken() error {
	if strings.TrimSpace(c.APITokenHash) == "" {
		return fmt.Errorf("missing required environment variables: %sAPI_TOKEN_HASH", Prefix)
	}
	return nil
}

// Location resolves Timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PromotionEnabled reports whether the periodic waitlist sweep should run.
func (c Config) PromotionEnabled() bool {
	return c.PromotionSchedule != "" && !strings.EqualFold(c.PromotionSchedule, PromotionOff)
}

func (c Config) validate() []string {
	invalid := make([]string, 0, 4)
	reject := func(key string) { invalid = append(invalid, Prefix+key) }

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		reject("HTTP_PORT")
	}
	switch c.Storage {
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			reject("SQLITE_PATH")
		}
	case StorageMemory:
	default:
		reject("STORAGE")
	}
	if c.SQLiteBusyTimeout <= 0 {
		reject("SQLITE_BUSY_TIMEOUT")
	}
	switch c.LockBackend {
	case LockLocal:
	case LockRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			reject("REDIS_ADDR")
		}
	default:
		reject("LOCK_BACKEND")
	}
	if c.LockTTL <= 0 {
		reject("LOCK_TTL")
	}
	if c.LockWait <= 0 {
		reject("LOCK_WAIT")
	}
	if c.RedisDB < 0 {
		reject("REDIS_DB")
	}
	if c.AMQPURL != "" && strings.TrimSpace(c.EventsQueue) == "" {
		reject("EVENTS_QUEUE")
	}
	if c.PromotionEnabled() {
		if _, err := cron.ParseStandard(c.PromotionSchedule); err != nil {
			reject("PROMOTION_SCHEDULE")
		}
	}
	if c.PromotionTimeout <= 0 {
		reject("PROMOTION_TIMEOUT")
	}
	if c.AvailabilityCacheSize < 0 {
		reject("AVAILABILITY_CACHE_SIZE")
	}
	if c.AvailabilityCacheTTL < 0 {
		reject("AVAILABILITY_CACHE_TTL")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		reject("TIMEZONE")
	}
	return invalid
}

// invalidKeys recovers the variable names behind env parse errors, which
// only carry the struct field name.
func invalidKeys(err error) []string {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil
	}
	configType := reflect.TypeOf(Config{})
	keys := make([]string, 0, len(agg.Errors))
	for _, item := range agg.Errors {
		var parseErr env.ParseError
		if !errors.As(item, &parseErr) {
			continue
		}
		field, ok := configType.FieldByName(parseErr.Name)
		if !ok {
			continue
		}
		keys = append(keys, Prefix+field.Tag.Get("env"))
	}
	sort.Strings(keys)
	return keys
}
