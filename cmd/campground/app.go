package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/config"
	"github.com/example/campground/internal/events"
	"github.com/example/campground/internal/lock"
	"github.com/example/campground/internal/persistence"
	"github.com/example/campground/internal/persistence/memory"
	"github.com/example/campground/internal/persistence/sqlite"
	"github.com/example/campground/internal/store"
)

// app is the wired service graph shared by serve and promote.
type app struct {
	health func(ctx context.Context) error

	availability *application.AvailabilityService
	assignments  *application.AssignmentService
	waitlist     *application.WaitlistService
	reservations *application.ReservationService
	campsites    *application.CampsiteService
	fees         *application.FeeService

	closers []func() error
	logger  *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	wired := false
	defer func() {
		if !wired {
			a.Close()
		}
	}()

	backend, err := a.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	locker, err := a.openLocker(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsQueue, logger)
		a.closers = append(a.closers, amqpPublisher.Close)
		publisher = amqpPublisher
	}

	st := store.New(backend)
	idGen := uuid.NewString
	now := time.Now

	a.availability = application.NewAvailabilityServiceWithLogger(
		st.Repositories.Campsites,
		st.Repositories.AssignedSites,
		application.AvailabilityCacheConfig{Size: cfg.AvailabilityCacheSize, TTL: cfg.AvailabilityCacheTTL},
		logger,
	)
	a.assignments = application.NewAssignmentServiceWithLogger(st.Repositories, st.Transactor, locker, idGen, now, logger)
	a.assignments.SetSnapshotInvalidator(a.availability)
	a.assignments.SetPublisher(publisher)

	a.waitlist = application.NewWaitlistServiceWithLogger(st.Repositories, st.Transactor, a.assignments, idGen, now, logger)
	a.assignments.SetReleaseListener(a.waitlist)

	a.campsites = application.NewCampsiteServiceWithLogger(st.Repositories.Campsites, idGen, now, logger)
	a.campsites.SetSnapshotInvalidator(a.availability)

	a.reservations = application.NewReservationServiceWithLogger(st.Repositories, st.Transactor, st.YearlyRates, a.assignments, idGen, now, logger)
	a.fees = application.NewFeeServiceWithLogger(st.YearlyRates, st.Repositories.Reservations, now, logger)
	wired = true
	return a, nil
}

func (a *app) openStorage(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	if cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory storage; data is lost on exit")
		return memory.Open(), nil
	}

	storage, err := sqlite.Open(sqlite.Config{
		Path:        cfg.SQLitePath,
		BusyTimeout: cfg.SQLiteBusyTimeout,
		Location:    cfg.Location(),
		Logger:      a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, storage.Close)
	if err := storage.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	a.health = storage.Ping
	return storage, nil
}

func (a *app) openLocker(ctx context.Context, cfg config.Config) (lock.Locker, error) {
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.LockBackend == config.LockRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		locker = lock.NewRedisLocker(client, lock.RedisLockerOptions{TTL: cfg.LockTTL, Logger: a.logger})
	}
	return lock.WithWait(locker, cfg.LockWait), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("failed to release resources", "error", err)
		return err
	}
	return nil
}
