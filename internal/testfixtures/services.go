package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/events"
	"github.com/example/campground/internal/lock"
	"github.com/example/campground/internal/persistence"
	"github.com/example/campground/internal/store"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger overrides the discard logger used by default.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services is a wired service set over one store.
type Services struct {
	Store        store.Store
	Locker       lock.Locker
	Events       *events.Recorder
	Availability *application.AvailabilityService
	Assignments  *application.AssignmentService
	Waitlist     *application.WaitlistService
	Reservations *application.ReservationService
	Campsites    *application.CampsiteService
	Fees         *application.FeeService
}

// ServicesDeps captures optional collaborators for NewServices.
type ServicesDeps struct {
	// Locker defaults to a fresh KeyedMutex.
	Locker lock.Locker
	// Cache defaults to a disabled availability cache.
	Cache application.AvailabilityCacheConfig
	// DisableReleasePromotion leaves the waitlist unhooked from releases.
	DisableReleasePromotion bool
}

// NewServices wires every application service over backend the same way the
// serve command does, recording published events.
func (f *ServiceFactory) NewServices(backend persistence.Store, deps ServicesDeps) *Services {
	st := store.New(backend)
	idGen := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	locker := deps.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	recorder := &events.Recorder{}

	availability := application.NewAvailabilityServiceWithLogger(st.Repositories.Campsites, st.Repositories.AssignedSites, deps.Cache, f.Logger)
	assignments := application.NewAssignmentServiceWithLogger(st.Repositories, st.Transactor, locker, idGen, now, f.Logger)
	assignments.SetSnapshotInvalidator(availability)
	assignments.SetPublisher(recorder)

	waitlist := application.NewWaitlistServiceWithLogger(st.Repositories, st.Transactor, assignments, idGen, now, f.Logger)
	if !deps.DisableReleasePromotion {
		assignments.SetReleaseListener(waitlist)
	}

	campsites := application.NewCampsiteServiceWithLogger(st.Repositories.Campsites, idGen, now, f.Logger)
	campsites.SetSnapshotInvalidator(availability)

	return &Services{
		Store:        st,
		Locker:       locker,
		Events:       recorder,
		Availability: availability,
		Assignments:  assignments,
		Waitlist:     waitlist,
		Reservations: application.NewReservationServiceWithLogger(st.Repositories, st.Transactor, st.YearlyRates, assignments, idGen, now, f.Logger),
		Campsites:    campsites,
		Fees:         application.NewFeeServiceWithLogger(st.YearlyRates, st.Repositories.Reservations, now, f.Logger),
	}
}
