package testfixtures

import (
	"context"
	"testing"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/events"
)

func TestServiceFactoryUsesDeterministicDependencies(t *testing.T) {
	clock := NewClock(ReferenceTime())
	ids := NewIDGenerator("wired")
	factory := NewServiceFactory(WithClock(clock), WithIDGenerator(ids))

	svc := factory.NewServices(NewMemoryStore(t), ServicesDeps{})

	campsite, err := svc.Campsites.CreateCampsite(context.Background(), NewCampsiteFixture().Input())
	if err != nil {
		t.Fatalf("expected campsite creation to succeed, got %v", err)
	}
	if campsite.ID != "wired-1" {
		t.Fatalf("expected deterministic id wired-1, got %s", campsite.ID)
	}
	if !campsite.CreatedAt.Equal(ReferenceTime()) {
		t.Fatalf("expected clock time %v, got %v", ReferenceTime(), campsite.CreatedAt)
	}
}

func TestServiceFactoryWiresPublisherAndCache(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceFactory().NewServices(NewMemoryStore(t), ServicesDeps{
		Cache: application.AvailabilityCacheConfig{Size: 8},
	})

	campsite, err := svc.Campsites.CreateCampsite(ctx, NewCampsiteFixture().Input())
	if err != nil {
		t.Fatalf("expected campsite creation to succeed, got %v", err)
	}
	reservation, err := svc.Reservations.CreateReservation(ctx, NewReservationFixture().Input())
	if err != nil {
		t.Fatalf("expected reservation creation to succeed, got %v", err)
	}

	// Prime the cache before assigning.
	free, err := svc.Availability.ListAvailableForStay(ctx, reservation.Stay)
	if err != nil || len(free) != 1 {
		t.Fatalf("expected one free campsite, got %d (%v)", len(free), err)
	}

	if _, err := svc.Assignments.Assign(ctx, application.AssignParams{
		ReservationID: reservation.ID,
		CampsiteID:    campsite.ID,
		Stay:          reservation.Stay,
	}); err != nil {
		t.Fatalf("expected assign to succeed, got %v", err)
	}

	free, err = svc.Availability.ListAvailableForStay(ctx, reservation.Stay)
	if err != nil || len(free) != 0 {
		t.Fatalf("expected cache to be invalidated after assign, got %d free (%v)", len(free), err)
	}
	if got := len(svc.Events.OfType(events.AssignmentCreated)); got != 1 {
		t.Fatalf("expected one assignment event, got %d", got)
	}
}
