package persistence

import (
	"context"
	"time"
)

// CampsiteRepository exposes CRUD operations for campsites.
type CampsiteRepository interface {
	CreateCampsite(ctx context.Context, campsite Campsite) error
	UpdateCampsite(ctx context.Context, campsite Campsite) error
	GetCampsite(ctx context.Context, id string) (Campsite, error)
	GetCampsiteByName(ctx context.Context, name string) (Campsite, error)
	ListCampsites(ctx context.Context) ([]Campsite, error)
	ListCampsitesByType(ctx context.Context, siteType string) ([]Campsite, error)
	DeleteCampsite(ctx context.Context, id string) error
}

// AssignedSiteRepository stores campsite bindings.
type AssignedSiteRepository interface {
	CreateAssignedSite(ctx context.Context, site AssignedSite) error
	UpdateAssignedSite(ctx context.Context, site AssignedSite) error
	GetAssignedSite(ctx context.Context, id string) (AssignedSite, error)
	ListAssignedSites(ctx context.Context) ([]AssignedSite, error)
	ListAssignedSitesByReservation(ctx context.Context, reservationID string) ([]AssignedSite, error)
	ListAssignedSitesByCampsite(ctx context.Context, campsiteID string) ([]AssignedSite, error)
	DeleteAssignedSite(ctx context.Context, id string) error
}

// ReservationRepository stores reservations.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservationsByCustomer(ctx context.Context, customerID string) ([]Reservation, error)
	// ListReservationsInRange returns reservations whose stay overlaps [start, end).
	ListReservationsInRange(ctx context.Context, start, end time.Time) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// WaitingListRepository stores waiting list entries. Ordering for promotion is
// the caller's concern.
type WaitingListRepository interface {
	CreateWaitingListEntry(ctx context.Context, entry WaitingListEntry) error
	UpdateWaitingListEntry(ctx context.Context, entry WaitingListEntry) error
	GetWaitingListEntry(ctx context.Context, id string) (WaitingListEntry, error)
	ListWaitingListEntries(ctx context.Context) ([]WaitingListEntry, error)
	ListWaitingListEntriesByCustomer(ctx context.Context, customerID string) ([]WaitingListEntry, error)
	DeleteWaitingListEntry(ctx context.Context, id string) error
}

// YearlyRatesRepository stores rate rows keyed by year.
type YearlyRatesRepository interface {
	UpsertYearlyRates(ctx context.Context, rates YearlyRates) error
	GetYearlyRates(ctx context.Context, year int) (YearlyRates, error)
	ListYearlyRates(ctx context.Context) ([]YearlyRates, error)
	DeleteYearlyRates(ctx context.Context, year int) error
}

// Repositories groups the repositories that take part in a unit of work.
type Repositories struct {
	Campsites     CampsiteRepository
	AssignedSites AssignedSiteRepository
	Reservations  ReservationRepository
	WaitingList   WaitingListRepository
}

// Transactor runs fn atomically: either every write made through the supplied
// repositories commits, or none does.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is a complete persistence backend.
type Store interface {
	CampsiteRepository
	AssignedSiteRepository
	ReservationRepository
	WaitingListRepository
	YearlyRatesRepository
	Transactor
	Close() error
}
