// Package store adapts a persistence backend to the repository interfaces of
// the application layer.
package store

import (
	"context"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/persistence"
)

// Store bundles the application-facing view of one persistence backend.
type Store struct {
	Repositories application.Repositories
	Transactor   application.Transactor
	YearlyRates  application.YearlyRatesRepository
}

// New wraps backend.
func New(backend persistence.Store) Store {
	return Store{
		Repositories: adaptRepositories(persistence.Repositories{
			Campsites:     backend,
			AssignedSites: backend,
			Reservations:  backend,
			WaitingList:   backend,
		}),
		Transactor:  transactor{backend: backend},
		YearlyRates: ratesAdapter{repo: backend},
	}
}

func adaptRepositories(repos persistence.Repositories) application.Repositories {
	return application.Repositories{
		Campsites:     campsiteAdapter{repo: repos.Campsites},
		AssignedSites: assignedSiteAdapter{repo: repos.AssignedSites},
		Reservations:  reservationAdapter{repo: repos.Reservations},
		WaitingList:   waitingListAdapter{repo: repos.WaitingList},
	}
}

type transactor struct {
	backend persistence.Transactor
}

func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	return t.backend.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return fn(ctx, adaptRepositories(repos))
	})
}

type campsiteAdapter struct {
	repo persistence.CampsiteRepository
}

func (a campsiteAdapter) CreateCampsite(ctx context.Context, campsite application.Campsite) (application.Campsite, error) {
	if err := a.repo.CreateCampsite(ctx, toPersistenceCampsite(campsite)); err != nil {
		return application.Campsite{}, err
	}
	return a.GetCampsite(ctx, campsite.ID)
}

func (a campsiteAdapter) UpdateCampsite(ctx context.Context, campsite application.Campsite) (application.Campsite, error) {
	if err := a.repo.UpdateCampsite(ctx, toPersistenceCampsite(campsite)); err != nil {
		return application.Campsite{}, err
	}
	return a.GetCampsite(ctx, campsite.ID)
}

func (a campsiteAdapter) GetCampsite(ctx context.Context, id string) (application.Campsite, error) {
	stored, err := a.repo.GetCampsite(ctx, id)
	if err != nil {
		return application.Campsite{}, err
	}
	return toApplicationCampsite(stored), nil
}

func (a campsiteAdapter) GetCampsiteByName(ctx context.Context, name string) (application.Campsite, error) {
	stored, err := a.repo.GetCampsiteByName(ctx, name)
	if err != nil {
		return application.Campsite{}, err
	}
	return toApplicationCampsite(stored), nil
}

func (a campsiteAdapter) ListCampsites(ctx context.Context) ([]application.Campsite, error) {
	models, err := a.repo.ListCampsites(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationCampsite), nil
}

func (a campsiteAdapter) ListCampsitesByType(ctx context.Context, siteType application.SiteType) ([]application.Campsite, error) {
	models, err := a.repo.ListCampsitesByType(ctx, string(siteType))
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationCampsite), nil
}

func (a campsiteAdapter) DeleteCampsite(ctx context.Context, id string) error {
	return a.repo.DeleteCampsite(ctx, id)
}

type assignedSiteAdapter struct {
	repo persistence.AssignedSiteRepository
}

func (a assignedSiteAdapter) CreateAssignedSite(ctx context.Context, site application.AssignedSite) (application.AssignedSite, error) {
	if err := a.repo.CreateAssignedSite(ctx, toPersistenceAssignedSite(site)); err != nil {
		return application.AssignedSite{}, err
	}
	return a.GetAssignedSite(ctx, site.ID)
}

func (a assignedSiteAdapter) UpdateAssignedSite(ctx context.Context, site application.AssignedSite) (application.AssignedSite, error) {
	if err := a.repo.UpdateAssignedSite(ctx, toPersistenceAssignedSite(site)); err != nil {
		return application.AssignedSite{}, err
	}
	return a.GetAssignedSite(ctx, site.ID)
}

func (a assignedSiteAdapter) GetAssignedSite(ctx context.Context, id string) (application.AssignedSite, error) {
	stored, err := a.repo.GetAssignedSite(ctx, id)
	if err != nil {
		return application.AssignedSite{}, err
	}
	return toApplicationAssignedSite(stored), nil
}

func (a assignedSiteAdapter) ListAssignedSites(ctx context.Context) ([]application.AssignedSite, error) {
	models, err := a.repo.ListAssignedSites(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationAssignedSite), nil
}

func (a assignedSiteAdapter) ListAssignedSitesByReservation(ctx context.Context, reservationID string) ([]application.AssignedSite, error) {
	models, err := a.repo.ListAssignedSitesByReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationAssignedSite), nil
}

func (a assignedSiteAdapter) ListAssignedSitesByCampsite(ctx context.Context, campsiteID string) ([]application.AssignedSite, error) {
	models, err := a.repo.ListAssignedSitesByCampsite(ctx, campsiteID)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationAssignedSite), nil
}

func (a assignedSiteAdapter) DeleteAssignedSite(ctx context.Context, id string) error {
	return a.repo.DeleteAssignedSite(ctx, id)
}

type reservationAdapter struct {
	repo persistence.ReservationRepository
}

func (a reservationAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a reservationAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a reservationAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a reservationAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a reservationAdapter) ListReservationsByCustomer(ctx context.Context, customerID string) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationReservation), nil
}

func (a reservationAdapter) ListReservationsInRange(ctx context.Context, start, end time.Time) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationReservation), nil
}

type waitingListAdapter struct {
	repo persistence.WaitingListRepository
}

func (a waitingListAdapter) CreateWaitingListEntry(ctx context.Context, entry application.WaitingListEntry) (application.WaitingListEntry, error) {
	if err := a.repo.CreateWaitingListEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.WaitingListEntry{}, err
	}
	return a.GetWaitingListEntry(ctx, entry.ID)
}

func (a waitingListAdapter) UpdateWaitingListEntry(ctx context.Context, entry application.WaitingListEntry) (application.WaitingListEntry, error) {
	if err := a.repo.UpdateWaitingListEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.WaitingListEntry{}, err
	}
	return a.GetWaitingListEntry(ctx, entry.ID)
}

func (a waitingListAdapter) GetWaitingListEntry(ctx context.Context, id string) (application.WaitingListEntry, error) {
	stored, err := a.repo.GetWaitingListEntry(ctx, id)
	if err != nil {
		return application.WaitingListEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a waitingListAdapter) DeleteWaitingListEntry(ctx context.Context, id string) error {
	return a.repo.DeleteWaitingListEntry(ctx, id)
}

func (a waitingListAdapter) ListWaitingListEntries(ctx context.Context) ([]application.WaitingListEntry, error) {
	models, err := a.repo.ListWaitingListEntries(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationEntry), nil
}

func (a waitingListAdapter) ListWaitingListEntriesByCustomer(ctx context.Context, customerID string) ([]application.WaitingListEntry, error) {
	models, err := a.repo.ListWaitingListEntriesByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationEntry), nil
}

type ratesAdapter struct {
	repo persistence.YearlyRatesRepository
}

func (a ratesAdapter) UpsertYearlyRates(ctx context.Context, rates application.YearlyRates) (application.YearlyRates, error) {
	if err := a.repo.UpsertYearlyRates(ctx, toPersistenceRates(rates)); err != nil {
		return application.YearlyRates{}, err
	}
	return a.GetYearlyRates(ctx, rates.Year)
}

func (a ratesAdapter) GetYearlyRates(ctx context.Context, year int) (application.YearlyRates, error) {
	stored, err := a.repo.GetYearlyRates(ctx, year)
	if err != nil {
		return application.YearlyRates{}, err
	}
	return toApplicationRates(stored), nil
}

func (a ratesAdapter) ListYearlyRates(ctx context.Context) ([]application.YearlyRates, error) {
	models, err := a.repo.ListYearlyRates(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(models, toApplicationRates), nil
}

func (a ratesAdapter) DeleteYearlyRates(ctx context.Context, year int) error {
	return a.repo.DeleteYearlyRates(ctx, year)
}
