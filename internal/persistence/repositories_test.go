package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
	"github.com/example/campground/internal/testfixtures"
)

// Both backends must honour the same contract; the application layer relies
// on identical error classification from either.
var backends = map[string]func(t *testing.T) persistence.Store{
	"memory": func(t *testing.T) persistence.Store { return testfixtures.NewMemoryStore(t) },
	"sqlite": func(t *testing.T) persistence.Store { return testfixtures.NewSQLiteHarness(t).Storage },
	"sqlite-sydney": func(t *testing.T) persistence.Store {
		return testfixtures.NewSQLiteHarnessIn(t, testfixtures.LoadLocation(t, "Australia/Sydney")).Storage
	},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, store persistence.Store)) {
	t.Helper()
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fn(t, open(t))
		})
	}
}

func newPersistenceCampsite(opts ...testfixtures.CampsiteOption) persistence.Campsite {
	return testfixtures.NewCampsiteFixture(opts...).Persistence()
}

func newPersistenceReservation(opts ...testfixtures.ReservationOption) persistence.Reservation {
	return testfixtures.NewReservationFixture(opts...).Persistence()
}

func TestCampsiteRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		campsite := newPersistenceCampsite(
			testfixtures.WithCampsiteName("Lakeside-1"),
			testfixtures.WithCampsiteType(application.SiteTypeWeekly),
			testfixtures.WithCampsiteNotes("near the water"),
		)
		if err := store.CreateCampsite(ctx, campsite); err != nil {
			t.Fatalf("CreateCampsite failed: %v", err)
		}

		fetched, err := store.GetCampsite(ctx, campsite.ID)
		if err != nil {
			t.Fatalf("GetCampsite failed: %v", err)
		}
		if fetched.Name != "Lakeside-1" || fetched.SiteType != "weekly" || fetched.Notes == nil || *fetched.Notes != "near the water" {
			t.Fatalf("unexpected campsite data: %#v", fetched)
		}
		if !fetched.CreatedAt.Equal(campsite.CreatedAt) {
			t.Fatalf("expected CreatedAt %v, got %v", campsite.CreatedAt, fetched.CreatedAt)
		}

		byName, err := store.GetCampsiteByName(ctx, "LAKESIDE-1")
		if err != nil || byName.ID != campsite.ID {
			t.Fatalf("expected case-insensitive lookup to find %s, got %#v (%v)", campsite.ID, byName, err)
		}

		duplicate := newPersistenceCampsite(testfixtures.WithCampsiteName("lakeside-1"))
		if err := store.CreateCampsite(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused name, got %v", err)
		}

		campsite.Notes = nil
		campsite.Number = 99
		campsite.UpdatedAt = campsite.UpdatedAt.Add(time.Hour)
		if err := store.UpdateCampsite(ctx, campsite); err != nil {
			t.Fatalf("UpdateCampsite failed: %v", err)
		}
		fetched, err = store.GetCampsite(ctx, campsite.ID)
		if err != nil || fetched.Number != 99 || fetched.Notes != nil {
			t.Fatalf("unexpected updated campsite: %#v (%v)", fetched, err)
		}

		daily := newPersistenceCampsite(testfixtures.WithCampsiteName("Lakeside-2"))
		if err := store.CreateCampsite(ctx, daily); err != nil {
			t.Fatalf("CreateCampsite failed: %v", err)
		}
		weekly, err := store.ListCampsitesByType(ctx, "weekly")
		if err != nil || len(weekly) != 1 || weekly[0].ID != campsite.ID {
			t.Fatalf("expected only the weekly campsite, got %#v (%v)", weekly, err)
		}
		all, err := store.ListCampsites(ctx)
		if err != nil || len(all) != 2 || all[0].ID != campsite.ID {
			t.Fatalf("expected two campsites ordered by name, got %#v (%v)", all, err)
		}

		if err := store.DeleteCampsite(ctx, daily.ID); err != nil {
			t.Fatalf("DeleteCampsite failed: %v", err)
		}
		if _, err := store.GetCampsite(ctx, daily.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteCampsite(ctx, daily.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
		}
		if err := store.UpdateCampsite(ctx, daily); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound updating missing campsite, got %v", err)
		}
	})
}

func TestReservationRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		early := newPersistenceReservation(
			testfixtures.WithReservationCustomer("cust-a"),
			testfixtures.WithReservationStay(testfixtures.Stay(5, 7)),
			testfixtures.WithReservationDeposit(3500),
		)
		late := newPersistenceReservation(
			testfixtures.WithReservationCustomer("cust-a"),
			testfixtures.WithReservationStay(testfixtures.Stay(10, 14)),
		)
		for _, r := range []persistence.Reservation{late, early} {
			if err := store.CreateReservation(ctx, r); err != nil {
				t.Fatalf("CreateReservation failed: %v", err)
			}
		}

		fetched, err := store.GetReservation(ctx, early.ID)
		if err != nil {
			t.Fatalf("GetReservation failed: %v", err)
		}
		if !fetched.ArrivalAt.Equal(early.ArrivalAt) || !fetched.DepartureAt.Equal(early.DepartureAt) || fetched.DepositCents != 3500 {
			t.Fatalf("unexpected reservation data: %#v", fetched)
		}

		byCustomer, err := store.ListReservationsByCustomer(ctx, "cust-a")
		if err != nil || len(byCustomer) != 2 || byCustomer[0].ID != early.ID {
			t.Fatalf("expected both reservations ordered by arrival, got %#v (%v)", byCustomer, err)
		}

		// 7 March 09:00 is the early departure, so a window starting there
		// does not touch it.
		window := testfixtures.Stay(7, 11)
		inRange, err := store.ListReservationsInRange(ctx, early.DepartureAt, window.End)
		if err != nil || len(inRange) != 1 || inRange[0].ID != late.ID {
			t.Fatalf("expected only the late reservation in range, got %#v (%v)", inRange, err)
		}

		invalid := newPersistenceReservation(testfixtures.WithReservationSites(1, 2))
		if err := store.CreateReservation(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation for over-assigned reservation, got %v", err)
		}

		if err := store.DeleteReservation(ctx, late.ID); err != nil {
			t.Fatalf("DeleteReservation failed: %v", err)
		}
		if err := store.DeleteReservation(ctx, late.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
		}
	})
}

func TestStayNightsSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	sydney := testfixtures.LoadLocation(t, "Australia/Sydney")
	stores := map[string]func(t *testing.T) persistence.Store{
		"memory": func(t *testing.T) persistence.Store { return testfixtures.NewMemoryStore(t) },
		"sqlite": func(t *testing.T) persistence.Store { return testfixtures.NewSQLiteHarnessIn(t, sydney).Storage },
	}
	stay, err := interval.ForStay(
		time.Date(2021, time.July, 3, 0, 0, 0, 0, sydney),
		time.Date(2021, time.July, 10, 0, 0, 0, 0, sydney),
		sydney,
	)
	if err != nil {
		t.Fatalf("failed to build stay: %v", err)
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := open(t)

			campsite := newPersistenceCampsite(testfixtures.WithCampsiteType(application.SiteTypeWeekly))
			reservation := newPersistenceReservation(testfixtures.WithReservationStay(stay))
			if err := store.CreateCampsite(ctx, campsite); err != nil {
				t.Fatalf("CreateCampsite failed: %v", err)
			}
			if err := store.CreateReservation(ctx, reservation); err != nil {
				t.Fatalf("CreateReservation failed: %v", err)
			}
			site := testfixtures.NewAssignedSiteFixture(reservation.ID, campsite.ID, testfixtures.WithAssignedSiteStay(stay)).Persistence()
			if err := store.CreateAssignedSite(ctx, site); err != nil {
				t.Fatalf("CreateAssignedSite failed: %v", err)
			}

			fetched, err := store.GetReservation(ctx, reservation.ID)
			if err != nil {
				t.Fatalf("GetReservation failed: %v", err)
			}
			if got := (interval.Interval{Start: fetched.ArrivalAt, End: fetched.DepartureAt}).Nights(); got != 7 {
				t.Fatalf("expected 7 reservation nights after reload, got %d", got)
			}
			bound, err := store.GetAssignedSite(ctx, site.ID)
			if err != nil {
				t.Fatalf("GetAssignedSite failed: %v", err)
			}
			if got := (interval.Interval{Start: bound.ArrivalAt, End: bound.DepartureAt}).Nights(); got != 7 {
				t.Fatalf("expected 7 binding nights after reload, got %d", got)
			}
			if !bound.ArrivalAt.Equal(stay.Start) || !bound.DepartureAt.Equal(stay.End) {
				t.Fatalf("expected the stored instants back, got %s..%s", bound.ArrivalAt, bound.DepartureAt)
			}
		})
	}
}

func TestAssignedSiteRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		campsite := newPersistenceCampsite()
		reservation := newPersistenceReservation(testfixtures.WithReservationSites(2, 0))
		if err := store.CreateCampsite(ctx, campsite); err != nil {
			t.Fatalf("CreateCampsite failed: %v", err)
		}
		if err := store.CreateReservation(ctx, reservation); err != nil {
			t.Fatalf("CreateReservation failed: %v", err)
		}

		site := testfixtures.NewAssignedSiteFixture(reservation.ID, campsite.ID, testfixtures.WithAssignedSiteLocked(true)).Persistence()
		if err := store.CreateAssignedSite(ctx, site); err != nil {
			t.Fatalf("CreateAssignedSite failed: %v", err)
		}

		fetched, err := store.GetAssignedSite(ctx, site.ID)
		if err != nil || !fetched.Locked || fetched.CheckedIn || !fetched.ArrivalAt.Equal(site.ArrivalAt) {
			t.Fatalf("unexpected assigned site: %#v (%v)", fetched, err)
		}

		site.CheckedIn = true
		if err := store.UpdateAssignedSite(ctx, site); err != nil {
			t.Fatalf("UpdateAssignedSite failed: %v", err)
		}
		byCampsite, err := store.ListAssignedSitesByCampsite(ctx, campsite.ID)
		if err != nil || len(byCampsite) != 1 || !byCampsite[0].CheckedIn {
			t.Fatalf("expected one checked-in binding, got %#v (%v)", byCampsite, err)
		}
		byReservation, err := store.ListAssignedSitesByReservation(ctx, reservation.ID)
		if err != nil || len(byReservation) != 1 {
			t.Fatalf("expected one binding for reservation, got %#v (%v)", byReservation, err)
		}

		orphan := testfixtures.NewAssignedSiteFixture(reservation.ID, "no-such-campsite").Persistence()
		if err := store.CreateAssignedSite(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation for unknown campsite, got %v", err)
		}

		if err := store.DeleteCampsite(ctx, campsite.ID); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation deleting referenced campsite, got %v", err)
		}
		if err := store.DeleteReservation(ctx, reservation.ID); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation deleting referenced reservation, got %v", err)
		}

		if err := store.DeleteAssignedSite(ctx, site.ID); err != nil {
			t.Fatalf("DeleteAssignedSite failed: %v", err)
		}
		all, err := store.ListAssignedSites(ctx)
		if err != nil || len(all) != 0 {
			t.Fatalf("expected no bindings, got %#v (%v)", all, err)
		}
	})
}

func TestWaitingListRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		entry := testfixtures.NewWaitingEntryFixture(testfixtures.WithWaitingEntryPriority(true), testfixtures.WithWaitingEntrySites(3)).Persistence()
		if err := store.CreateWaitingListEntry(ctx, entry); err != nil {
			t.Fatalf("CreateWaitingListEntry failed: %v", err)
		}
		if err := store.CreateWaitingListEntry(ctx, entry); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused id, got %v", err)
		}

		fetched, err := store.GetWaitingListEntry(ctx, entry.ID)
		if err != nil || !fetched.Priority || fetched.Sites != 3 || fetched.Nights != 2 {
			t.Fatalf("unexpected entry: %#v (%v)", fetched, err)
		}

		entry.Sites = 1
		if err := store.UpdateWaitingListEntry(ctx, entry); err != nil {
			t.Fatalf("UpdateWaitingListEntry failed: %v", err)
		}
		list, err := store.ListWaitingListEntries(ctx)
		if err != nil || len(list) != 1 || list[0].Sites != 1 {
			t.Fatalf("expected updated entry, got %#v (%v)", list, err)
		}

		later := testfixtures.NewWaitingEntryFixture(testfixtures.WithWaitingEntryCustomer(entry.CustomerID)).Persistence()
		other := testfixtures.NewWaitingEntryFixture(testfixtures.WithWaitingEntryCustomer("someone-else")).Persistence()
		for _, e := range []persistence.WaitingListEntry{other, later} {
			if err := store.CreateWaitingListEntry(ctx, e); err != nil {
				t.Fatalf("CreateWaitingListEntry failed: %v", err)
			}
		}
		mine, err := store.ListWaitingListEntriesByCustomer(ctx, entry.CustomerID)
		if err != nil || len(mine) != 2 || mine[0].ID != entry.ID || mine[1].ID != later.ID {
			t.Fatalf("expected the customer's two entries ordered by creation, got %#v (%v)", mine, err)
		}
		none, err := store.ListWaitingListEntriesByCustomer(ctx, "nobody")
		if err != nil || len(none) != 0 {
			t.Fatalf("expected no entries for unknown customer, got %#v (%v)", none, err)
		}

		invalid := testfixtures.NewWaitingEntryFixture(testfixtures.WithWaitingEntrySites(0)).Persistence()
		if err := store.CreateWaitingListEntry(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation for zero sites, got %v", err)
		}

		if err := store.DeleteWaitingListEntry(ctx, entry.ID); err != nil {
			t.Fatalf("DeleteWaitingListEntry failed: %v", err)
		}
		if _, err := store.GetWaitingListEntry(ctx, entry.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestYearlyRatesRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()
		updated := testfixtures.ReferenceTime()

		if _, err := store.GetYearlyRates(ctx, 2021); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before upsert, got %v", err)
		}

		rates := testfixtures.PersistenceRates(testfixtures.NewRates(2021), updated)
		if err := store.UpsertYearlyRates(ctx, rates); err != nil {
			t.Fatalf("UpsertYearlyRates failed: %v", err)
		}
		rates.DailyRate = 4000
		if err := store.UpsertYearlyRates(ctx, rates); err != nil {
			t.Fatalf("second UpsertYearlyRates failed: %v", err)
		}
		if err := store.UpsertYearlyRates(ctx, testfixtures.PersistenceRates(testfixtures.NewRates(2020), updated)); err != nil {
			t.Fatalf("UpsertYearlyRates 2020 failed: %v", err)
		}

		fetched, err := store.GetYearlyRates(ctx, 2021)
		if err != nil || fetched.DailyRate != 4000 || fetched.OpeningDate == nil || !fetched.OpeningDate.Equal(*rates.OpeningDate) {
			t.Fatalf("unexpected rates: %#v (%v)", fetched, err)
		}

		all, err := store.ListYearlyRates(ctx)
		if err != nil || len(all) != 2 || all[0].Year != 2020 || all[1].Year != 2021 {
			t.Fatalf("expected rows ordered by year, got %#v (%v)", all, err)
		}

		if err := store.DeleteYearlyRates(ctx, 2020); err != nil {
			t.Fatalf("DeleteYearlyRates failed: %v", err)
		}
		if _, err := store.GetYearlyRates(ctx, 2020); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteYearlyRates(ctx, 2020); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
		}
		all, err = store.ListYearlyRates(ctx)
		if err != nil || len(all) != 1 || all[0].Year != 2021 {
			t.Fatalf("expected only 2021 left, got %#v (%v)", all, err)
		}
	})
}

func TestWithinTransactionRollsBack(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()
		campsite := newPersistenceCampsite()
		boom := errors.New("boom")

		err := store.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
			if err := repos.Campsites.CreateCampsite(ctx, campsite); err != nil {
				return err
			}
			if _, err := repos.Campsites.GetCampsite(ctx, campsite.ID); err != nil {
				t.Errorf("expected write visible inside the transaction, got %v", err)
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected fn error returned, got %v", err)
		}
		if _, err := store.GetCampsite(ctx, campsite.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected rollback to discard campsite, got %v", err)
		}

		err = store.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
			return repos.Campsites.CreateCampsite(ctx, campsite)
		})
		if err != nil {
			t.Fatalf("expected commit, got %v", err)
		}
		if _, err := store.GetCampsite(ctx, campsite.ID); err != nil {
			t.Fatalf("expected committed campsite, got %v", err)
		}
	})
}
