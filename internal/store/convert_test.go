package store

import (
	"testing"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/fees"
	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

func TestCampsiteConversion(t *testing.T) {
	t.Parallel()

	t.Run("blank notes are stored as null", func(t *testing.T) {
		t.Parallel()
		stored := toPersistenceCampsite(application.Campsite{ID: "c1", Type: application.SiteTypeWeekly, Notes: "   "})
		if stored.Notes != nil {
			t.Fatalf("expected nil notes, got %q", *stored.Notes)
		}
		if stored.SiteType != "weekly" {
			t.Fatalf("expected weekly site type, got %q", stored.SiteType)
		}
	})

	t.Run("notes are trimmed", func(t *testing.T) {
		t.Parallel()
		stored := toPersistenceCampsite(application.Campsite{ID: "c1", Notes: " shade "})
		if stored.Notes == nil || *stored.Notes != "shade" {
			t.Fatalf("expected trimmed notes, got %v", stored.Notes)
		}
		if back := toApplicationCampsite(stored); back.Notes != "shade" {
			t.Fatalf("expected notes back, got %q", back.Notes)
		}
	})

	t.Run("site type is parsed case-insensitively", func(t *testing.T) {
		t.Parallel()
		if got := toApplicationCampsite(persistence.Campsite{SiteType: "Monthly"}).Type; got != application.SiteTypeMonthly {
			t.Fatalf("expected monthly, got %q", got)
		}
	})

	t.Run("unknown site type is kept as stored", func(t *testing.T) {
		t.Parallel()
		if got := toApplicationCampsite(persistence.Campsite{SiteType: "glamping"}).Type; got != "glamping" {
			t.Fatalf("expected raw site type kept, got %q", got)
		}
	})
}

func TestStayConversion(t *testing.T) {
	t.Parallel()

	stay := interval.Interval{
		Start: time.Date(2021, time.March, 5, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2021, time.March, 7, 9, 0, 0, 0, time.UTC),
	}

	site := toApplicationAssignedSite(toPersistenceAssignedSite(application.AssignedSite{
		ID:         "a1",
		CampsiteID: "c1",
		Stay:       stay,
		Locked:     true,
		CheckedIn:  true,
	}))
	if !site.Stay.Equal(stay) || !site.Locked || !site.CheckedIn {
		t.Fatalf("expected binding fields kept, got %+v", site)
	}

	reservation := toPersistenceReservation(application.Reservation{ID: "r1", Stay: stay, SitesRequested: 2})
	if !reservation.ArrivalAt.Equal(stay.Start) || !reservation.DepartureAt.Equal(stay.End) || reservation.Notes != nil {
		t.Fatalf("unexpected reservation record: %+v", reservation)
	}

	entry := toApplicationEntry(toPersistenceEntry(application.WaitingListEntry{ID: "w1", Stay: stay, Nights: 2, Priority: true}))
	if !entry.Stay.Equal(stay) || entry.Nights != 2 || !entry.Priority || entry.Notes != "" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestRatesConversion(t *testing.T) {
	t.Parallel()

	t.Run("unset season dates are stored as null", func(t *testing.T) {
		t.Parallel()
		stored := toPersistenceRates(application.YearlyRates{Rates: fees.Rates{Year: 2021, DailyRate: 3500}})
		if stored.OpeningDate != nil || stored.ClosingDate != nil {
			t.Fatalf("expected nil season dates, got %v %v", stored.OpeningDate, stored.ClosingDate)
		}
		back := toApplicationRates(stored)
		if !back.OpeningDate.IsZero() || !back.ClosingDate.IsZero() || back.DailyRate != 3500 {
			t.Fatalf("unexpected rates back: %+v", back)
		}
	})

	t.Run("season dates survive", func(t *testing.T) {
		t.Parallel()
		opening := time.Date(2021, time.April, 15, 0, 0, 0, 0, time.UTC)
		closing := time.Date(2021, time.October, 15, 0, 0, 0, 0, time.UTC)
		back := toApplicationRates(toPersistenceRates(application.YearlyRates{
			Rates: fees.Rates{Year: 2021, OpeningDate: opening, ClosingDate: closing},
		}))
		if !back.OpeningDate.Equal(opening) || !back.ClosingDate.Equal(closing) {
			t.Fatalf("expected season dates kept, got %s..%s", back.OpeningDate, back.ClosingDate)
		}
	})
}

func TestConvertAll(t *testing.T) {
	t.Parallel()

	if got := convertAll([]persistence.Campsite{}, toApplicationCampsite); got != nil {
		t.Fatalf("expected nil for no records, got %#v", got)
	}
	got := convertAll([]persistence.Campsite{{ID: "b"}, {ID: "a"}}, toApplicationCampsite)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected order kept, got %#v", got)
	}
}
