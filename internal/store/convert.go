package store

import (
	"strings"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/fees"
	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

func toPersistenceCampsite(c application.Campsite) persistence.Campsite {
	return persistence.Campsite{
		ID:              c.ID,
		Name:            c.Name,
		Section:         c.Section,
		Number:          c.Number,
		MaxLengthFeet:   c.MaxLengthFeet,
		WidthFeet:       c.WidthFeet,
		AcceptsSlideOut: c.AcceptsSlideOut,
		PullThrough:     c.PullThrough,
		SiteType:        string(c.Type),
		Notes:           optionalString(c.Notes),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toApplicationCampsite(c persistence.Campsite) application.Campsite {
	siteType, err := application.ParseSiteType(c.SiteType)
	if err != nil {
		siteType = application.SiteType(c.SiteType)
	}
	return application.Campsite{
		ID:              c.ID,
		Name:            c.Name,
		Section:         c.Section,
		Number:          c.Number,
		MaxLengthFeet:   c.MaxLengthFeet,
		WidthFeet:       c.WidthFeet,
		AcceptsSlideOut: c.AcceptsSlideOut,
		PullThrough:     c.PullThrough,
		Type:            siteType,
		Notes:           derefString(c.Notes),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toPersistenceAssignedSite(a application.AssignedSite) persistence.AssignedSite {
	return persistence.AssignedSite{
		ID:            a.ID,
		ReservationID: a.ReservationID,
		CustomerID:    a.CustomerID,
		CampsiteID:    a.CampsiteID,
		ArrivalAt:     a.Stay.Start,
		DepartureAt:   a.Stay.End,
		Locked:        a.Locked,
		DepositCents:  a.DepositCents,
		CheckedIn:     a.CheckedIn,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toApplicationAssignedSite(a persistence.AssignedSite) application.AssignedSite {
	return application.AssignedSite{
		ID:            a.ID,
		ReservationID: a.ReservationID,
		CustomerID:    a.CustomerID,
		CampsiteID:    a.CampsiteID,
		Stay:          interval.Interval{Start: a.ArrivalAt, End: a.DepartureAt},
		Locked:        a.Locked,
		DepositCents:  a.DepositCents,
		CheckedIn:     a.CheckedIn,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toPersistenceReservation(r application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		ArrivalAt:      r.Stay.Start,
		DepartureAt:    r.Stay.End,
		SitesRequested: r.SitesRequested,
		SitesAssigned:  r.SitesAssigned,
		DepositCents:   r.DepositCents,
		Notes:          optionalString(r.Notes),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toApplicationReservation(r persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		Stay:           interval.Interval{Start: r.ArrivalAt, End: r.DepartureAt},
		SitesRequested: r.SitesRequested,
		SitesAssigned:  r.SitesAssigned,
		DepositCents:   r.DepositCents,
		Notes:          derefString(r.Notes),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toPersistenceEntry(w application.WaitingListEntry) persistence.WaitingListEntry {
	return persistence.WaitingListEntry{
		ID:          w.ID,
		CustomerID:  w.CustomerID,
		Nights:      w.Nights,
		Sites:       w.Sites,
		RequestedOn: w.RequestedOn,
		ArrivalAt:   w.Stay.Start,
		DepartureAt: w.Stay.End,
		Priority:    w.Priority,
		Notes:       optionalString(w.Notes),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toApplicationEntry(w persistence.WaitingListEntry) application.WaitingListEntry {
	return application.WaitingListEntry{
		ID:          w.ID,
		CustomerID:  w.CustomerID,
		Nights:      w.Nights,
		Sites:       w.Sites,
		RequestedOn: w.RequestedOn,
		Stay:        interval.Interval{Start: w.ArrivalAt, End: w.DepartureAt},
		Priority:    w.Priority,
		Notes:       derefString(w.Notes),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toPersistenceRates(r application.YearlyRates) persistence.YearlyRates {
	return persistence.YearlyRates{
		Year:                   r.Year,
		DailyRate:              r.DailyRate,
		WeeklyRate:             r.WeeklyRate,
		MonthlyRate:            r.MonthlyRate,
		SeasonalRate:           r.SeasonalRate,
		NightlyCancellationFee: r.NightlyCancellationFee,
		WeeklyCancellationFee:  r.WeeklyCancellationFee,
		MonthlyCancellationFee: r.MonthlyCancellationFee,
		EarlyCheckInFeePerHour: r.EarlyCheckInFeePerHour,
		LateStayFeePerHour:     r.LateStayFeePerHour,
		NightlyVisitorFee:      r.NightlyVisitorFee,
		DailyVisitorFee:        r.DailyVisitorFee,
		SeasonalVisitorPass:    r.SeasonalVisitorPass,
		ElectricalRatePerKWh:   r.ElectricalRatePerKWh,
		OpeningDate:            optionalTime(r.OpeningDate),
		ClosingDate:            optionalTime(r.ClosingDate),
		UpdatedAt:              r.UpdatedAt,
	}
}

func toApplicationRates(r persistence.YearlyRates) application.YearlyRates {
	return application.YearlyRates{
		Rates: fees.Rates{
			Year:                   r.Year,
			DailyRate:              r.DailyRate,
			WeeklyRate:             r.WeeklyRate,
			MonthlyRate:            r.MonthlyRate,
			SeasonalRate:           r.SeasonalRate,
			NightlyCancellationFee: r.NightlyCancellationFee,
			WeeklyCancellationFee:  r.WeeklyCancellationFee,
			MonthlyCancellationFee: r.MonthlyCancellationFee,
			EarlyCheckInFeePerHour: r.EarlyCheckInFeePerHour,
			LateStayFeePerHour:     r.LateStayFeePerHour,
			NightlyVisitorFee:      r.NightlyVisitorFee,
			DailyVisitorFee:        r.DailyVisitorFee,
			SeasonalVisitorPass:    r.SeasonalVisitorPass,
			ElectricalRatePerKWh:   r.ElectricalRatePerKWh,
			OpeningDate:            derefTime(r.OpeningDate),
			ClosingDate:            derefTime(r.ClosingDate),
		},
		UpdatedAt: r.UpdatedAt,
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}

func convertAll[P, A any](models []P, convert func(P) A) []A {
	if len(models) == 0 {
		return nil
	}
	out := make([]A, 0, len(models))
	for _, model := range models {
		out = append(out, convert(model))
	}
	return out
}
