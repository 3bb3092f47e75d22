// Package fees computes deposits, stay charges, and cancellation fees from a
// yearly rate row. Every function is pure: the caller selects the row for the
// relevant calendar year and passes the current time explicitly.
//
// All amounts are integer cents.
package fees

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/campground/internal/interval"
)

var (
	// ErrMissingRate is returned when the rate row lacks a rate the computation needs.
	ErrMissingRate = errors.New("fees: rate missing from yearly row")
	// ErrInvalidSites is returned for a non-positive site count.
	ErrInvalidSites = errors.New("fees: site count must be positive")
)

const (
	WeekNights   = 7
	MonthNights  = 30
	SeasonNights = 90

	// SeasonalDepositPercent is the share of the seasonal rate taken as deposit.
	SeasonalDepositPercent = 25
)

// Rates is one yearly information row.
type Rates struct {
	Year int

	DailyRate    int64
	WeeklyRate   int64
	MonthlyRate  int64
	SeasonalRate int64

	NightlyCancellationFee int64
	WeeklyCancellationFee  int64
	MonthlyCancellationFee int64

	EarlyCheckInFeePerHour int64
	LateStayFeePerHour     int64

	NightlyVisitorFee   int64
	DailyVisitorFee     int64
	SeasonalVisitorPass int64

	ElectricalRatePerKWh int64

	OpeningDate time.Time
	ClosingDate time.Time
}

// StayClass buckets a stay by length.
type StayClass string

const (
	ClassDaily    StayClass = "daily"
	ClassWeekly   StayClass = "weekly"
	ClassMonthly  StayClass = "monthly"
	ClassSeasonal StayClass = "seasonal"
)

// ClassifyStay returns the class of a stay of the given number of nights.
func ClassifyStay(nights int) StayClass {
	switch {
	case nights >= SeasonNights:
		return ClassSeasonal
	case nights >= MonthNights:
		return ClassMonthly
	case nights >= WeekNights:
		return ClassWeekly
	default:
		return ClassDaily
	}
}

// StayCharge prices a stay for the given number of sites. Longer classes are
// billed in whole units with the remainder at the next shorter rate.
func StayCharge(r Rates, stay interval.Interval, sites int) (int64, error) {
	if err := checkInputs(stay, sites); err != nil {
		return 0, err
	}
	nights := stay.Nights()

	var perSite int64
	switch ClassifyStay(nights) {
	case ClassSeasonal:
		if r.SeasonalRate <= 0 {
			return 0, fmt.Errorf("%w: seasonal rate", ErrMissingRate)
		}
		perSite = r.SeasonalRate
	case ClassMonthly:
		months := nights / MonthNights
		amount, err := weeksAndDays(r, nights%MonthNights)
		if err != nil {
			return 0, err
		}
		if r.MonthlyRate <= 0 {
			return 0, fmt.Errorf("%w: monthly rate", ErrMissingRate)
		}
		perSite = int64(months)*r.MonthlyRate + amount
	default:
		amount, err := weeksAndDays(r, nights)
		if err != nil {
			return 0, err
		}
		perSite = amount
	}
	return perSite * int64(sites), nil
}

func weeksAndDays(r Rates, nights int) (int64, error) {
	weeks := nights / WeekNights
	days := nights % WeekNights
	var total int64
	if weeks > 0 {
		if r.WeeklyRate <= 0 {
			return 0, fmt.Errorf("%w: weekly rate", ErrMissingRate)
		}
		total += int64(weeks) * r.WeeklyRate
	}
	if days > 0 {
		if r.DailyRate <= 0 {
			return 0, fmt.Errorf("%w: daily rate", ErrMissingRate)
		}
		total += int64(days) * r.DailyRate
	}
	return total, nil
}

// Deposit is one unit of the stay's class per site; seasonal stays put down
// SeasonalDepositPercent of the seasonal rate.
func Deposit(r Rates, stay interval.Interval, sites int) (int64, error) {
	if err := checkInputs(stay, sites); err != nil {
		return 0, err
	}

	var perSite int64
	var name string
	switch ClassifyStay(stay.Nights()) {
	case ClassSeasonal:
		perSite, name = r.SeasonalRate*SeasonalDepositPercent/100, "seasonal rate"
	case ClassMonthly:
		perSite, name = r.MonthlyRate, "monthly rate"
	case ClassWeekly:
		perSite, name = r.WeeklyRate, "weekly rate"
	default:
		perSite, name = r.DailyRate, "daily rate"
	}
	if perSite <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingRate, name)
	}
	return perSite * int64(sites), nil
}

// CancellationFee is the class cancellation fee per site. Cancelling on or
// after arrival forfeits at least the deposit.
func CancellationFee(r Rates, stay interval.Interval, sites int, deposit int64, now time.Time) (int64, error) {
	if err := checkInputs(stay, sites); err != nil {
		return 0, err
	}

	var perSite int64
	switch ClassifyStay(stay.Nights()) {
	case ClassDaily:
		perSite = r.NightlyCancellationFee
	case ClassWeekly:
		perSite = r.WeeklyCancellationFee
	default:
		perSite = r.MonthlyCancellationFee
	}
	if perSite < 0 {
		return 0, fmt.Errorf("%w: cancellation fee is negative", ErrMissingRate)
	}

	fee := perSite * int64(sites)
	if !now.Before(stay.Start) && deposit > fee {
		fee = deposit
	}
	return fee, nil
}

// EarlyCheckInFee charges each started hour between actualArrival and the
// scheduled arrival.
func EarlyCheckInFee(r Rates, stay interval.Interval, actualArrival time.Time) int64 {
	if !actualArrival.Before(stay.Start) {
		return 0
	}
	return startedHours(stay.Start.Sub(actualArrival)) * r.EarlyCheckInFeePerHour
}

// LateStayFee charges each started hour between the scheduled departure and
// actualDeparture.
func LateStayFee(r Rates, stay interval.Interval, actualDeparture time.Time) int64 {
	if !actualDeparture.After(stay.End) {
		return 0
	}
	return startedHours(actualDeparture.Sub(stay.End)) * r.LateStayFeePerHour
}

// VisitorFee prices day or overnight visitors.
func VisitorFee(r Rates, visitors int, overnight bool) int64 {
	if visitors <= 0 {
		return 0
	}
	if overnight {
		return int64(visitors) * r.NightlyVisitorFee
	}
	return int64(visitors) * r.DailyVisitorFee
}

// ElectricalCharge prices metered consumption.
func ElectricalCharge(r Rates, kwh int64) int64 {
	if kwh <= 0 {
		return 0
	}
	return kwh * r.ElectricalRatePerKWh
}

// InSeason reports whether the stay lies within the row's opening and closing
// dates. Rows without dates accept every stay.
func InSeason(r Rates, stay interval.Interval) bool {
	if !r.OpeningDate.IsZero() && stay.Start.Before(r.OpeningDate) {
		return false
	}
	if !r.ClosingDate.IsZero() && stay.End.After(r.ClosingDate.Add(24*time.Hour)) {
		return false
	}
	return true
}

func startedHours(d time.Duration) int64 {
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

func checkInputs(stay interval.Interval, sites int) error {
	if err := stay.Validate(); err != nil {
		return err
	}
	if sites <= 0 {
		return ErrInvalidSites
	}
	return nil
}
