package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campground/internal/fees"
)

// FeeService selects the yearly rate row for a reservation and delegates the
// arithmetic to the fees package.
type FeeService struct {
	rates        YearlyRatesRepository
	reservations ReservationRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewFeeService constructs a fee service.
func NewFeeService(rates YearlyRatesRepository, reservations ReservationRepository, now func() time.Time) *FeeService {
	return NewFeeServiceWithLogger(rates, reservations, now, nil)
}

// NewFeeServiceWithLogger constructs a fee service with a specified logger.
func NewFeeServiceWithLogger(rates YearlyRatesRepository, reservations ReservationRepository, now func() time.Time, logger *slog.Logger) *FeeService {
	if now == nil {
		now = time.Now
	}
	return &FeeService{rates: rates, reservations: reservations, now: now, logger: defaultLogger(logger)}
}

func (s *FeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeeService", operation, attrs...)
}

// Quote prices a reservation using the rate row for the year of its arrival.
func (s *FeeService) Quote(ctx context.Context, reservationID string, now time.Time) (quote fees.Quote, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Quote", "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to quote reservation", ErrNoYearlyRates)
			return
		}
		logger.DebugContext(ctx, "reservation quoted", "year", quote.Year, "stay_charge", quote.StayCharge)
	}()

	var reservation Reservation
	reservation, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var rates YearlyRates
	rates, err = s.RatesFor(ctx, reservation.Stay.Start)
	if err != nil {
		return
	}

	quote, err = fees.QuoteStay(rates.Rates, reservation.Stay, reservation.SitesRequested, reservation.DepositCents, now)
	err = mapFeesError(err)
	return
}

// RatesFor returns the row for the calendar year containing t.
func (s *FeeService) RatesFor(ctx context.Context, t time.Time) (YearlyRates, error) {
	year := t.Year()
	rates, err := s.rates.GetYearlyRates(ctx, year)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return YearlyRates{}, fmt.Errorf("%w %d", ErrNoYearlyRates, year)
		}
		return YearlyRates{}, err
	}
	return rates, nil
}

// UpsertYearlyRates creates or replaces the row for rates.Year.
func (s *FeeService) UpsertYearlyRates(ctx context.Context, rates fees.Rates) (row YearlyRates, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpsertYearlyRates", "year", rates.Year)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to store yearly rates")
			return
		}
		logger.InfoContext(ctx, "yearly rates stored")
	}()

	if vErr := validateRates(rates); vErr.HasErrors() {
		err = vErr
		return
	}

	row, err = s.rates.UpsertYearlyRates(ctx, YearlyRates{Rates: rates, UpdatedAt: s.now()})
	err = mapRepoError(err)
	return
}

// GetYearlyRates returns the row for one year.
func (s *FeeService) GetYearlyRates(ctx context.Context, year int) (YearlyRates, error) {
	rates, err := s.rates.GetYearlyRates(ctx, year)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("%w %d", ErrNoYearlyRates, year)
		}
	}
	return rates, err
}

// ListYearlyRates returns every row ordered by year.
func (s *FeeService) ListYearlyRates(ctx context.Context) ([]YearlyRates, error) {
	rows, err := s.rates.ListYearlyRates(ctx)
	return rows, mapRepoError(err)
}

// DeleteYearlyRates removes the row for one year. A missing row reports
// false with no error.
func (s *FeeService) DeleteYearlyRates(ctx context.Context, year int) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("FeeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteYearlyRates", "year", year)
	if err := s.rates.DeleteYearlyRates(ctx, year); err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		logger.ErrorContext(ctx, "failed to delete yearly rates", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "yearly rates deleted")
	return true, nil
}

func validateRates(r fees.Rates) *ValidationError {
	vErr := &ValidationError{}
	if r.Year <= 0 {
		vErr.add("year", "year must be positive")
	}
	for field, value := range map[string]int64{
		"daily_rate":                  r.DailyRate,
		"weekly_rate":                 r.WeeklyRate,
		"monthly_rate":                r.MonthlyRate,
		"seasonal_rate":               r.SeasonalRate,
		"nightly_cancellation_fee":    r.NightlyCancellationFee,
		"weekly_cancellation_fee":     r.WeeklyCancellationFee,
		"monthly_cancellation_fee":    r.MonthlyCancellationFee,
		"early_check_in_fee_per_hour": r.EarlyCheckInFeePerHour,
		"late_stay_fee_per_hour":      r.LateStayFeePerHour,
		"nightly_visitor_fee":         r.NightlyVisitorFee,
		"daily_visitor_fee":           r.DailyVisitorFee,
		"seasonal_visitor_pass":       r.SeasonalVisitorPass,
		"electrical_rate_per_kwh":     r.ElectricalRatePerKWh,
	} {
		if value < 0 {
			vErr.add(field, "cannot be negative")
		}
	}
	if !r.OpeningDate.IsZero() && !r.ClosingDate.IsZero() && !r.OpeningDate.Before(r.ClosingDate) {
		vErr.add("closing_date", "closing date must follow opening date")
	}
	return vErr
}

// mapFeesError reports a rate missing from the row as a validation problem
// on that row.
func mapFeesError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fees.ErrMissingRate) {
		vErr := &ValidationError{}
		vErr.add("rates", err.Error())
		return vErr
	}
	if errors.Is(err, fees.ErrInvalidSites) {
		vErr := &ValidationError{}
		vErr.add("sites_requested", err.Error())
		return vErr
	}
	return err
}
