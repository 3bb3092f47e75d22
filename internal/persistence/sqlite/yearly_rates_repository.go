package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/campground/internal/persistence"
)

const yearlyRatesColumns = `year, daily_rate, weekly_rate, monthly_rate, seasonal_rate,
	nightly_cancellation_fee, weekly_cancellation_fee, monthly_cancellation_fee,
	early_check_in_fee_per_hour, late_stay_fee_per_hour, nightly_visitor_fee, daily_visitor_fee,
	seasonal_visitor_pass, electrical_rate_per_kwh, opening_date, closing_date, updated_at`

// UpsertYearlyRates inserts or replaces the row for rates.Year.
func (r repositories) UpsertYearlyRates(ctx context.Context, rates persistence.YearlyRates) error {
	return r.exec(ctx, false, `
		INSERT INTO yearly_rates (`+yearlyRatesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			daily_rate = excluded.daily_rate,
			weekly_rate = excluded.weekly_rate,
			monthly_rate = excluded.monthly_rate,
			seasonal_rate = excluded.seasonal_rate,
			nightly_cancellation_fee = excluded.nightly_cancellation_fee,
			weekly_cancellation_fee = excluded.weekly_cancellation_fee,
			monthly_cancellation_fee = excluded.monthly_cancellation_fee,
			early_check_in_fee_per_hour = excluded.early_check_in_fee_per_hour,
			late_stay_fee_per_hour = excluded.late_stay_fee_per_hour,
			nightly_visitor_fee = excluded.nightly_visitor_fee,
			daily_visitor_fee = excluded.daily_visitor_fee,
			seasonal_visitor_pass = excluded.seasonal_visitor_pass,
			electrical_rate_per_kwh = excluded.electrical_rate_per_kwh,
			opening_date = excluded.opening_date,
			closing_date = excluded.closing_date,
			updated_at = excluded.updated_at`,
		rates.Year,
		rates.DailyRate,
		rates.WeeklyRate,
		rates.MonthlyRate,
		rates.SeasonalRate,
		rates.NightlyCancellationFee,
		rates.WeeklyCancellationFee,
		rates.MonthlyCancellationFee,
		rates.EarlyCheckInFeePerHour,
		rates.LateStayFeePerHour,
		rates.NightlyVisitorFee,
		rates.DailyVisitorFee,
		rates.SeasonalVisitorPass,
		rates.ElectricalRatePerKWh,
		nullableTime(rates.OpeningDate),
		nullableTime(rates.ClosingDate),
		formatTime(rates.UpdatedAt),
	)
}

// GetYearlyRates retrieves the row for year.
func (r repositories) GetYearlyRates(ctx context.Context, year int) (persistence.YearlyRates, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+yearlyRatesColumns+` FROM yearly_rates WHERE year = ?`, year)
	return r.scanYearlyRates(row)
}

// ListYearlyRates returns every row ordered by year.
func (r repositories) ListYearlyRates(ctx context.Context) ([]persistence.YearlyRates, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+yearlyRatesColumns+` FROM yearly_rates ORDER BY year`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.YearlyRates, 0)
	for rows.Next() {
		rates, err := r.scanYearlyRates(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rates)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// DeleteYearlyRates removes the row for year.
func (r repositories) DeleteYearlyRates(ctx context.Context, year int) error {
	return r.exec(ctx, true, `DELETE FROM yearly_rates WHERE year = ?`, year)
}

func (r repositories) scanYearlyRates(row rowScanner) (persistence.YearlyRates, error) {
	var (
		rates            persistence.YearlyRates
		opening, closing sql.NullString
		updatedAt        string
	)
	err := row.Scan(
		&rates.Year,
		&rates.DailyRate,
		&rates.WeeklyRate,
		&rates.MonthlyRate,
		&rates.SeasonalRate,
		&rates.NightlyCancellationFee,
		&rates.WeeklyCancellationFee,
		&rates.MonthlyCancellationFee,
		&rates.EarlyCheckInFeePerHour,
		&rates.LateStayFeePerHour,
		&rates.NightlyVisitorFee,
		&rates.DailyVisitorFee,
		&rates.SeasonalVisitorPass,
		&rates.ElectricalRatePerKWh,
		&opening,
		&closing,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.YearlyRates{}, persistence.ErrNotFound
		}
		return persistence.YearlyRates{}, fmt.Errorf("sqlite: scan yearly rates: %w", err)
	}
	if rates.OpeningDate, err = timePtr(opening, r.loc); err != nil {
		return persistence.YearlyRates{}, err
	}
	if rates.ClosingDate, err = timePtr(closing, r.loc); err != nil {
		return persistence.YearlyRates{}, err
	}
	if rates.UpdatedAt, err = parseTime(updatedAt, r.loc); err != nil {
		return persistence.YearlyRates{}, err
	}
	return rates, nil
}
