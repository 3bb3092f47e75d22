package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/fees"
)

type feeService interface {
	Quote(ctx context.Context, reservationID string, now time.Time) (fees.Quote, error)
	UpsertYearlyRates(ctx context.Context, rates fees.Rates) (application.YearlyRates, error)
	GetYearlyRates(ctx context.Context, year int) (application.YearlyRates, error)
	ListYearlyRates(ctx context.Context) ([]application.YearlyRates, error)
	DeleteYearlyRates(ctx context.Context, year int) (bool, error)
}

type FeeHandler struct {
	service   feeService
	now       func() time.Time
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewFeeHandler builds the fee and yearly-rate endpoints. Rate dates are
// interpreted in loc.
func NewFeeHandler(service feeService, now func() time.Time, loc *time.Location, logger *slog.Logger) *FeeHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FeeHandler{service: service, now: now, location: loc, responder: newResponder(base), logger: base}
}

// Quote answers GET /reservations/{id}/fees.
func (h *FeeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	quote, err := h.service.Quote(r.Context(), id, h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "FeeHandler", "Quote", "reservation_id", id).
		DebugContext(r.Context(), "fees quoted", "balance_due", quote.BalanceDue)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toQuoteDTO(id, quote))
}

func (h *FeeHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListYearlyRates(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]ratesDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRatesDTO(row))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRatesResponse{YearlyRates: out})
}

func (h *FeeHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	row, err := h.service.GetYearlyRates(r.Context(), year)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ratesResponse{YearlyRates: toRatesDTO(row)})
}

// PutRates answers PUT /yearly-rates/{year}; the path year wins over the body.
func (h *FeeHandler) PutRates(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	var req ratesDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	rates, err := req.toRates(year, h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	row, err := h.service.UpsertYearlyRates(r.Context(), rates)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "FeeHandler", "PutRates", "year", year).InfoContext(r.Context(), "yearly rates stored")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ratesResponse{YearlyRates: toRatesDTO(row)})
}

// DeleteRates answers DELETE /yearly-rates/{year}.
func (h *FeeHandler) DeleteRates(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.DeleteYearlyRates(r.Context(), year)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !deleted {
		h.responder.handleServiceError(r.Context(), w, fmt.Errorf("%w %d", application.ErrNoYearlyRates, year))
		return
	}

	handlerLogger(r.Context(), h.logger, "FeeHandler", "DeleteRates", "year", year).InfoContext(r.Context(), "yearly rates deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *FeeHandler) year(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(pathValue(r, "year"))
	if err != nil || year <= 0 {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"year": "must be a positive integer"},
		})
		return 0, false
	}
	return year, true
}

type quoteDTO struct {
	ReservationID        string         `json:"reservation_id"`
	Year                 int            `json:"year"`
	Class                string         `json:"class"`
	Nights               int            `json:"nights"`
	Sites                int            `json:"sites"`
	StayChargeCents      int64          `json:"stay_charge_cents"`
	DepositCents         int64          `json:"deposit_cents"`
	CancellationFeeCents int64          `json:"cancellation_fee_cents"`
	BalanceDueCents      int64          `json:"balance_due_cents"`
	Lines                []quoteLineDTO `json:"lines"`
}

type quoteLineDTO struct {
	Label string `json:"label"`
	Cents int64  `json:"cents"`
}

func toQuoteDTO(reservationID string, q fees.Quote) quoteDTO {
	lines := make([]quoteLineDTO, 0, len(q.Lines))
	for _, line := range q.Lines {
		lines = append(lines, quoteLineDTO{Label: line.Label, Cents: line.Cents})
	}
	return quoteDTO{
		ReservationID:        reservationID,
		Year:                 q.Year,
		Class:                string(q.Class),
		Nights:               q.Nights,
		Sites:                q.Sites,
		StayChargeCents:      q.StayCharge,
		DepositCents:         q.Deposit,
		CancellationFeeCents: q.CancellationFee,
		BalanceDueCents:      q.BalanceDue,
		Lines:                lines,
	}
}

type ratesResponse struct {
	YearlyRates ratesDTO `json:"yearly_rates"`
}

type listRatesResponse struct {
	YearlyRates []ratesDTO `json:"yearly_rates"`
}

// ratesDTO carries every amount in cents.
type ratesDTO struct {
	Year                   int    `json:"year"`
	DailyRate              int64  `json:"daily_rate"`
	WeeklyRate             int64  `json:"weekly_rate"`
	MonthlyRate            int64  `json:"monthly_rate"`
	SeasonalRate           int64  `json:"seasonal_rate"`
	NightlyCancellationFee int64  `json:"nightly_cancellation_fee"`
	WeeklyCancellationFee  int64  `json:"weekly_cancellation_fee"`
	MonthlyCancellationFee int64  `json:"monthly_cancellation_fee"`
	EarlyCheckInFeePerHour int64  `json:"early_check_in_fee_per_hour"`
	LateStayFeePerHour     int64  `json:"late_stay_fee_per_hour"`
	NightlyVisitorFee      int64  `json:"nightly_visitor_fee"`
	DailyVisitorFee        int64  `json:"daily_visitor_fee"`
	SeasonalVisitorPass    int64  `json:"seasonal_visitor_pass"`
	ElectricalRatePerKWh   int64  `json:"electrical_rate_per_kwh"`
	OpeningDate            string `json:"opening_date,omitempty"`
	ClosingDate            string `json:"closing_date,omitempty"`
	UpdatedAt              string `json:"updated_at,omitempty"`
}

func (d ratesDTO) toRates(year int, loc *time.Location) (fees.Rates, error) {
	rates := fees.Rates{
		Year:                   year,
		DailyRate:              d.DailyRate,
		WeeklyRate:             d.WeeklyRate,
		MonthlyRate:            d.MonthlyRate,
		SeasonalRate:           d.SeasonalRate,
		NightlyCancellationFee: d.NightlyCancellationFee,
		WeeklyCancellationFee:  d.WeeklyCancellationFee,
		MonthlyCancellationFee: d.MonthlyCancellationFee,
		EarlyCheckInFeePerHour: d.EarlyCheckInFeePerHour,
		LateStayFeePerHour:     d.LateStayFeePerHour,
		NightlyVisitorFee:      d.NightlyVisitorFee,
		DailyVisitorFee:        d.DailyVisitorFee,
		SeasonalVisitorPass:    d.SeasonalVisitorPass,
		ElectricalRatePerKWh:   d.ElectricalRatePerKWh,
	}

	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	parse := func(field, value string) time.Time {
		if value == "" {
			return time.Time{}
		}
		t, err := time.ParseInLocation(dateLayout, value, loc)
		if err != nil {
			vErr.FieldErrors[field] = "must be a date (YYYY-MM-DD)"
		}
		return t
	}
	rates.OpeningDate = parse("opening_date", d.OpeningDate)
	rates.ClosingDate = parse("closing_date", d.ClosingDate)
	if vErr.HasErrors() {
		return fees.Rates{}, vErr
	}
	return rates, nil
}

func toRatesDTO(row application.YearlyRates) ratesDTO {
	formatDate := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	}
	return ratesDTO{
		Year:                   row.Year,
		DailyRate:              row.DailyRate,
		WeeklyRate:             row.WeeklyRate,
		MonthlyRate:            row.MonthlyRate,
		SeasonalRate:           row.SeasonalRate,
		NightlyCancellationFee: row.NightlyCancellationFee,
		WeeklyCancellationFee:  row.WeeklyCancellationFee,
		MonthlyCancellationFee: row.MonthlyCancellationFee,
		EarlyCheckInFeePerHour: row.EarlyCheckInFeePerHour,
		LateStayFeePerHour:     row.LateStayFeePerHour,
		NightlyVisitorFee:      row.NightlyVisitorFee,
		DailyVisitorFee:        row.DailyVisitorFee,
		SeasonalVisitorPass:    row.SeasonalVisitorPass,
		ElectricalRatePerKWh:   row.ElectricalRatePerKWh,
		OpeningDate:            formatDate(row.OpeningDate),
		ClosingDate:            formatDate(row.ClosingDate),
		UpdatedAt:              formatTime(row.UpdatedAt),
	}
}
