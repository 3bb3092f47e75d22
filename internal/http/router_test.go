package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/campground/internal/testfixtures"
)

const testToken = "campground-test-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := testfixtures.NewServiceFactory(testfixtures.WithLogger(logger))
	services := factory.NewServices(testfixtures.NewMemoryStore(t), testfixtures.ServicesDeps{})

	hash, err := HashToken(testToken, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	verifier, err := NewBcryptTokenVerifier(hash)
	if err != nil {
		t.Fatalf("NewBcryptTokenVerifier failed: %v", err)
	}

	return NewRouter(RouterConfig{
		Availability: NewAvailabilityHandler(services.Availability, nil, logger),
		Campsites:    NewCampsiteHandler(services.Campsites, logger),
		Assignments:  NewAssignmentHandler(services.Assignments, services.Reservations, nil, logger),
		Reservations: NewReservationHandler(services.Reservations, services.Assignments, nil, logger),
		Waitlist:     NewWaitlistHandler(services.Waitlist, nil, logger),
		Fees:         NewFeeHandler(services.Fees, factory.Clock.NowFunc(), nil, logger),
		Verifier:     verifier,
		Logger:       logger,
	})
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, status int) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, recorder.Code, recorder.Body.String())
	}
}

func createCampsite(t *testing.T, router http.Handler, name string) string {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/campsites", map[string]any{"name": name, "type": "daily"})
	expectStatus(t, rec, http.StatusCreated)
	return decodeBody[campsiteResponse](t, rec).Campsite.ID
}

func createReservation(t *testing.T, router http.Handler, arrival, departure string) reservationDTO {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/reservations", map[string]any{
		"customer_id":     "customer-1",
		"stay":            map[string]string{"arrival": arrival, "departure": departure},
		"sites_requested": 1,
	})
	expectStatus(t, rec, http.StatusCreated)
	return decodeBody[reservationResponse](t, rec).Reservation
}

func TestRouterAuthentication(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	t.Run("health check needs no token", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		expectStatus(t, rec, http.StatusOK)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campsites", nil))
		expectStatus(t, rec, http.StatusUnauthorized)
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("expected bearer challenge, got %q", rec.Header().Get("WWW-Authenticate"))
		}
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/campsites", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, router, http.MethodGet, "/campsites", nil)
		expectStatus(t, rec, http.StatusOK)
	})
}

func TestRouterAssignmentFlow(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	campsiteID := createCampsite(t, router, "A1")
	first := createReservation(t, router, "2021-03-05", "2021-03-07")
	overlapping := createReservation(t, router, "2021-03-06", "2021-03-08")
	adjacent := createReservation(t, router, "2021-03-07", "2021-03-09")

	rec := doRequest(t, router, http.MethodPost, "/assignments", map[string]any{
		"reservation_id": first.ID,
		"campsite_id":    campsiteID,
	})
	expectStatus(t, rec, http.StatusCreated)
	assignment := decodeBody[assignmentResponse](t, rec).Assignment
	if assignment.Stay.Start != "2021-03-05T14:00:00Z" || assignment.Stay.End != "2021-03-07T09:00:00Z" {
		t.Fatalf("expected reservation stay to be used, got %+v", assignment.Stay)
	}

	rec = doRequest(t, router, http.MethodPost, "/assignments", map[string]any{
		"reservation_id": overlapping.ID,
		"campsite_id":    campsiteID,
	})
	expectStatus(t, rec, http.StatusConflict)
	conflict := decodeBody[errorResponse](t, rec)
	if conflict.ErrorCode != "site_conflict" {
		t.Fatalf("expected site_conflict, got %q", conflict.ErrorCode)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0] != assignment.ID {
		t.Fatalf("expected conflict with %s, got %v", assignment.ID, conflict.Conflicts)
	}

	rec = doRequest(t, router, http.MethodPost, "/assignments", map[string]any{
		"reservation_id": adjacent.ID,
		"campsite_id":    campsiteID,
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = doRequest(t, router, http.MethodGet, "/availability?arrival=2021-03-05&departure=2021-03-06", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[availabilityResponse](t, rec); len(got.Campsites) != 0 {
		t.Fatalf("expected no free campsites, got %d", len(got.Campsites))
	}

	for i := 0; i < 2; i++ {
		rec = doRequest(t, router, http.MethodDelete, "/assignments/"+assignment.ID, nil)
		expectStatus(t, rec, http.StatusNoContent)
	}

	rec = doRequest(t, router, http.MethodGet, "/campsites/"+campsiteID+"/availability?arrival=2021-03-05&departure=2021-03-06", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[campsiteAvailabilityResponse](t, rec); !got.Available {
		t.Fatalf("expected campsite to be free after release")
	}

	rec = doRequest(t, router, http.MethodGet, "/campsites/"+campsiteID+"/assignments", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[listAssignmentsResponse](t, rec); len(got.Assignments) != 1 {
		t.Fatalf("expected one remaining assignment, got %d", len(got.Assignments))
	}
}

func TestRouterFeesRequireYearlyRates(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	reservation := createReservation(t, router, "2021-03-05", "2021-03-07")

	rec := doRequest(t, router, http.MethodGet, "/reservations/"+reservation.ID+"/fees", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeBody[errorResponse](t, rec); got.ErrorCode != "no_yearly_rates" {
		t.Fatalf("expected no_yearly_rates, got %q", got.ErrorCode)
	}

	rates := testfixtures.NewRates(2021)
	rec = doRequest(t, router, http.MethodPut, "/yearly-rates/2021", ratesDTO{
		DailyRate:              rates.DailyRate,
		WeeklyRate:             rates.WeeklyRate,
		MonthlyRate:            rates.MonthlyRate,
		SeasonalRate:           rates.SeasonalRate,
		NightlyCancellationFee: rates.NightlyCancellationFee,
		WeeklyCancellationFee:  rates.WeeklyCancellationFee,
		MonthlyCancellationFee: rates.MonthlyCancellationFee,
		OpeningDate:            "2021-04-15",
		ClosingDate:            "2021-10-15",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[ratesResponse](t, rec); got.YearlyRates.Year != 2021 || got.YearlyRates.OpeningDate != "2021-04-15" {
		t.Fatalf("unexpected stored rates: %+v", got.YearlyRates)
	}

	rec = doRequest(t, router, http.MethodGet, "/reservations/"+reservation.ID+"/fees", nil)
	expectStatus(t, rec, http.StatusOK)
	quote := decodeBody[quoteDTO](t, rec)
	if quote.StayChargeCents != 7000 || quote.Nights != 2 {
		t.Fatalf("expected 2 nights charged 7000, got %d nights charged %d", quote.Nights, quote.StayChargeCents)
	}

	rec = doRequest(t, router, http.MethodPut, "/yearly-rates/2021", ratesDTO{DailyRate: -1})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if got := decodeBody[errorResponse](t, rec); got.Errors["daily_rate"] == "" {
		t.Fatalf("expected daily_rate error, got %v", got.Errors)
	}
}

func TestRouterWaitlistPromotion(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	createCampsite(t, router, "B1")
	rec := doRequest(t, router, http.MethodPost, "/waitlist", map[string]any{
		"customer_id": "customer-9",
		"sites":       2,
		"stay":        map[string]string{"arrival": "2021-03-05", "departure": "2021-03-07"},
	})
	expectStatus(t, rec, http.StatusCreated)
	entry := decodeBody[waitingEntryResponse](t, rec).Entry

	rec = doRequest(t, router, http.MethodPost, "/waitlist/promote-next", nil)
	expectStatus(t, rec, http.StatusConflict)
	if got := decodeBody[errorResponse](t, rec); got.ErrorCode != "unsatisfiable" {
		t.Fatalf("expected unsatisfiable, got %q", got.ErrorCode)
	}

	rec = doRequest(t, router, http.MethodPost, "/waitlist/promote-all", nil)
	expectStatus(t, rec, http.StatusOK)
	report := decodeBody[promotionReportDTO](t, rec)
	if len(report.Unsatisfiable) != 1 || report.Unsatisfiable[0] != entry.ID || len(report.Promoted) != 0 {
		t.Fatalf("unexpected sweep report: %+v", report)
	}

	rec = doRequest(t, router, http.MethodPut, "/waitlist/"+entry.ID, map[string]any{
		"customer_id": "customer-9",
		"sites":       1,
		"stay":        map[string]string{"arrival": "2021-03-05", "departure": "2021-03-07"},
	})
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, router, http.MethodPost, "/waitlist/promote-next", nil)
	expectStatus(t, rec, http.StatusCreated)
	promoted := decodeBody[reservationResponse](t, rec).Reservation
	if promoted.SitesAssigned != 1 || promoted.DepositCents != 0 {
		t.Fatalf("expected one assigned site and no deposit, got %+v", promoted)
	}

	rec = doRequest(t, router, http.MethodGet, "/waitlist", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[listWaitingEntriesResponse](t, rec); len(got.Entries) != 0 {
		t.Fatalf("expected empty waiting list, got %d entries", len(got.Entries))
	}
}

func TestRouterWaitlistByCustomer(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	for _, customer := range []string{"customer-1", "customer-2", "customer-1"} {
		rec := doRequest(t, router, http.MethodPost, "/waitlist", map[string]any{
			"customer_id": customer,
			"sites":       1,
			"stay":        map[string]string{"arrival": "2021-03-05", "departure": "2021-03-07"},
		})
		expectStatus(t, rec, http.StatusCreated)
	}

	rec := doRequest(t, router, http.MethodGet, "/waitlist?customer_id=customer-1", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[listWaitingEntriesResponse](t, rec)
	if len(got.Entries) != 2 {
		t.Fatalf("expected two entries for customer-1, got %d", len(got.Entries))
	}
	for _, entry := range got.Entries {
		if entry.CustomerID != "customer-1" {
			t.Fatalf("expected only customer-1 entries, got %+v", entry)
		}
	}

	rec = doRequest(t, router, http.MethodGet, "/waitlist", nil)
	expectStatus(t, rec, http.StatusOK)
	if all := decodeBody[listWaitingEntriesResponse](t, rec); len(all.Entries) != 3 {
		t.Fatalf("expected three entries without a filter, got %d", len(all.Entries))
	}
}

func TestRouterDeletesYearlyRates(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPut, "/yearly-rates/2021", ratesDTO{DailyRate: 3500})
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, router, http.MethodDelete, "/yearly-rates/2021", nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = doRequest(t, router, http.MethodGet, "/yearly-rates/2021", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = doRequest(t, router, http.MethodDelete, "/yearly-rates/2021", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeBody[errorResponse](t, rec); got.ErrorCode != "no_yearly_rates" {
		t.Fatalf("expected no_yearly_rates, got %q", got.ErrorCode)
	}

	rec = doRequest(t, router, http.MethodDelete, "/yearly-rates/zero", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestRouterRejectsMalformedInput(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	t.Run("body that is not JSON", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+testToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("unparsable dates", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, router, http.MethodPost, "/reservations", map[string]any{
			"customer_id":     "customer-1",
			"stay":            map[string]string{"arrival": "March 5", "departure": "2021-03-07"},
			"sites_requested": 1,
		})
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		if got := decodeBody[errorResponse](t, rec); got.Errors["arrival"] == "" {
			t.Fatalf("expected arrival error, got %v", got.Errors)
		}
	})

	t.Run("inverted stay", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, router, http.MethodGet, "/availability?arrival=2021-03-07&departure=2021-03-05", nil)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		if got := decodeBody[errorResponse](t, rec); got.ErrorCode != "invalid_interval" {
			t.Fatalf("expected invalid_interval, got %q", got.ErrorCode)
		}
	})

	t.Run("reservation listing without a filter", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, router, http.MethodGet, "/reservations", nil)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, router, http.MethodDelete, "/reservations/missing", nil)
		expectStatus(t, rec, http.StatusNotFound)
	})
}
