package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Availability *AvailabilityHandler
	Campsites    *CampsiteHandler
	Assignments  *AssignmentHandler
	Reservations *ReservationHandler
	Waitlist     *WaitlistHandler
	Fees         *FeeHandler

	// Verifier guards every route but /healthz. Nil disables authentication.
	Verifier TokenVerifier
	Health   HealthCheck
	Logger   *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	root := mux.NewRouter()

	root.HandleFunc("/healthz", healthHandler(cfg.Health, logger)).Methods(http.MethodGet)

	api := root.NewRoute().Subrouter()
	if cfg.Verifier != nil {
		api.Use(mux.MiddlewareFunc(RequireToken(cfg.Verifier, logger)))
	}

	if h := cfg.Availability; h != nil {
		api.HandleFunc("/availability", h.Check).Methods(http.MethodGet)
		api.HandleFunc("/campsites/{id}/availability", h.CheckCampsite).Methods(http.MethodGet)
	}

	if h := cfg.Campsites; h != nil {
		api.HandleFunc("/campsites", h.List).Methods(http.MethodGet)
		api.HandleFunc("/campsites", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/campsites/{id}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/campsites/{id}", h.Update).Methods(http.MethodPut)
		api.HandleFunc("/campsites/{id}", h.Delete).Methods(http.MethodDelete)
	}

	if h := cfg.Assignments; h != nil {
		api.HandleFunc("/assignments", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/assignments/{id}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/assignments/{id}", h.Update).Methods(http.MethodPut)
		api.HandleFunc("/assignments/{id}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/assignments/{id}/check-in", h.CheckIn).Methods(http.MethodPut)
		api.HandleFunc("/campsites/{id}/assignments", h.ListForCampsite).Methods(http.MethodGet)
		api.HandleFunc("/reservations/{id}/assignments", h.ListForReservation).Methods(http.MethodGet)
	}

	if h := cfg.Reservations; h != nil {
		api.HandleFunc("/reservations", h.List).Methods(http.MethodGet)
		api.HandleFunc("/reservations", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/reservations/{id}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/reservations/{id}", h.Update).Methods(http.MethodPut)
		api.HandleFunc("/reservations/{id}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/reservations/{id}/stay", h.Reschedule).Methods(http.MethodPut)
		api.HandleFunc("/reservations/{id}/reconcile", h.Reconcile).Methods(http.MethodPost)
	}

	if h := cfg.Fees; h != nil {
		api.HandleFunc("/reservations/{id}/fees", h.Quote).Methods(http.MethodGet)
		api.HandleFunc("/yearly-rates", h.ListRates).Methods(http.MethodGet)
		api.HandleFunc("/yearly-rates/{year}", h.GetRates).Methods(http.MethodGet)
		api.HandleFunc("/yearly-rates/{year}", h.PutRates).Methods(http.MethodPut)
		api.HandleFunc("/yearly-rates/{year}", h.DeleteRates).Methods(http.MethodDelete)
	}

	if h := cfg.Waitlist; h != nil {
		// fixed paths first so they are not taken as entry ids
		api.HandleFunc("/waitlist/promote-next", h.PromoteNext).Methods(http.MethodPost)
		api.HandleFunc("/waitlist/promote-all", h.PromoteAll).Methods(http.MethodPost)
		api.HandleFunc("/waitlist", h.List).Methods(http.MethodGet)
		api.HandleFunc("/waitlist", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/waitlist/{id}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/waitlist/{id}", h.Update).Methods(http.MethodPut)
		api.HandleFunc("/waitlist/{id}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/waitlist/{id}/promote", h.Promote).Methods(http.MethodPost)
	}

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
		handlers.PrintRecoveryStack(false),
	)
	return RequestLogger(logger)(recovery(root))
}

func healthHandler(check HealthCheck, logger *slog.Logger) http.HandlerFunc {
	responder := newResponder(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "health check failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
