package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/interval"
)

type reservationService interface {
	CreateReservation(ctx context.Context, input application.ReservationInput) (application.Reservation, error)
	UpdateReservation(ctx context.Context, reservationID string, input application.ReservationInput) (application.Reservation, error)
	RescheduleReservation(ctx context.Context, reservationID string, stay interval.Interval) (application.ReassignReport, error)
	DeleteReservation(ctx context.Context, reservationID string) (bool, error)
	GetReservation(ctx context.Context, reservationID string) (application.Reservation, error)
	ListReservationsByCustomer(ctx context.Context, customerID string) ([]application.Reservation, error)
	ListReservationsInRange(ctx context.Context, window interval.Interval) ([]application.Reservation, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, reservationID string) (application.Reservation, error)
}

type ReservationHandler struct {
	service    reservationService
	reconciler reconciler
	location   *time.Location
	responder  responder
	logger     *slog.Logger
}

func NewReservationHandler(service reservationService, reconciler reconciler, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationHandler{
		service:    service,
		reconciler: reconciler,
		location:   loc,
		responder:  newResponder(base),
		logger:     base,
	}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.CreateReservation(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.UpdateReservation(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "reservation_id", id).InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// Reschedule answers PUT /reservations/{id}/stay.
func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	var req stayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	stay, err := req.toInterval(h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	report, err := h.service.RescheduleReservation(r.Context(), id, stay)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Reschedule", "reservation_id", id).
		InfoContext(r.Context(), "reservation rescheduled", "failed", report.Failed)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReassignReportDTO(report))
}

// Reconcile answers POST /reservations/{id}/reconcile.
func (h *ReservationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reconciler.Reconcile(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	deleted, err := h.service.DeleteReservation(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !deleted {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}

	h.log(r.Context(), "Delete", "reservation_id", id).InfoContext(r.Context(), "reservation deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.GetReservation(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// List requires either ?customer_id= or a stay window given as
// arrival/departure or start/end.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		reservations []application.Reservation
		err          error
	)
	if customerID := strings.TrimSpace(query.Get("customer_id")); customerID != "" {
		reservations, err = h.service.ListReservationsByCustomer(r.Context(), customerID)
	} else {
		window := stayFromQuery(query)
		if window.empty() {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"customer_id": "customer_id or a date window is required"},
			})
			return
		}
		var stay interval.Interval
		if stay, err = window.toInterval(h.location); err == nil {
			reservations, err = h.service.ListReservationsInRange(r.Context(), stay)
		}
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) decodeInput(w http.ResponseWriter, r *http.Request) (application.ReservationInput, bool) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return application.ReservationInput{}, false
	}
	stay, err := req.Stay.toInterval(h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.ReservationInput{}, false
	}
	return application.ReservationInput{
		CustomerID:     strings.TrimSpace(req.CustomerID),
		Stay:           stay,
		SitesRequested: req.SitesRequested,
		DepositCents:   req.DepositCents,
		Notes:          strings.TrimSpace(req.Notes),
	}, true
}

type reservationRequest struct {
	CustomerID     string      `json:"customer_id"`
	Stay           stayRequest `json:"stay"`
	SitesRequested int         `json:"sites_requested"`
	DepositCents   *int64      `json:"deposit_cents"`
	Notes          string      `json:"notes"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID             string  `json:"id"`
	CustomerID     string  `json:"customer_id"`
	Stay           stayDTO `json:"stay"`
	SitesRequested int     `json:"sites_requested"`
	SitesAssigned  int     `json:"sites_assigned"`
	DepositCents   int64   `json:"deposit_cents"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toReservationDTO(r application.Reservation) reservationDTO {
	return reservationDTO{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		Stay:           toStayDTO(r.Stay),
		SitesRequested: r.SitesRequested,
		SitesAssigned:  r.SitesAssigned,
		DepositCents:   r.DepositCents,
		Notes:          r.Notes,
		CreatedAt:      formatTime(r.CreatedAt),
		UpdatedAt:      formatTime(r.UpdatedAt),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationDTO(r))
	}
	return out
}

type reassignReportDTO struct {
	ReservationID string               `json:"reservation_id"`
	Succeeded     int                  `json:"succeeded"`
	Failed        int                  `json:"failed"`
	SitesAssigned int                  `json:"sites_assigned"`
	Outcomes      []reassignOutcomeDTO `json:"outcomes"`
}

type reassignOutcomeDTO struct {
	AssignedSiteID string         `json:"assigned_site_id"`
	Assignment     *assignmentDTO `json:"assignment,omitempty"`
	Error          string         `json:"error,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
}

func toReassignReportDTO(report application.ReassignReport) reassignReportDTO {
	out := reassignReportDTO{
		ReservationID: report.ReservationID,
		Succeeded:     report.Succeeded,
		Failed:        report.Failed,
		SitesAssigned: report.SitesAssigned,
		Outcomes:      make([]reassignOutcomeDTO, 0, len(report.Outcomes)),
	}
	for _, outcome := range report.Outcomes {
		item := reassignOutcomeDTO{AssignedSiteID: outcome.AssignedSiteID}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
			item.ErrorKind = application.ErrorKind(outcome.Err)
		} else {
			dto := toAssignmentDTO(outcome.Site)
			item.Assignment = &dto
		}
		out.Outcomes = append(out.Outcomes, item)
	}
	return out
}
