package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campground/internal/application"
)

type assignmentService interface {
	Assign(ctx context.Context, params application.AssignParams) (application.AssignedSite, error)
	Release(ctx context.Context, assignedSiteID string) (bool, error)
	Reassign(ctx context.Context, params application.ReassignParams) (application.AssignedSite, error)
	SetCheckedIn(ctx context.Context, assignedSiteID string, checkedIn bool) (application.AssignedSite, error)
	GetAssignment(ctx context.Context, assignedSiteID string) (application.AssignedSite, error)
	ListForReservation(ctx context.Context, reservationID string) ([]application.AssignedSite, error)
	ListForCampsite(ctx context.Context, campsiteID string) ([]application.AssignedSite, error)
}

type reservationLookup interface {
	GetReservation(ctx context.Context, reservationID string) (application.Reservation, error)
}

type AssignmentHandler struct {
	service      assignmentService
	reservations reservationLookup
	location     *time.Location
	responder    responder
	logger       *slog.Logger
}

// NewAssignmentHandler builds the assignment endpoints. reservations supplies
// the default stay when a request omits one.
func NewAssignmentHandler(service assignmentService, reservations reservationLookup, loc *time.Location, logger *slog.Logger) *AssignmentHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &AssignmentHandler{
		service:      service,
		reservations: reservations,
		location:     loc,
		responder:    newResponder(base),
		logger:       base,
	}
}

func (h *AssignmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AssignmentHandler", operation, attrs...)
}

// Create answers POST /assignments.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.AssignParams{
		ReservationID: strings.TrimSpace(req.ReservationID),
		CampsiteID:    strings.TrimSpace(req.CampsiteID),
		CustomerID:    strings.TrimSpace(req.CustomerID),
		Lock:          req.Lock,
		DepositCents:  req.DepositCents,
	}
	if req.Stay.empty() {
		if h.reservations == nil || params.ReservationID == "" {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"stay": "stay is required"},
			})
			return
		}
		reservation, err := h.reservations.GetReservation(r.Context(), params.ReservationID)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		params.Stay = reservation.Stay
	} else {
		stay, err := req.Stay.toInterval(h.location)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		params.Stay = stay
	}

	site, err := h.service.Assign(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "assigned_site_id", site.ID, "campsite_id", site.CampsiteID).
		InfoContext(r.Context(), "assignment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, assignmentResponse{Assignment: toAssignmentDTO(site)})
}

// Update answers PUT /assignments/{id}. Omitted fields keep their values.
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.ReassignParams{
		AssignedSiteID: id,
		CampsiteID:     strings.TrimSpace(req.CampsiteID),
		Lock:           req.Lock,
	}
	if !req.Stay.empty() {
		stay, err := req.Stay.toInterval(h.location)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		params.Stay = stay
	}
	site, err := h.service.Reassign(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "assigned_site_id", site.ID, "campsite_id", site.CampsiteID).
		InfoContext(r.Context(), "assignment moved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(site)})
}

// Delete answers DELETE /assignments/{id}. Releasing twice is not an error.
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	released, err := h.service.Release(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "assigned_site_id", id).InfoContext(r.Context(), "assignment released", "released", released)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	site, err := h.service.GetAssignment(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(site)})
}

// CheckIn answers PUT /assignments/{id}/check-in.
func (h *AssignmentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	site, err := h.service.SetCheckedIn(r.Context(), pathValue(r, "id"), req.CheckedIn)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(site)})
}

// ListForReservation answers GET /reservations/{id}/assignments.
func (h *AssignmentHandler) ListForReservation(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListForReservation)
}

// ListForCampsite answers GET /campsites/{id}/assignments.
func (h *AssignmentHandler) ListForCampsite(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListForCampsite)
}

func (h *AssignmentHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]application.AssignedSite, error)) {
	sites, err := fetch(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAssignmentsResponse{Assignments: toAssignmentDTOs(sites)})
}

type assignRequest struct {
	ReservationID string      `json:"reservation_id"`
	CampsiteID    string      `json:"campsite_id"`
	CustomerID    string      `json:"customer_id"`
	Stay          stayRequest `json:"stay"`
	Lock          bool        `json:"lock"`
	DepositCents  int64       `json:"deposit_cents"`
}

type reassignRequest struct {
	CampsiteID string      `json:"campsite_id"`
	Stay       stayRequest `json:"stay"`
	Lock       *bool       `json:"lock"`
}

type checkInRequest struct {
	CheckedIn bool `json:"checked_in"`
}

type assignmentResponse struct {
	Assignment assignmentDTO `json:"assignment"`
}

type listAssignmentsResponse struct {
	Assignments []assignmentDTO `json:"assignments"`
}

type assignmentDTO struct {
	ID            string  `json:"id"`
	ReservationID string  `json:"reservation_id"`
	CustomerID    string  `json:"customer_id"`
	CampsiteID    string  `json:"campsite_id"`
	Stay          stayDTO `json:"stay"`
	Locked        bool    `json:"locked"`
	DepositCents  int64   `json:"deposit_cents"`
	CheckedIn     bool    `json:"checked_in"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toAssignmentDTO(site application.AssignedSite) assignmentDTO {
	return assignmentDTO{
		ID:            site.ID,
		ReservationID: site.ReservationID,
		CustomerID:    site.CustomerID,
		CampsiteID:    site.CampsiteID,
		Stay:          toStayDTO(site.Stay),
		Locked:        site.Locked,
		DepositCents:  site.DepositCents,
		CheckedIn:     site.CheckedIn,
		CreatedAt:     formatTime(site.CreatedAt),
		UpdatedAt:     formatTime(site.UpdatedAt),
	}
}

func toAssignmentDTOs(sites []application.AssignedSite) []assignmentDTO {
	out := make([]assignmentDTO, 0, len(sites))
	for _, site := range sites {
		out = append(out, toAssignmentDTO(site))
	}
	return out
}
