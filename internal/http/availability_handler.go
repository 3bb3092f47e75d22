package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/interval"
)

type availabilityService interface {
	CheckAvailability(ctx context.Context, params application.AvailabilityParams) ([]application.Campsite, error)
	IsSiteAvailable(ctx context.Context, campsiteID string, stay interval.Interval) (bool, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewAvailabilityHandler interprets date-only stays in loc.
func NewAvailabilityHandler(service availabilityService, loc *time.Location, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

// Check answers GET /availability.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stay, err := stayFromQuery(query).toInterval(h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	params := application.AvailabilityParams{Stay: stay}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		siteType := application.SiteType(raw)
		params.Type = &siteType
	}
	if raw := strings.TrimSpace(query.Get("serving")); raw != "" {
		serving, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"serving": "must be true or false"},
			})
			return
		}
		params.ServingStayOnly = serving
	}

	campsites, err := h.service.CheckAvailability(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Stay:      toStayDTO(stay),
		Campsites: toCampsiteDTOs(campsites),
	})
}

// CheckCampsite answers GET /campsites/{id}/availability.
func (h *AvailabilityHandler) CheckCampsite(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	stay, err := stayFromQuery(r.URL.Query()).toInterval(h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	available, err := h.service.IsSiteAvailable(r.Context(), id, stay)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "AvailabilityHandler", "CheckCampsite", "campsite_id", id).
		DebugContext(r.Context(), "campsite availability answered", "available", available)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campsiteAvailabilityResponse{
		CampsiteID: id,
		Stay:       toStayDTO(stay),
		Available:  available,
	})
}

type availabilityResponse struct {
	Stay      stayDTO       `json:"stay"`
	Campsites []campsiteDTO `json:"campsites"`
}

type campsiteAvailabilityResponse struct {
	CampsiteID string  `json:"campsite_id"`
	Stay       stayDTO `json:"stay"`
	Available  bool    `json:"available"`
}
