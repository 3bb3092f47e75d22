package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/campground/internal/application"
)

type campsiteService interface {
	CreateCampsite(ctx context.Context, input application.CampsiteInput) (application.Campsite, error)
	UpdateCampsite(ctx context.Context, campsiteID string, input application.CampsiteInput) (application.Campsite, error)
	DeleteCampsite(ctx context.Context, campsiteID string) (bool, error)
	GetCampsite(ctx context.Context, campsiteID string) (application.Campsite, error)
	ListCampsites(ctx context.Context, filter application.CampsiteFilter) ([]application.Campsite, error)
}

type CampsiteHandler struct {
	service   campsiteService
	responder responder
	logger    *slog.Logger
}

func NewCampsiteHandler(service campsiteService, logger *slog.Logger) *CampsiteHandler {
	base := defaultLogger(logger)
	return &CampsiteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CampsiteHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "CampsiteHandler", operation, attrs...)
}

func (h *CampsiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req campsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	campsite, err := h.service.CreateCampsite(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "campsite_id", campsite.ID).InfoContext(r.Context(), "campsite created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, campsiteResponse{Campsite: toCampsiteDTO(campsite)})
}

func (h *CampsiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req campsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	campsite, err := h.service.UpdateCampsite(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "campsite_id", id).InfoContext(r.Context(), "campsite updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campsiteResponse{Campsite: toCampsiteDTO(campsite)})
}

func (h *CampsiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	deleted, err := h.service.DeleteCampsite(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !deleted {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}

	h.log(r.Context(), "Delete", "campsite_id", id).InfoContext(r.Context(), "campsite deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CampsiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	campsite, err := h.service.GetCampsite(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campsiteResponse{Campsite: toCampsiteDTO(campsite)})
}

// List supports ?type=, ?section= and ?number= filters.
func (h *CampsiteHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := application.CampsiteFilter{
		Type:    application.SiteType(strings.TrimSpace(query.Get("type"))),
		Section: strings.TrimSpace(query.Get("section")),
	}
	if raw := strings.TrimSpace(query.Get("number")); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil || number <= 0 {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"number": "must be a positive integer"},
			})
			return
		}
		filter.Number = number
	}

	campsites, err := h.service.ListCampsites(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "List").With("result_count", len(campsites)).DebugContext(r.Context(), "campsites listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCampsitesResponse{Campsites: toCampsiteDTOs(campsites)})
}

type campsiteRequest struct {
	Name            string `json:"name"`
	Section         string `json:"section"`
	Number          int    `json:"number"`
	MaxLengthFeet   int    `json:"max_length_feet"`
	WidthFeet       int    `json:"width_feet"`
	AcceptsSlideOut bool   `json:"accepts_slide_out"`
	PullThrough     bool   `json:"pull_through"`
	Type            string `json:"type"`
	Notes           string `json:"notes"`
}

func (r campsiteRequest) toInput() application.CampsiteInput {
	return application.CampsiteInput{
		Name:            strings.TrimSpace(r.Name),
		Section:         strings.TrimSpace(r.Section),
		Number:          r.Number,
		MaxLengthFeet:   r.MaxLengthFeet,
		WidthFeet:       r.WidthFeet,
		AcceptsSlideOut: r.AcceptsSlideOut,
		PullThrough:     r.PullThrough,
		Type:            strings.TrimSpace(r.Type),
		Notes:           strings.TrimSpace(r.Notes),
	}
}

type campsiteResponse struct {
	Campsite campsiteDTO `json:"campsite"`
}

type listCampsitesResponse struct {
	Campsites []campsiteDTO `json:"campsites"`
}

type campsiteDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Section         string `json:"section,omitempty"`
	Number          int    `json:"number,omitempty"`
	MaxLengthFeet   int    `json:"max_length_feet"`
	WidthFeet       int    `json:"width_feet"`
	AcceptsSlideOut bool   `json:"accepts_slide_out"`
	PullThrough     bool   `json:"pull_through"`
	Type            string `json:"type"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toCampsiteDTO(c application.Campsite) campsiteDTO {
	return campsiteDTO{
		ID:              c.ID,
		Name:            c.Name,
		Section:         c.Section,
		Number:          c.Number,
		MaxLengthFeet:   c.MaxLengthFeet,
		WidthFeet:       c.WidthFeet,
		AcceptsSlideOut: c.AcceptsSlideOut,
		PullThrough:     c.PullThrough,
		Type:            string(c.Type),
		Notes:           c.Notes,
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

func toCampsiteDTOs(campsites []application.Campsite) []campsiteDTO {
	out := make([]campsiteDTO, 0, len(campsites))
	for _, c := range campsites {
		out = append(out, toCampsiteDTO(c))
	}
	return out
}
