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

type waitlistService interface {
	AddEntry(ctx context.Context, input application.WaitingListInput) (application.WaitingListEntry, error)
	UpdateEntry(ctx context.Context, entryID string, input application.WaitingListInput) (application.WaitingListEntry, error)
	WithdrawEntry(ctx context.Context, entryID string) (bool, error)
	GetEntry(ctx context.Context, entryID string) (application.WaitingListEntry, error)
	ListEntries(ctx context.Context) ([]application.WaitingListEntry, error)
	ListEntriesByCustomer(ctx context.Context, customerID string) ([]application.WaitingListEntry, error)
	Promote(ctx context.Context, entryID string) (application.Reservation, error)
	PromoteNext(ctx context.Context) (application.Reservation, error)
	PromoteAll(ctx context.Context) (application.PromotionReport, error)
}

type WaitlistHandler struct {
	service   waitlistService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewWaitlistHandler(service waitlistService, loc *time.Location, logger *slog.Logger) *WaitlistHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &WaitlistHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *WaitlistHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "WaitlistHandler", operation, attrs...)
}

func (h *WaitlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	entry, err := h.service.AddEntry(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "waitlist_id", entry.ID).InfoContext(r.Context(), "waiting list entry added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, waitingEntryResponse{Entry: toWaitingEntryDTO(entry)})
}

func (h *WaitlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, waitingEntryResponse{Entry: toWaitingEntryDTO(entry)})
}

func (h *WaitlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	withdrawn, err := h.service.WithdrawEntry(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !withdrawn {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}

	h.log(r.Context(), "Delete", "waitlist_id", id).InfoContext(r.Context(), "waiting list entry withdrawn")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *WaitlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, waitingEntryResponse{Entry: toWaitingEntryDTO(entry)})
}

// List returns the entries in promotion order, narrowed to one customer
// when ?customer_id= is given.
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		entries []application.WaitingListEntry
		err     error
	)
	if customerID := strings.TrimSpace(r.URL.Query().Get("customer_id")); customerID != "" {
		entries, err = h.service.ListEntriesByCustomer(r.Context(), customerID)
	} else {
		entries, err = h.service.ListEntries(r.Context())
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]waitingEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toWaitingEntryDTO(entry))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listWaitingEntriesResponse{Entries: out})
}

// Promote answers POST /waitlist/{id}/promote.
func (h *WaitlistHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	reservation, err := h.service.Promote(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Promote", "waitlist_id", id, "reservation_id", reservation.ID).
		InfoContext(r.Context(), "waiting list entry promoted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// PromoteNext answers POST /waitlist/promote-next.
func (h *WaitlistHandler) PromoteNext(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.PromoteNext(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "PromoteNext", "reservation_id", reservation.ID).InfoContext(r.Context(), "waiting list head promoted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// PromoteAll answers POST /waitlist/promote-all. A sweep cut short still
// reports what it managed.
func (h *WaitlistHandler) PromoteAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.PromoteAll(r.Context())
	if err != nil && len(report.Promoted)+len(report.Unsatisfiable)+len(report.Conflicted) == 0 {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := toPromotionReportDTO(report)
	if err != nil {
		dto.Error = err.Error()
		dto.ErrorKind = application.ErrorKind(err)
	}
	h.log(r.Context(), "PromoteAll").InfoContext(r.Context(), "waiting list swept", "promoted", len(report.Promoted))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dto)
}

func (h *WaitlistHandler) decodeInput(w http.ResponseWriter, r *http.Request) (application.WaitingListInput, bool) {
	var req waitingEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return application.WaitingListInput{}, false
	}
	stay, err := req.Stay.toInterval(h.location)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.WaitingListInput{}, false
	}

	input := application.WaitingListInput{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Sites:      req.Sites,
		Stay:       stay,
		Priority:   req.Priority,
		Notes:      strings.TrimSpace(req.Notes),
	}
	if raw := strings.TrimSpace(req.RequestedOn); raw != "" {
		requestedOn, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"requested_on": "must be an RFC 3339 timestamp"},
			})
			return application.WaitingListInput{}, false
		}
		input.RequestedOn = requestedOn
	}
	return input, true
}

type waitingEntryRequest struct {
	CustomerID  string      `json:"customer_id"`
	Sites       int         `json:"sites"`
	Stay        stayRequest `json:"stay"`
	RequestedOn string      `json:"requested_on"`
	Priority    bool        `json:"priority"`
	Notes       string      `json:"notes"`
}

type waitingEntryResponse struct {
	Entry waitingEntryDTO `json:"entry"`
}

type listWaitingEntriesResponse struct {
	Entries []waitingEntryDTO `json:"entries"`
}

type waitingEntryDTO struct {
	ID          string  `json:"id"`
	CustomerID  string  `json:"customer_id"`
	Nights      int     `json:"nights"`
	Sites       int     `json:"sites"`
	Stay        stayDTO `json:"stay"`
	RequestedOn string  `json:"requested_on"`
	Priority    bool    `json:"priority"`
	Notes       string  `json:"notes,omitempty"`
}

func toWaitingEntryDTO(entry application.WaitingListEntry) waitingEntryDTO {
	return waitingEntryDTO{
		ID:          entry.ID,
		CustomerID:  entry.CustomerID,
		Nights:      entry.Nights,
		Sites:       entry.Sites,
		Stay:        toStayDTO(entry.Stay),
		RequestedOn: formatTime(entry.RequestedOn),
		Priority:    entry.Priority,
		Notes:       entry.Notes,
	}
}

type promotionReportDTO struct {
	Promoted      []string `json:"promoted"`
	Reservations  []string `json:"reservations"`
	Unsatisfiable []string `json:"unsatisfiable"`
	Conflicted    []string `json:"conflicted"`
	Error         string   `json:"error,omitempty"`
	ErrorKind     string   `json:"error_kind,omitempty"`
}

func toPromotionReportDTO(report application.PromotionReport) promotionReportDTO {
	orEmpty := func(ids []string) []string {
		if ids == nil {
			return []string{}
		}
		return ids
	}
	return promotionReportDTO{
		Promoted:      orEmpty(report.Promoted),
		Reservations:  orEmpty(report.Reservations),
		Unsatisfiable: orEmpty(report.Unsatisfiable),
		Conflicted:    orEmpty(report.Conflicted),
	}
}
