package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/logging"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errMissingID      = errors.New("resource id is required")
	errMissingToken   = errors.New("bearer token is required")
	errInvalidToken   = errors.New("bearer token is not valid")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).InfoContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps the application error taxonomy onto HTTP statuses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	status, body := statusFor(err)
	logger := r.loggerFor(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", body.ErrorCode)
	} else {
		logger.DebugContext(ctx, "request refused", "status", status, "error", err, "error_kind", body.ErrorCode)
	}
	r.writeJSON(ctx, w, status, body)
}

func statusFor(err error) (int, errorResponse) {
	kind := application.ErrorKind(err)
	body := errorResponse{ErrorCode: kind, Message: err.Error()}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		body.Message = "request contains invalid fields"
		body.Errors = vErr.FieldErrors
		return http.StatusUnprocessableEntity, body
	}

	var conflict *application.SiteConflictError
	if errors.As(err, &conflict) {
		body.Conflicts = conflict.ConflictingID
		return http.StatusConflict, body
	}

	switch {
	case errors.Is(err, application.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, application.ErrNotFound), errors.Is(err, application.ErrNoYearlyRates):
		return http.StatusNotFound, body
	case errors.Is(err, application.ErrSiteConflict),
		errors.Is(err, application.ErrUnsatisfiable),
		errors.Is(err, application.ErrReservationFull),
		errors.Is(err, application.ErrSiteLocked),
		errors.Is(err, application.ErrCampsiteInUse),
		errors.Is(err, application.ErrReservationHasAssignments),
		errors.Is(err, application.ErrReferenceConflict),
		errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, body
	case errors.Is(err, application.ErrInfrastructure),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		// infrastructure details stay in the logs
		body.Message = "service temporarily unavailable"
		return http.StatusServiceUnavailable, body
	}

	body.Message = http.StatusText(http.StatusInternalServerError)
	return http.StatusInternalServerError, body
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.Resolve(ctx, r.logger)
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []string          `json:"conflicting_assignment_ids,omitempty"`
}
