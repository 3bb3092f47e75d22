package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/campground/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.Resolve(ctx, base)

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, ErrSiteConflict):
		return "site_conflict"
	case errors.Is(err, ErrUnsatisfiable):
		return "unsatisfiable"
	case errors.Is(err, ErrReservationFull):
		return "reservation_full"
	case errors.Is(err, ErrSiteLocked):
		return "site_locked"
	case errors.Is(err, ErrCampsiteInUse):
		return "campsite_in_use"
	case errors.Is(err, ErrReservationHasAssignments):
		return "reservation_has_assignments"
	case errors.Is(err, ErrNoYearlyRates):
		return "no_yearly_rates"
	case errors.Is(err, ErrReferenceConflict):
		return "reference_conflict"
	case errors.Is(err, ErrInfrastructure):
		return "infrastructure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

// logOutcome logs a finished operation. Expected outcomes listed in quiet are
// logged at debug level instead of error.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, failMsg string, quiet ...error) {
	if err == nil {
		return
	}
	for _, q := range quiet {
		if errors.Is(err, q) {
			logger.DebugContext(ctx, failMsg, "reason", err.Error(), "error_kind", ErrorKind(err))
			return
		}
	}
	logger.ErrorContext(ctx, failMsg, "error", err, "error_kind", ErrorKind(err))
}
