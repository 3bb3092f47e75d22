package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidInterval is returned for zero-length or inverted intervals.
	ErrInvalidInterval = interval.ErrInvalid
	// ErrSiteConflict is returned when a binding would overlap another on the same campsite.
	ErrSiteConflict = errors.New("application: campsite already assigned for an overlapping interval")
	// ErrUnsatisfiable is returned when too few campsites are free to promote a waiting entry.
	ErrUnsatisfiable = errors.New("application: not enough available campsites")
	// ErrInfrastructure wraps repository failures that are not domain outcomes.
	ErrInfrastructure = errors.New("application: infrastructure failure")
	// ErrReservationFull is returned when every requested site is already assigned.
	ErrReservationFull = errors.New("application: reservation already has all requested sites assigned")
	// ErrSiteLocked is returned when moving a pinned assignment to another campsite.
	ErrSiteLocked = errors.New("application: assignment is locked to its campsite")
	// ErrCampsiteInUse is returned when deleting a campsite that assignments reference.
	ErrCampsiteInUse = errors.New("application: campsite has assignments")
	// ErrReservationHasAssignments is returned when deleting a reservation that still holds sites.
	ErrReservationHasAssignments = errors.New("application: reservation has assignments")
	// ErrNoYearlyRates is returned when no rate row exists for the stay's year.
	ErrNoYearlyRates = errors.New("application: no yearly rates for year")
	// ErrReferenceConflict is returned when a write names a record that no
	// longer exists, or removes one that is still referenced.
	ErrReferenceConflict = errors.New("application: referenced record missing or still in use")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// SiteConflictError lists the assignments that block a binding.
type SiteConflictError struct {
	CampsiteID    string
	ConflictingID []string
}

func (e *SiteConflictError) Error() string {
	return fmt.Sprintf("%v: campsite %s overlaps %s", ErrSiteConflict, e.CampsiteID, strings.Join(e.ConflictingID, ", "))
}

// Unwrap lets errors.Is match ErrSiteConflict.
func (e *SiteConflictError) Unwrap() error {
	return ErrSiteConflict
}

// mapRepoError translates persistence failures into the application taxonomy.
// Errors already in the taxonomy pass through unchanged.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInterval, ErrSiteConflict, ErrUnsatisfiable,
		ErrInfrastructure, ErrReservationFull, ErrSiteLocked, ErrCampsiteInUse,
		ErrReservationHasAssignments, ErrNoYearlyRates, ErrReferenceConflict,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: %w", ErrReferenceConflict, err)
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("record", "violates a storage constraint")
		return vErr
	}
	return fmt.Errorf("%w: %w", ErrInfrastructure, err)
}
