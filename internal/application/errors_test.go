package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"stay": "invalid", "campsite_id": "required"}}
	if got := withFields.Error(); got != "validation failed: campsite_id, stay" {
		t.Fatalf("expected sorted field names in message, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestSiteConflictError(t *testing.T) {
	t.Parallel()

	err := error(&SiteConflictError{CampsiteID: "site-1", ConflictingID: []string{"as-1", "as-2"}})
	if !errors.Is(err, ErrSiteConflict) {
		t.Fatalf("expected SiteConflictError to match ErrSiteConflict")
	}
	wrapped := fmt.Errorf("assign: %w", err)
	var conflict *SiteConflictError
	if !errors.As(wrapped, &conflict) {
		t.Fatalf("expected errors.As to find SiteConflictError")
	}
	if len(conflict.ConflictingID) != 2 {
		t.Fatalf("expected two conflicting ids, got %v", conflict.ConflictingID)
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	if mapRepoError(nil) != nil {
		t.Fatalf("expected nil to map to nil")
	}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "not found", in: persistence.ErrNotFound, want: ErrNotFound},
		{name: "wrapped not found", in: fmt.Errorf("get: %w", persistence.ErrNotFound), want: ErrNotFound},
		{name: "duplicate", in: persistence.ErrDuplicate, want: ErrAlreadyExists},
		{name: "taxonomy passes through", in: ErrSiteLocked, want: ErrSiteLocked},
		{name: "invalid interval passes through", in: interval.ErrInvalid, want: ErrInvalidInterval},
		{name: "context passes through", in: context.Canceled, want: context.Canceled},
		{name: "foreign key is a reference conflict", in: persistence.ErrForeignKeyViolation, want: ErrReferenceConflict},
		{name: "wrapped foreign key is a reference conflict", in: fmt.Errorf("insert: %w", persistence.ErrForeignKeyViolation), want: ErrReferenceConflict},
		{name: "driver failure is infrastructure", in: errors.New("disk I/O error"), want: ErrInfrastructure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapRepoError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("constraint violation becomes validation error", func(t *testing.T) {
		t.Parallel()
		var vErr *ValidationError
		if !errors.As(mapRepoError(persistence.ErrConstraintViolation), &vErr) {
			t.Fatalf("expected ValidationError")
		}
		if _, ok := vErr.FieldErrors["record"]; !ok {
			t.Fatalf("expected record field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("foreign key is not infrastructure", func(t *testing.T) {
		t.Parallel()
		got := mapRepoError(persistence.ErrForeignKeyViolation)
		if errors.Is(got, ErrInfrastructure) {
			t.Fatalf("expected a domain outcome, got %v", got)
		}
		if !errors.Is(got, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected the cause kept, got %v", got)
		}
	})

	t.Run("infrastructure keeps the cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("database is locked")
		if got := mapRepoError(cause); !errors.Is(got, cause) {
			t.Fatalf("expected wrapped cause, got %v", got)
		}
	})
}
