package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campground/internal/persistence"
)

// CampsiteService orchestrates validation and persistence for the campsite catalog.
type CampsiteService struct {
	campsites   CampsiteRepository
	snapshots   SnapshotInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCampsiteService constructs a campsite service with the provided dependencies.
func NewCampsiteService(campsites CampsiteRepository, idGenerator func() string, now func() time.Time) *CampsiteService {
	return NewCampsiteServiceWithLogger(campsites, idGenerator, now, nil)
}

// NewCampsiteServiceWithLogger constructs a campsite service with a specified logger.
func NewCampsiteServiceWithLogger(campsites CampsiteRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CampsiteService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CampsiteService{campsites: campsites, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// SetSnapshotInvalidator registers the availability cache to purge when the catalog changes.
func (s *CampsiteService) SetSnapshotInvalidator(invalidator SnapshotInvalidator) {
	s.snapshots = invalidator
}

func (s *CampsiteService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CampsiteService", operation, attrs...)
}

func (s *CampsiteService) invalidate() {
	if s.snapshots != nil {
		s.snapshots.Invalidate()
	}
}

// CreateCampsite validates input and adds a campsite to the catalog.
func (s *CampsiteService) CreateCampsite(ctx context.Context, input CampsiteInput) (campsite Campsite, err error) {
	if s == nil {
		err = fmt.Errorf("CampsiteService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateCampsite", "name", input.Name)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to create campsite")
			return
		}
		logger.With("campsite_id", campsite.ID).InfoContext(ctx, "campsite created")
	}()

	siteType, vErr := validateCampsiteInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	campsite = Campsite{ID: s.idGenerator(), CreatedAt: s.now()}
	applyCampsiteInput(&campsite, input, siteType)
	campsite.UpdatedAt = campsite.CreatedAt

	if s.campsites == nil {
		return
	}

	var persisted Campsite
	persisted, err = s.campsites.CreateCampsite(ctx, campsite)
	if err != nil {
		campsite = Campsite{}
		err = mapCampsiteRepoError(err)
		return
	}

	campsite = persisted
	s.invalidate()
	return
}

// UpdateCampsite validates input and replaces the fields of an existing campsite.
func (s *CampsiteService) UpdateCampsite(ctx context.Context, campsiteID string, input CampsiteInput) (campsite Campsite, err error) {
	if s == nil {
		err = fmt.Errorf("CampsiteService is nil")
		return
	}
	if s.campsites == nil {
		err = fmt.Errorf("campsite repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateCampsite", "campsite_id", campsiteID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to update campsite")
			return
		}
		logger.InfoContext(ctx, "campsite updated")
	}()

	var existing Campsite
	existing, err = s.campsites.GetCampsite(ctx, campsiteID)
	if err != nil {
		err = mapCampsiteRepoError(err)
		return
	}

	siteType, vErr := validateCampsiteInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	applyCampsiteInput(&updated, input, siteType)
	updated.UpdatedAt = s.now()

	campsite, err = s.campsites.UpdateCampsite(ctx, updated)
	if err != nil {
		err = mapCampsiteRepoError(err)
		return
	}
	s.invalidate()
	return
}

// DeleteCampsite removes a campsite no assignment references. A missing
// campsite reports false with no error.
func (s *CampsiteService) DeleteCampsite(ctx context.Context, campsiteID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("CampsiteService is nil")
	}
	if s.campsites == nil {
		return false, fmt.Errorf("campsite repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCampsite", "campsite_id", campsiteID)

	if err := s.campsites.DeleteCampsite(ctx, campsiteID); err != nil {
		err = mapCampsiteRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		logOutcome(ctx, logger, err, "failed to delete campsite", ErrCampsiteInUse)
		return false, err
	}

	s.invalidate()
	logger.InfoContext(ctx, "campsite deleted")
	return true, nil
}

// GetCampsite returns one campsite.
func (s *CampsiteService) GetCampsite(ctx context.Context, campsiteID string) (Campsite, error) {
	campsite, err := s.campsites.GetCampsite(ctx, campsiteID)
	return campsite, mapCampsiteRepoError(err)
}

// GetCampsiteByName looks a campsite up by its unique, case-insensitive name.
func (s *CampsiteService) GetCampsiteByName(ctx context.Context, name string) (Campsite, error) {
	campsite, err := s.campsites.GetCampsiteByName(ctx, strings.TrimSpace(name))
	return campsite, mapCampsiteRepoError(err)
}

// ListCampsites returns the catalog narrowed by filter, ordered by name.
func (s *CampsiteService) ListCampsites(ctx context.Context, filter CampsiteFilter) (campsites []Campsite, err error) {
	if s == nil {
		err = fmt.Errorf("CampsiteService is nil")
		return
	}
	if s.campsites == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListCampsites", "type", string(filter.Type), "section", filter.Section)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to list campsites")
			return
		}
		logger.With("result_count", len(campsites)).DebugContext(ctx, "campsites listed")
	}()

	var raw []Campsite
	if filter.Type != "" {
		raw, err = s.campsites.ListCampsitesByType(ctx, filter.Type)
	} else {
		raw, err = s.campsites.ListCampsites(ctx)
	}
	if err != nil {
		err = mapCampsiteRepoError(err)
		return
	}

	campsites = make([]Campsite, 0, len(raw))
	for _, c := range raw {
		if filter.Section != "" && !strings.EqualFold(c.Section, filter.Section) {
			continue
		}
		if filter.Number != 0 && c.Number != filter.Number {
			continue
		}
		campsites = append(campsites, c)
	}

	sort.Slice(campsites, func(i, j int) bool {
		if strings.EqualFold(campsites[i].Name, campsites[j].Name) {
			return campsites[i].ID < campsites[j].ID
		}
		return strings.ToLower(campsites[i].Name) < strings.ToLower(campsites[j].Name)
	})
	return
}

func applyCampsiteInput(c *Campsite, input CampsiteInput, siteType SiteType) {
	c.Name = strings.TrimSpace(input.Name)
	c.Section = strings.TrimSpace(input.Section)
	c.Number = input.Number
	c.MaxLengthFeet = input.MaxLengthFeet
	c.WidthFeet = input.WidthFeet
	c.AcceptsSlideOut = input.AcceptsSlideOut
	c.PullThrough = input.PullThrough
	c.Type = siteType
	c.Notes = strings.TrimSpace(input.Notes)
}

func validateCampsiteInput(input CampsiteInput) (SiteType, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	siteType, err := ParseSiteType(input.Type)
	if err != nil {
		vErr.add("type", "type must be one of daily, weekly, monthly, seasonal")
	}
	if input.Number < 0 {
		vErr.add("number", "number cannot be negative")
	}
	if input.MaxLengthFeet < 0 {
		vErr.add("max_length_feet", "max length cannot be negative")
	}
	if input.WidthFeet < 0 {
		vErr.add("width_feet", "width cannot be negative")
	}

	return siteType, vErr
}

func mapCampsiteRepoError(err error) error {
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrCampsiteInUse
	}
	return mapRepoError(err)
}
