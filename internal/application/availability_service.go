package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/scheduler"
)

// AvailabilityCacheConfig sizes the snapshot cache. A zero Size disables it.
type AvailabilityCacheConfig struct {
	Size int
	TTL  time.Duration
}

// AvailabilityService answers read-only availability queries. Results are
// snapshots: a site reported free may be taken before the caller acts on it.
type AvailabilityService struct {
	campsites CampsiteRepository
	assigned  AssignedSiteRepository
	cache     *availabilityCache
	logger    *slog.Logger
}

// NewAvailabilityService constructs an uncached availability service.
func NewAvailabilityService(campsites CampsiteRepository, assigned AssignedSiteRepository) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(campsites, assigned, AvailabilityCacheConfig{}, nil)
}

// NewAvailabilityServiceWithLogger constructs an availability service with a snapshot cache and logger.
func NewAvailabilityServiceWithLogger(campsites CampsiteRepository, assigned AssignedSiteRepository, cacheConfig AvailabilityCacheConfig, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		campsites: campsites,
		assigned:  assigned,
		cache:     newAvailabilityCache(cacheConfig.Size, cacheConfig.TTL),
		logger:    defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// Invalidate drops cached snapshots. Writers call it after every commit.
func (s *AvailabilityService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// IsSiteAvailable reports whether no assignment on campsiteID overlaps stay.
func (s *AvailabilityService) IsSiteAvailable(ctx context.Context, campsiteID string, stay interval.Interval) (available bool, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "IsSiteAvailable", "campsite_id", campsiteID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to check campsite availability")
			return
		}
		logger.DebugContext(ctx, "campsite availability checked", "available", available)
	}()

	if err = stay.Validate(); err != nil {
		return
	}
	if _, err = s.campsites.GetCampsite(ctx, campsiteID); err != nil {
		err = mapRepoError(err)
		return
	}

	var existing []AssignedSite
	existing, err = s.assigned.ListAssignedSitesByCampsite(ctx, campsiteID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	conflicts := scheduler.DetectConflicts(occupancies(existing), scheduler.Occupancy{CampsiteID: campsiteID, Stay: stay})
	available = len(conflicts) == 0
	return
}

// ListAvailableSites returns the sorted ids of campsites free over stay,
// optionally restricted to one type.
func (s *AvailabilityService) ListAvailableSites(ctx context.Context, stay interval.Interval, filter *SiteType) ([]string, error) {
	campsites, err := s.CheckAvailability(ctx, AvailabilityParams{Stay: stay, Type: filter})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(campsites))
	for i, c := range campsites {
		ids[i] = c.ID
	}
	return ids, nil
}

// ListAvailableForStay returns the free campsites whose type serves the stay's length.
func (s *AvailabilityService) ListAvailableForStay(ctx context.Context, stay interval.Interval) ([]Campsite, error) {
	return s.CheckAvailability(ctx, AvailabilityParams{Stay: stay, ServingStayOnly: true})
}

// CheckAvailability returns the free campsites matching params, ordered by ID.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, params AvailabilityParams) (campsites []Campsite, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckAvailability", "start", params.Stay.Start, "end", params.Stay.End)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to check availability")
			return
		}
		logger.DebugContext(ctx, "availability checked", "result_count", len(campsites))
	}()

	if err = params.Stay.Validate(); err != nil {
		return
	}

	var types []SiteType
	switch {
	case params.Type != nil:
		if _, parseErr := ParseSiteType(string(*params.Type)); parseErr != nil {
			vErr := &ValidationError{}
			vErr.add("type", parseErr.Error())
			err = vErr
			return
		}
		types = []SiteType{*params.Type}
	case params.ServingStayOnly:
		types = []SiteType{SiteTypeForNights(params.Stay.Nights())}
	}

	key := buildAvailabilityCacheKey(params.Stay, types)
	if cached, ok := s.cache.Get(key); ok {
		campsites = cached
		return
	}
	generation := s.cache.Generation()

	campsites, err = freeCampsites(ctx, s.campsites, s.assigned, params.Stay, types)
	if err != nil {
		return
	}
	s.cache.Store(key, generation, campsites)
	return
}

// freeCampsites computes availability directly from the repositories. Inside a
// transaction it sees the transaction's view.
func freeCampsites(ctx context.Context, campsiteRepo CampsiteRepository, assignedRepo AssignedSiteRepository, stay interval.Interval, types []SiteType) ([]Campsite, error) {
	var catalog []Campsite
	if len(types) == 0 {
		all, err := campsiteRepo.ListCampsites(ctx)
		if err != nil {
			return nil, mapRepoError(err)
		}
		catalog = all
	} else {
		for _, t := range types {
			subset, err := campsiteRepo.ListCampsitesByType(ctx, t)
			if err != nil {
				return nil, mapRepoError(err)
			}
			catalog = append(catalog, subset...)
		}
	}

	assigned, err := assignedRepo.ListAssignedSites(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	byID := make(map[string]Campsite, len(catalog))
	ids := make([]string, 0, len(catalog))
	for _, c := range catalog {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	free := scheduler.FreeCampsites(ids, occupancies(assigned), stay)
	out := make([]Campsite, 0, len(free))
	for _, id := range free {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func occupancies(sites []AssignedSite) []scheduler.Occupancy {
	out := make([]scheduler.Occupancy, len(sites))
	for i, site := range sites {
		out[i] = scheduler.Occupancy{ID: site.ID, CampsiteID: site.CampsiteID, Stay: site.Stay}
	}
	return out
}
