package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campground/internal/events"
	"github.com/example/campground/internal/lock"
)

// WaitlistService keeps the waiting list and promotes entries into
// reservations when enough campsites are free.
type WaitlistService struct {
	repos       Repositories
	tx          Transactor
	assignments *AssignmentService
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewWaitlistService constructs a waitlist service. Promotion binds sites
// through assignments, sharing its locker, cache and publisher.
func NewWaitlistService(repos Repositories, tx Transactor, assignments *AssignmentService, idGenerator func() string, now func() time.Time) *WaitlistService {
	return NewWaitlistServiceWithLogger(repos, tx, assignments, idGenerator, now, nil)
}

// NewWaitlistServiceWithLogger constructs a waitlist service with a specified logger.
func NewWaitlistServiceWithLogger(repos Repositories, tx Transactor, assignments *AssignmentService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WaitlistService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &WaitlistService{
		repos:       repos,
		tx:          tx,
		assignments: assignments,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *WaitlistService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WaitlistService", operation, attrs...)
}

// OrderWaitingList returns entries in promotion order: every priority entry
// before any other, then by RequestedOn, then by ID.
func OrderWaitingList(entries []WaitingListEntry) []WaitingListEntry {
	ordered := make([]WaitingListEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority
		}
		if !a.RequestedOn.Equal(b.RequestedOn) {
			return a.RequestedOn.Before(b.RequestedOn)
		}
		return a.ID < b.ID
	})
	return ordered
}

// Promote converts one entry into a reservation with its sites assigned, or
// leaves it untouched. ErrUnsatisfiable is a normal outcome.
func (s *WaitlistService) Promote(ctx context.Context, entryID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("WaitlistService is nil")
		return
	}

	var entry WaitingListEntry
	entry, err = s.repos.WaitingList.GetWaitingListEntry(ctx, entryID)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Promote", "waitlist_id", entryID).
			ErrorContext(ctx, "failed to load waiting list entry", "error", err, "error_kind", ErrorKind(err))
		return
	}
	return s.promote(ctx, entry)
}

func (s *WaitlistService) promote(ctx context.Context, entry WaitingListEntry) (reservation Reservation, err error) {
	logger := s.loggerWith(ctx, "Promote",
		"waitlist_id", entry.ID,
		"customer_id", entry.CustomerID,
		"sites", entry.Sites,
	)
	var chosen []string
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "waiting list entry not promoted", ErrUnsatisfiable, ErrSiteConflict)
			return
		}
		logger.With("reservation_id", reservation.ID, "campsite_ids", chosen).
			InfoContext(ctx, "waiting list entry promoted")
	}()

	siteType := SiteTypeForNights(entry.Stay.Nights())
	var free []Campsite
	free, err = freeCampsites(ctx, s.repos.Campsites, s.repos.AssignedSites, entry.Stay, []SiteType{siteType})
	if err != nil {
		return
	}
	if len(free) < entry.Sites {
		err = fmt.Errorf("%w: %d of %d %s campsites free", ErrUnsatisfiable, len(free), entry.Sites, siteType)
		return
	}
	for _, c := range free[:entry.Sites] {
		chosen = append(chosen, c.ID)
	}

	if reservation, err = s.promoteOnce(ctx, entry.ID, chosen); err != nil {
		return
	}

	s.assignments.committed(ctx, events.Event{
		Type:          events.WaitlistPromoted,
		ReservationID: reservation.ID,
		WaitlistID:    entry.ID,
		CampsiteIDs:   chosen,
		CustomerID:    reservation.CustomerID,
		Start:         reservation.Stay.Start,
		End:           reservation.Stay.End,
	})
	return
}

// promoteOnce creates the reservation and its bindings under the chosen
// campsites' locks. The locks are dropped before any event is published.
func (s *WaitlistService) promoteOnce(ctx context.Context, entryID string, chosen []string) (reservation Reservation, err error) {
	release, err := s.assignments.acquire(ctx, lock.CampsiteKeys(chosen...)...)
	if err != nil {
		return
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		current, txErr := repos.WaitingList.GetWaitingListEntry(ctx, entryID)
		if txErr != nil {
			return mapRepoError(txErr)
		}

		now := s.now()
		created, txErr := repos.Reservations.CreateReservation(ctx, Reservation{
			ID:             s.idGenerator(),
			CustomerID:     current.CustomerID,
			Stay:           current.Stay,
			SitesRequested: len(chosen),
			Notes:          current.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if txErr != nil {
			return mapRepoError(txErr)
		}

		for _, campsiteID := range chosen {
			if _, txErr = s.assignments.assignWithin(ctx, repos, AssignParams{
				ReservationID: created.ID,
				CampsiteID:    campsiteID,
				CustomerID:    current.CustomerID,
				Stay:          current.Stay,
			}, false); txErr != nil {
				return txErr
			}
		}

		if txErr = repos.WaitingList.DeleteWaitingListEntry(ctx, current.ID); txErr != nil {
			return mapRepoError(txErr)
		}

		reservation, txErr = repos.Reservations.GetReservation(ctx, created.ID)
		return mapRepoError(txErr)
	})
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}
	return reservation, nil
}

// PromoteNext promotes the first entry, in promotion order, that can be
// satisfied. It returns ErrUnsatisfiable when none can.
func (s *WaitlistService) PromoteNext(ctx context.Context) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("WaitlistService is nil")
		return
	}

	var entries []WaitingListEntry
	entries, err = s.ListEntries(ctx)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if err = ctx.Err(); err != nil {
			return
		}
		reservation, err = s.promote(ctx, entry)
		if err == nil || !skippable(err) {
			return
		}
	}
	err = ErrUnsatisfiable
	return
}

// PromoteAll walks the ordered list once and promotes every entry it can.
// Cancellation is honoured between entries. An infrastructure failure stops
// the sweep and is returned with the partial report.
func (s *WaitlistService) PromoteAll(ctx context.Context) (PromotionReport, error) {
	if s == nil {
		return PromotionReport{}, fmt.Errorf("WaitlistService is nil")
	}
	return s.sweep(ctx, "PromoteAll", func(WaitingListEntry) bool { return true })
}

// AssignmentReleased runs a promotion pass over the entries whose stay
// overlaps the freed binding. Failures are logged, never returned.
func (s *WaitlistService) AssignmentReleased(ctx context.Context, released AssignedSite) {
	if s == nil {
		return
	}
	_, _ = s.sweep(ctx, "AssignmentReleased", func(entry WaitingListEntry) bool {
		return entry.Stay.Overlaps(released.Stay)
	})
}

func (s *WaitlistService) sweep(ctx context.Context, operation string, include func(WaitingListEntry) bool) (report PromotionReport, err error) {
	logger := s.loggerWith(ctx, operation)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "promotion sweep stopped", "error", err, "error_kind", ErrorKind(err),
				"promoted", len(report.Promoted))
			return
		}
		logger.InfoContext(ctx, "promotion sweep finished",
			"promoted", len(report.Promoted),
			"unsatisfiable", len(report.Unsatisfiable),
			"conflicted", len(report.Conflicted),
		)
	}()

	var entries []WaitingListEntry
	entries, err = s.ListEntries(ctx)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !include(entry) {
			continue
		}
		if err = ctx.Err(); err != nil {
			return
		}
		reservation, promoteErr := s.promote(ctx, entry)
		switch {
		case promoteErr == nil:
			report.Promoted = append(report.Promoted, entry.ID)
			report.Reservations = append(report.Reservations, reservation.ID)
		case errors.Is(promoteErr, ErrUnsatisfiable):
			report.Unsatisfiable = append(report.Unsatisfiable, entry.ID)
		case errors.Is(promoteErr, ErrSiteConflict):
			report.Conflicted = append(report.Conflicted, entry.ID)
		case skippable(promoteErr):
			// withdrawn or promoted concurrently
		default:
			err = promoteErr
			return
		}
	}
	return
}

// skippable reports whether a promotion failure concerns only that entry.
func skippable(err error) bool {
	var vErr *ValidationError
	return errors.Is(err, ErrUnsatisfiable) ||
		errors.Is(err, ErrSiteConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrReservationFull) ||
		errors.As(err, &vErr)
}

// AddEntry validates input and appends a waiting list entry.
func (s *WaitlistService) AddEntry(ctx context.Context, input WaitingListInput) (entry WaitingListEntry, err error) {
	if s == nil {
		err = fmt.Errorf("WaitlistService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddEntry", "customer_id", input.CustomerID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to add waiting list entry")
			return
		}
		logger.With("waitlist_id", entry.ID).InfoContext(ctx, "waiting list entry added")
	}()

	if err = validateWaitingListInput(input); err != nil {
		return
	}

	now := s.now()
	entry = WaitingListEntry{
		ID:          s.idGenerator(),
		CustomerID:  strings.TrimSpace(input.CustomerID),
		Nights:      input.Stay.Nights(),
		Sites:       input.Sites,
		RequestedOn: input.RequestedOn,
		Stay:        input.Stay,
		Priority:    input.Priority,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if entry.RequestedOn.IsZero() {
		entry.RequestedOn = now
	}

	entry, err = s.repos.WaitingList.CreateWaitingListEntry(ctx, entry)
	if err != nil {
		entry = WaitingListEntry{}
		err = mapRepoError(err)
	}
	return
}

// UpdateEntry replaces the mutable fields of an entry.
func (s *WaitlistService) UpdateEntry(ctx context.Context, entryID string, input WaitingListInput) (entry WaitingListEntry, err error) {
	if s == nil {
		err = fmt.Errorf("WaitlistService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEntry", "waitlist_id", entryID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to update waiting list entry")
			return
		}
		logger.InfoContext(ctx, "waiting list entry updated")
	}()

	var existing WaitingListEntry
	existing, err = s.repos.WaitingList.GetWaitingListEntry(ctx, entryID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if input.RequestedOn.IsZero() {
		input.RequestedOn = existing.RequestedOn
	}
	if err = validateWaitingListInput(input); err != nil {
		return
	}

	updated := existing
	updated.CustomerID = strings.TrimSpace(input.CustomerID)
	updated.Nights = input.Stay.Nights()
	updated.Sites = input.Sites
	updated.Stay = input.Stay
	updated.RequestedOn = input.RequestedOn
	updated.Priority = input.Priority
	updated.Notes = strings.TrimSpace(input.Notes)
	updated.UpdatedAt = s.now()

	entry, err = s.repos.WaitingList.UpdateWaitingListEntry(ctx, updated)
	err = mapRepoError(err)
	return
}

// WithdrawEntry removes an entry. A missing entry reports false with no error.
func (s *WaitlistService) WithdrawEntry(ctx context.Context, entryID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("WaitlistService is nil")
	}

	logger := s.loggerWith(ctx, "WithdrawEntry", "waitlist_id", entryID)
	if err := s.repos.WaitingList.DeleteWaitingListEntry(ctx, entryID); err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		logger.ErrorContext(ctx, "failed to withdraw waiting list entry", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "waiting list entry withdrawn")
	return true, nil
}

// GetEntry returns one entry.
func (s *WaitlistService) GetEntry(ctx context.Context, entryID string) (WaitingListEntry, error) {
	entry, err := s.repos.WaitingList.GetWaitingListEntry(ctx, entryID)
	return entry, mapRepoError(err)
}

// ListEntries returns the waiting list in promotion order.
func (s *WaitlistService) ListEntries(ctx context.Context) ([]WaitingListEntry, error) {
	entries, err := s.repos.WaitingList.ListWaitingListEntries(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return OrderWaitingList(entries), nil
}

// ListEntriesByCustomer returns one customer's entries in promotion order.
func (s *WaitlistService) ListEntriesByCustomer(ctx context.Context, customerID string) ([]WaitingListEntry, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		vErr := &ValidationError{}
		vErr.add("customer_id", "customer id is required")
		return nil, vErr
	}
	entries, err := s.repos.WaitingList.ListWaitingListEntriesByCustomer(ctx, customerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return OrderWaitingList(entries), nil
}

func validateWaitingListInput(input WaitingListInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.CustomerID) == "" {
		vErr.add("customer_id", "customer id is required")
	}
	if input.Sites < 1 {
		vErr.add("sites", "at least one site is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return input.Stay.Validate()
}
