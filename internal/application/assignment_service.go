package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campground/internal/events"
	"github.com/example/campground/internal/lock"
	"github.com/example/campground/internal/scheduler"
)

// maxReassignAttempts bounds retries when a concurrent reassignment moves the
// binding between reading it and locking its campsite.
const maxReassignAttempts = 3

var errBindingMoved = errors.New("application: assignment moved concurrently")

// AssignmentService binds campsites to reservations. Every check-then-write
// runs under the campsite's lock and a single repository transaction.
type AssignmentService struct {
	repos       Repositories
	tx          Transactor
	locker      lock.Locker
	snapshots   SnapshotInvalidator
	publisher   events.Publisher
	listener    ReleaseListener
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAssignmentService constructs an assignment service with the provided dependencies.
func NewAssignmentService(repos Repositories, tx Transactor, locker lock.Locker, idGenerator func() string, now func() time.Time) *AssignmentService {
	return NewAssignmentServiceWithLogger(repos, tx, locker, idGenerator, now, nil)
}

// NewAssignmentServiceWithLogger constructs an assignment service with a specified logger.
// A nil locker falls back to an in-process KeyedMutex.
func NewAssignmentServiceWithLogger(repos Repositories, tx Transactor, locker lock.Locker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AssignmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &AssignmentService{
		repos:       repos,
		tx:          tx,
		locker:      locker,
		publisher:   events.Noop{},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// SetSnapshotInvalidator registers the cache to purge after each commit.
func (s *AssignmentService) SetSnapshotInvalidator(invalidator SnapshotInvalidator) {
	s.snapshots = invalidator
}

// SetPublisher registers the domain event publisher.
func (s *AssignmentService) SetPublisher(publisher events.Publisher) {
	if publisher == nil {
		publisher = events.Noop{}
	}
	s.publisher = publisher
}

// SetReleaseListener registers the collaborator notified when capacity frees up.
func (s *AssignmentService) SetReleaseListener(listener ReleaseListener) {
	s.listener = listener
}

func (s *AssignmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AssignmentService", operation, attrs...)
}

// Assign binds a campsite to a reservation for a stay.
func (s *AssignmentService) Assign(ctx context.Context, params AssignParams) (site AssignedSite, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Assign",
		"reservation_id", params.ReservationID,
		"campsite_id", params.CampsiteID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to assign campsite", ErrSiteConflict, ErrReservationFull)
			return
		}
		logger.With("assigned_site_id", site.ID).InfoContext(ctx, "campsite assigned")
	}()

	if vErr := validateAssignParams(params); vErr.HasErrors() {
		err = vErr
		return
	}
	if err = params.Stay.Validate(); err != nil {
		return
	}

	if site, err = s.assignOnce(ctx, params); err != nil {
		return
	}

	s.committed(ctx, events.Event{
		Type:           events.AssignmentCreated,
		ReservationID:  site.ReservationID,
		AssignedSiteID: site.ID,
		CampsiteIDs:    []string{site.CampsiteID},
		CustomerID:     site.CustomerID,
		Start:          site.Stay.Start,
		End:            site.Stay.End,
	})
	return
}

// assignOnce creates the binding under its campsite lock. The lock is dropped
// before returning so publishing never holds up the next writer.
func (s *AssignmentService) assignOnce(ctx context.Context, params AssignParams) (site AssignedSite, err error) {
	release, err := s.acquire(ctx, lock.CampsiteKey(params.CampsiteID))
	if err != nil {
		return
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		var txErr error
		site, txErr = s.assignWithin(ctx, repos, params, false)
		return txErr
	})
	if err != nil {
		return AssignedSite{}, mapRepoError(err)
	}
	return site, nil
}

// assignWithin performs the checks and writes of Assign against
// transaction-scoped repositories. The caller holds the campsite lock.
func (s *AssignmentService) assignWithin(ctx context.Context, repos Repositories, params AssignParams, checkedIn bool) (AssignedSite, error) {
	reservation, err := repos.Reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return AssignedSite{}, mapRepoError(err)
	}
	if reservation.SitesAssigned >= reservation.SitesRequested {
		return AssignedSite{}, ErrReservationFull
	}

	campsite, err := repos.Campsites.GetCampsite(ctx, params.CampsiteID)
	if err != nil {
		return AssignedSite{}, mapRepoError(err)
	}
	if nights := params.Stay.Nights(); !campsite.Type.Serves(nights) {
		vErr := &ValidationError{}
		vErr.add("campsite_id", fmt.Sprintf("%s campsite cannot serve a %d-night stay", campsite.Type, nights))
		return AssignedSite{}, vErr
	}

	existing, err := repos.AssignedSites.ListAssignedSitesByCampsite(ctx, campsite.ID)
	if err != nil {
		return AssignedSite{}, mapRepoError(err)
	}
	conflicts := scheduler.DetectConflicts(occupancies(existing), scheduler.Occupancy{CampsiteID: campsite.ID, Stay: params.Stay})
	if len(conflicts) > 0 {
		conflictErr := &SiteConflictError{CampsiteID: campsite.ID}
		for _, c := range conflicts {
			conflictErr.ConflictingID = append(conflictErr.ConflictingID, c.WithID)
		}
		return AssignedSite{}, conflictErr
	}

	customerID := strings.TrimSpace(params.CustomerID)
	if customerID == "" {
		customerID = reservation.CustomerID
	}
	now := s.now()
	site := AssignedSite{
		ID:            s.idGenerator(),
		ReservationID: reservation.ID,
		CustomerID:    customerID,
		CampsiteID:    campsite.ID,
		Stay:          params.Stay,
		Locked:        params.Lock,
		DepositCents:  params.DepositCents,
		CheckedIn:     checkedIn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	site, err = repos.AssignedSites.CreateAssignedSite(ctx, site)
	if err != nil {
		return AssignedSite{}, mapRepoError(err)
	}

	reservation.SitesAssigned++
	reservation.UpdatedAt = now
	if _, err = repos.Reservations.UpdateReservation(ctx, reservation); err != nil {
		return AssignedSite{}, mapRepoError(err)
	}
	return site, nil
}

// Release removes a binding and frees its campsite. Releasing an unknown
// binding reports false with no error.
func (s *AssignmentService) Release(ctx context.Context, assignedSiteID string) (released bool, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Release", "assigned_site_id", assignedSiteID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to release campsite")
			return
		}
		logger.InfoContext(ctx, "campsite release processed", "released", released)
	}()

	var current AssignedSite
	current, released, err = s.releaseOnce(ctx, assignedSiteID)
	if err != nil || !released {
		return
	}

	s.committed(ctx, events.Event{
		Type:           events.AssignmentReleased,
		ReservationID:  current.ReservationID,
		AssignedSiteID: current.ID,
		CampsiteIDs:    []string{current.CampsiteID},
		CustomerID:     current.CustomerID,
		Start:          current.Stay.Start,
		End:            current.Stay.End,
	})
	if s.listener != nil {
		s.listener.AssignmentReleased(ctx, current)
	}
	return
}

// releaseOnce removes the binding under its campsite lock. The lock is
// dropped before returning so the release listener can take it again.
func (s *AssignmentService) releaseOnce(ctx context.Context, assignedSiteID string) (site AssignedSite, released bool, err error) {
	site, err = s.repos.AssignedSites.GetAssignedSite(ctx, assignedSiteID)
	if err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			err = nil
		}
		return
	}

	release, err := s.acquire(ctx, lock.CampsiteKey(site.CampsiteID))
	if err != nil {
		return
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		current, txErr := repos.AssignedSites.GetAssignedSite(ctx, assignedSiteID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if txErr = s.unbindWithin(ctx, repos, current); txErr != nil {
			return txErr
		}
		site = current
		return nil
	})
	if err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			err = nil
		}
		return
	}
	released = true
	return
}

// unbindWithin deletes a binding and decrements its reservation's counter.
func (s *AssignmentService) unbindWithin(ctx context.Context, repos Repositories, site AssignedSite) error {
	if err := repos.AssignedSites.DeleteAssignedSite(ctx, site.ID); err != nil {
		return mapRepoError(err)
	}
	reservation, err := repos.Reservations.GetReservation(ctx, site.ReservationID)
	if err != nil {
		return mapRepoError(err)
	}
	if reservation.SitesAssigned > 0 {
		reservation.SitesAssigned--
	}
	reservation.UpdatedAt = s.now()
	if _, err := repos.Reservations.UpdateReservation(ctx, reservation); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// Reassign moves a binding to another campsite or interval. The old binding
// is only removed in the same transaction that creates its replacement, so a
// failed reassignment leaves it untouched. An empty CampsiteID keeps the
// current campsite, a zero Stay keeps the current interval and a nil Lock
// keeps the current pin.
func (s *AssignmentService) Reassign(ctx context.Context, params ReassignParams) (site AssignedSite, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Reassign",
		"assigned_site_id", params.AssignedSiteID,
		"campsite_id", params.CampsiteID,
	)
	var previous AssignedSite
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to reassign campsite", ErrSiteConflict, ErrSiteLocked)
			return
		}
		logger.With("assigned_site_id", site.ID, "previous_campsite_id", previous.CampsiteID).
			InfoContext(ctx, "campsite reassigned")
	}()

	if strings.TrimSpace(params.AssignedSiteID) == "" {
		vErr := &ValidationError{}
		vErr.add("assigned_site_id", "assigned site id is required")
		err = vErr
		return
	}
	if !params.Stay.IsZero() {
		if err = params.Stay.Validate(); err != nil {
			return
		}
	}

	for attempt := 1; ; attempt++ {
		previous, site, err = s.reassignOnce(ctx, params)
		if !errors.Is(err, errBindingMoved) || attempt >= maxReassignAttempts {
			break
		}
	}
	if errors.Is(err, errBindingMoved) {
		err = &SiteConflictError{CampsiteID: params.CampsiteID, ConflictingID: []string{params.AssignedSiteID}}
	}
	if err != nil {
		site = AssignedSite{}
		return
	}

	s.committed(ctx, events.Event{
		Type:           events.AssignmentReassigned,
		ReservationID:  site.ReservationID,
		AssignedSiteID: site.ID,
		CampsiteIDs:    []string{previous.CampsiteID, site.CampsiteID},
		CustomerID:     site.CustomerID,
		Start:          site.Stay.Start,
		End:            site.Stay.End,
	})
	if s.listener != nil && (previous.CampsiteID != site.CampsiteID || !previous.Stay.Equal(site.Stay)) {
		s.listener.AssignmentReleased(ctx, previous)
	}
	return
}

func (s *AssignmentService) reassignOnce(ctx context.Context, params ReassignParams) (previous, site AssignedSite, err error) {
	snapshot, err := s.repos.AssignedSites.GetAssignedSite(ctx, params.AssignedSiteID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	target := params.CampsiteID
	if target == "" {
		target = snapshot.CampsiteID
	}

	release, err := s.acquire(ctx, lock.CampsiteKeys(snapshot.CampsiteID, target)...)
	if err != nil {
		return
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		current, txErr := repos.AssignedSites.GetAssignedSite(ctx, params.AssignedSiteID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if current.CampsiteID != snapshot.CampsiteID {
			return errBindingMoved
		}
		if current.Locked && target != current.CampsiteID {
			return ErrSiteLocked
		}

		stay := params.Stay
		if stay.IsZero() {
			stay = current.Stay
		}
		locked := current.Locked
		if params.Lock != nil {
			locked = *params.Lock
		}
		if txErr = s.unbindWithin(ctx, repos, current); txErr != nil {
			return txErr
		}
		created, txErr := s.assignWithin(ctx, repos, AssignParams{
			ReservationID: current.ReservationID,
			CampsiteID:    target,
			CustomerID:    current.CustomerID,
			Stay:          stay,
			Lock:          locked,
			DepositCents:  current.DepositCents,
		}, current.CheckedIn)
		if txErr != nil {
			return txErr
		}
		previous, site = current, created
		return nil
	})
	if err != nil && !errors.Is(err, errBindingMoved) {
		err = mapRepoError(err)
	}
	return
}

// ReassignEach applies reassignments for one reservation one at a time. Each
// item commits or fails on its own; the reservation's counter is reconciled
// afterwards. The returned error is non-nil only when the batch itself could
// not run to completion.
func (s *AssignmentService) ReassignEach(ctx context.Context, reservationID string, items []ReassignParams) (report ReassignReport, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ReassignEach", "reservation_id", reservationID, "items", len(items))
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to reassign reservation sites")
			return
		}
		logger.InfoContext(ctx, "reservation sites reassigned", "succeeded", report.Succeeded, "failed", report.Failed)
	}()

	report.ReservationID = reservationID
	if _, err = s.repos.Reservations.GetReservation(ctx, reservationID); err != nil {
		err = mapRepoError(err)
		return
	}

	for _, item := range items {
		if err = ctx.Err(); err != nil {
			break
		}
		outcome := ReassignOutcome{AssignedSiteID: item.AssignedSiteID}
		current, getErr := s.repos.AssignedSites.GetAssignedSite(ctx, item.AssignedSiteID)
		switch {
		case getErr != nil:
			outcome.Err = mapRepoError(getErr)
		case current.ReservationID != reservationID:
			outcome.Err = ErrNotFound
		default:
			outcome.Site, outcome.Err = s.Reassign(ctx, item)
		}
		if outcome.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	reconcileCtx := ctx
	if err != nil {
		reconcileCtx = context.WithoutCancel(ctx)
	}
	reservation, reconcileErr := s.Reconcile(reconcileCtx, reservationID)
	if reconcileErr != nil {
		err = errors.Join(err, reconcileErr)
		return
	}
	report.SitesAssigned = reservation.SitesAssigned
	return
}

// Reconcile recounts a reservation's bindings and rewrites SitesAssigned,
// clamped to SitesRequested.
func (s *AssignmentService) Reconcile(ctx context.Context, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		current, txErr := repos.Reservations.GetReservation(ctx, reservationID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		sites, txErr := repos.AssignedSites.ListAssignedSitesByReservation(ctx, reservationID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		count := min(len(sites), current.SitesRequested)
		if count == current.SitesAssigned {
			reservation = current
			return nil
		}
		current.SitesAssigned = count
		current.UpdatedAt = s.now()
		reservation, txErr = repos.Reservations.UpdateReservation(ctx, current)
		return mapRepoError(txErr)
	})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Reconcile", "reservation_id", reservationID).
			ErrorContext(ctx, "failed to reconcile reservation", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// SetCheckedIn records whether the guest has checked in to the binding.
func (s *AssignmentService) SetCheckedIn(ctx context.Context, assignedSiteID string, checkedIn bool) (site AssignedSite, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetCheckedIn", "assigned_site_id", assignedSiteID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to update check-in")
			return
		}
		logger.InfoContext(ctx, "check-in updated", "checked_in", checkedIn)
	}()

	site, err = s.repos.AssignedSites.GetAssignedSite(ctx, assignedSiteID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	site.CheckedIn = checkedIn
	site.UpdatedAt = s.now()
	site, err = s.repos.AssignedSites.UpdateAssignedSite(ctx, site)
	err = mapRepoError(err)
	return
}

// GetAssignment returns one binding.
func (s *AssignmentService) GetAssignment(ctx context.Context, assignedSiteID string) (AssignedSite, error) {
	site, err := s.repos.AssignedSites.GetAssignedSite(ctx, assignedSiteID)
	return site, mapRepoError(err)
}

// ListForReservation returns the bindings of one reservation.
func (s *AssignmentService) ListForReservation(ctx context.Context, reservationID string) ([]AssignedSite, error) {
	sites, err := s.repos.AssignedSites.ListAssignedSitesByReservation(ctx, reservationID)
	return sites, mapRepoError(err)
}

// ListForCampsite returns the bindings of one campsite.
func (s *AssignmentService) ListForCampsite(ctx context.Context, campsiteID string) ([]AssignedSite, error) {
	sites, err := s.repos.AssignedSites.ListAssignedSitesByCampsite(ctx, campsiteID)
	return sites, mapRepoError(err)
}

// acquire takes the campsite locks. A canceled context is returned as is;
// any other locker failure is an infrastructure error.
func (s *AssignmentService) acquire(ctx context.Context, keys ...string) (lock.Release, error) {
	release, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrInfrastructure, err)
	}
	return release, nil
}

// committed runs the post-commit side effects of a write.
func (s *AssignmentService) committed(ctx context.Context, event events.Event) {
	if s.snapshots != nil {
		s.snapshots.Invalidate()
	}
	event.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.loggerWith(ctx, "Publish", "event_type", event.Type).
			WarnContext(ctx, "failed to publish event", "error", err)
	}
}

func validateAssignParams(params AssignParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.ReservationID) == "" {
		vErr.add("reservation_id", "reservation id is required")
	}
	if strings.TrimSpace(params.CampsiteID) == "" {
		vErr.add("campsite_id", "campsite id is required")
	}
	if params.DepositCents < 0 {
		vErr.add("deposit_cents", "deposit cannot be negative")
	}
	return vErr
}
