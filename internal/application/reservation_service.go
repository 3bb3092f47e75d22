package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campground/internal/fees"
	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

// ReservationService manages the reservation lifecycle. Moving bindings is
// delegated to the AssignmentService so that every campsite write goes
// through its lock and transaction.
type ReservationService struct {
	repos       Repositories
	tx          Transactor
	rates       YearlyRatesRepository
	assignments *AssignmentService
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewReservationService constructs a reservation service.
func NewReservationService(repos Repositories, tx Transactor, rates YearlyRatesRepository, assignments *AssignmentService, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(repos, tx, rates, assignments, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(repos Repositories, tx Transactor, rates YearlyRatesRepository, assignments *AssignmentService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		repos:       repos,
		tx:          tx,
		rates:       rates,
		assignments: assignments,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation records a request for sites with no campsites assigned yet.
// Without an explicit deposit the policy deposit for the arrival year is used,
// or zero when that year has no rate row.
func (s *ReservationService) CreateReservation(ctx context.Context, input ReservationInput) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation", "customer_id", input.CustomerID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to create reservation")
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if err = validateReservationInput(input); err != nil {
		return
	}

	var deposit int64
	if input.DepositCents != nil {
		deposit = *input.DepositCents
	} else if deposit, err = s.policyDeposit(ctx, input.Stay, input.SitesRequested); err != nil {
		return
	}

	now := s.now()
	reservation, err = s.repos.Reservations.CreateReservation(ctx, Reservation{
		ID:             s.idGenerator(),
		CustomerID:     strings.TrimSpace(input.CustomerID),
		Stay:           input.Stay,
		SitesRequested: input.SitesRequested,
		DepositCents:   deposit,
		Notes:          strings.TrimSpace(input.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		reservation = Reservation{}
		err = mapRepoError(err)
	}
	return
}

func (s *ReservationService) policyDeposit(ctx context.Context, stay interval.Interval, sites int) (int64, error) {
	if s.rates == nil {
		return 0, nil
	}
	rates, err := s.rates.GetYearlyRates(ctx, stay.Start.Year())
	if err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	deposit, err := fees.Deposit(rates.Rates, stay, sites)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("deposit_cents", err.Error())
		return 0, vErr
	}
	return deposit, nil
}

// UpdateReservation replaces the stay, notes and requested count. The deposit
// and creation time are kept. Existing bindings are not moved; use
// RescheduleReservation for that.
func (s *ReservationService) UpdateReservation(ctx context.Context, reservationID string, input ReservationInput) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation", "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to update reservation")
			return
		}
		logger.InfoContext(ctx, "reservation updated")
	}()

	if err = validateReservationInput(input); err != nil {
		return
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		existing, txErr := repos.Reservations.GetReservation(ctx, reservationID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if input.SitesRequested < existing.SitesAssigned {
			vErr := &ValidationError{}
			vErr.add("sites_requested", fmt.Sprintf("%d sites are already assigned", existing.SitesAssigned))
			return vErr
		}
		updated := existing
		updated.CustomerID = strings.TrimSpace(input.CustomerID)
		updated.Stay = input.Stay
		updated.SitesRequested = input.SitesRequested
		updated.Notes = strings.TrimSpace(input.Notes)
		updated.UpdatedAt = s.now()
		reservation, txErr = repos.Reservations.UpdateReservation(ctx, updated)
		return mapRepoError(txErr)
	})
	if err != nil {
		reservation = Reservation{}
		err = mapRepoError(err)
	}
	return
}

// RescheduleReservation moves a reservation to a new stay and then moves each
// of its bindings one at a time. A binding keeps its campsite when that
// campsite is free for the new stay; otherwise an unlocked binding moves to
// another free campsite serving the new stay. Bindings that cannot move fail
// individually and are reported.
func (s *ReservationService) RescheduleReservation(ctx context.Context, reservationID string, stay interval.Interval) (report ReassignReport, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RescheduleReservation", "reservation_id", reservationID, "stay", stay.String())
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to reschedule reservation")
			return
		}
		logger.InfoContext(ctx, "reservation rescheduled", "succeeded", report.Succeeded, "failed", report.Failed)
	}()

	if err = stay.Validate(); err != nil {
		return
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		reservation, txErr := repos.Reservations.GetReservation(ctx, reservationID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		reservation.Stay = stay
		reservation.UpdatedAt = s.now()
		_, txErr = repos.Reservations.UpdateReservation(ctx, reservation)
		return mapRepoError(txErr)
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var sites []AssignedSite
	sites, err = s.repos.AssignedSites.ListAssignedSitesByReservation(ctx, reservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var items []ReassignParams
	items, err = s.planMoves(ctx, sites, stay)
	if err != nil {
		return
	}
	return s.assignments.ReassignEach(ctx, reservationID, items)
}

// planMoves picks a target campsite for each binding from a snapshot. The
// AssignmentService re-checks every target under its lock.
func (s *ReservationService) planMoves(ctx context.Context, sites []AssignedSite, stay interval.Interval) ([]ReassignParams, error) {
	siteType := SiteTypeForNights(stay.Nights())
	free, err := freeCampsites(ctx, s.repos.Campsites, s.repos.AssignedSites, stay, []SiteType{siteType})
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool)

	items := make([]ReassignParams, 0, len(sites))
	for _, site := range sites {
		item := ReassignParams{AssignedSiteID: site.ID, Stay: stay}

		stays, err := s.staysInPlace(ctx, site, stay)
		if err != nil {
			return nil, err
		}
		if stays {
			taken[site.CampsiteID] = true
			items = append(items, item)
			continue
		}
		if site.Locked {
			// cannot leave its campsite; Reassign reports why
			items = append(items, item)
			continue
		}
		for _, candidate := range free {
			if !taken[candidate.ID] {
				taken[candidate.ID] = true
				item.CampsiteID = candidate.ID
				break
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// staysInPlace reports whether site's campsite can serve the new stay once
// the binding itself is ignored.
func (s *ReservationService) staysInPlace(ctx context.Context, site AssignedSite, stay interval.Interval) (bool, error) {
	campsite, err := s.repos.Campsites.GetCampsite(ctx, site.CampsiteID)
	if err != nil {
		return false, mapRepoError(err)
	}
	if !campsite.Type.Serves(stay.Nights()) {
		return false, nil
	}
	others, err := s.repos.AssignedSites.ListAssignedSitesByCampsite(ctx, site.CampsiteID)
	if err != nil {
		return false, mapRepoError(err)
	}
	for _, other := range others {
		if other.ID != site.ID && other.Stay.Overlaps(stay) {
			return false, nil
		}
	}
	return true, nil
}

// DeleteReservation removes a reservation that holds no bindings. A missing
// reservation reports false with no error.
func (s *ReservationService) DeleteReservation(ctx context.Context, reservationID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteReservation", "reservation_id", reservationID)
	if err := s.repos.Reservations.DeleteReservation(ctx, reservationID); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			err = ErrReservationHasAssignments
		}
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		logOutcome(ctx, logger, err, "failed to delete reservation", ErrReservationHasAssignments)
		return false, err
	}
	logger.InfoContext(ctx, "reservation deleted")
	return true, nil
}

// GetReservation returns one reservation.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	reservation, err := s.repos.Reservations.GetReservation(ctx, reservationID)
	return reservation, mapRepoError(err)
}

// ListReservationsByCustomer returns a customer's reservations ordered by arrival.
func (s *ReservationService) ListReservationsByCustomer(ctx context.Context, customerID string) ([]Reservation, error) {
	reservations, err := s.repos.Reservations.ListReservationsByCustomer(ctx, strings.TrimSpace(customerID))
	return reservations, mapRepoError(err)
}

// ListReservationsInRange returns reservations whose stay overlaps window.
func (s *ReservationService) ListReservationsInRange(ctx context.Context, window interval.Interval) ([]Reservation, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	reservations, err := s.repos.Reservations.ListReservationsInRange(ctx, window.Start, window.End)
	return reservations, mapRepoError(err)
}

func validateReservationInput(input ReservationInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.CustomerID) == "" {
		vErr.add("customer_id", "customer id is required")
	}
	if input.SitesRequested < 1 {
		vErr.add("sites_requested", "at least one site is required")
	}
	if input.DepositCents != nil && *input.DepositCents < 0 {
		vErr.add("deposit_cents", "deposit cannot be negative")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return input.Stay.Validate()
}
