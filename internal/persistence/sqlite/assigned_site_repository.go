package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campground/internal/persistence"
)

const assignedSiteColumns = `id, reservation_id, customer_id, campsite_id, arrival_at, departure_at, locked, deposit_cents, checked_in, created_at, updated_at`

// CreateAssignedSite inserts a binding. Unknown campsite or reservation IDs
// fail with ErrForeignKeyViolation.
func (r repositories) CreateAssignedSite(ctx context.Context, site persistence.AssignedSite) error {
	if site.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.exec(ctx, false, `
		INSERT INTO assigned_sites (`+assignedSiteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.ID,
		site.ReservationID,
		site.CustomerID,
		site.CampsiteID,
		formatTime(site.ArrivalAt),
		formatTime(site.DepartureAt),
		boolInt(site.Locked),
		site.DepositCents,
		boolInt(site.CheckedIn),
		formatTime(site.CreatedAt),
		formatTime(site.UpdatedAt),
	)
}

// UpdateAssignedSite updates an existing binding.
func (r repositories) UpdateAssignedSite(ctx context.Context, site persistence.AssignedSite) error {
	return r.exec(ctx, true, `
		UPDATE assigned_sites
		SET reservation_id = ?, customer_id = ?, campsite_id = ?, arrival_at = ?, departure_at = ?,
		    locked = ?, deposit_cents = ?, checked_in = ?, updated_at = ?
		WHERE id = ?`,
		site.ReservationID,
		site.CustomerID,
		site.CampsiteID,
		formatTime(site.ArrivalAt),
		formatTime(site.DepartureAt),
		boolInt(site.Locked),
		site.DepositCents,
		boolInt(site.CheckedIn),
		formatTime(site.UpdatedAt),
		site.ID,
	)
}

// GetAssignedSite retrieves a binding by ID.
func (r repositories) GetAssignedSite(ctx context.Context, id string) (persistence.AssignedSite, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+assignedSiteColumns+` FROM assigned_sites WHERE id = ?`, id)
	return r.scanAssignedSite(row)
}

// ListAssignedSites returns every binding ordered by arrival.
func (r repositories) ListAssignedSites(ctx context.Context) ([]persistence.AssignedSite, error) {
	return r.queryAssignedSites(ctx, `SELECT `+assignedSiteColumns+` FROM assigned_sites ORDER BY arrival_at, id`)
}

// ListAssignedSitesByReservation returns the bindings of one reservation.
func (r repositories) ListAssignedSitesByReservation(ctx context.Context, reservationID string) ([]persistence.AssignedSite, error) {
	return r.queryAssignedSites(ctx,
		`SELECT `+assignedSiteColumns+` FROM assigned_sites WHERE reservation_id = ? ORDER BY arrival_at, id`, reservationID)
}

// ListAssignedSitesByCampsite returns the bindings of one campsite.
func (r repositories) ListAssignedSitesByCampsite(ctx context.Context, campsiteID string) ([]persistence.AssignedSite, error) {
	return r.queryAssignedSites(ctx,
		`SELECT `+assignedSiteColumns+` FROM assigned_sites WHERE campsite_id = ? ORDER BY arrival_at, id`, campsiteID)
}

// DeleteAssignedSite removes a binding by ID.
func (r repositories) DeleteAssignedSite(ctx context.Context, id string) error {
	return r.exec(ctx, true, `DELETE FROM assigned_sites WHERE id = ?`, id)
}

func (r repositories) queryAssignedSites(ctx context.Context, query string, args ...any) ([]persistence.AssignedSite, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	sites := make([]persistence.AssignedSite, 0)
	for rows.Next() {
		site, err := r.scanAssignedSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sites, nil
}

func (r repositories) scanAssignedSite(row rowScanner) (persistence.AssignedSite, error) {
	var (
		site                                      persistence.AssignedSite
		arrival, departure, createdAt, updatedAt string
	)
	err := row.Scan(
		&site.ID,
		&site.ReservationID,
		&site.CustomerID,
		&site.CampsiteID,
		&arrival,
		&departure,
		&site.Locked,
		&site.DepositCents,
		&site.CheckedIn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AssignedSite{}, persistence.ErrNotFound
		}
		return persistence.AssignedSite{}, fmt.Errorf("sqlite: scan assigned site: %w", err)
	}
	for _, field := range []struct {
		dst *time.Time
		src string
	}{
		{&site.ArrivalAt, arrival},
		{&site.DepartureAt, departure},
		{&site.CreatedAt, createdAt},
		{&site.UpdatedAt, updatedAt},
	} {
		if *field.dst, err = parseTime(field.src, r.loc); err != nil {
			return persistence.AssignedSite{}, err
		}
	}
	return site, nil
}
