package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campground/internal/persistence"
)

const reservationColumns = `id, customer_id, arrival_at, departure_at, sites_requested, sites_assigned, deposit_cents, notes, created_at, updated_at`

// CreateReservation inserts a reservation.
func (r repositories) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.exec(ctx, false, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.CustomerID,
		formatTime(reservation.ArrivalAt),
		formatTime(reservation.DepartureAt),
		reservation.SitesRequested,
		reservation.SitesAssigned,
		reservation.DepositCents,
		nullableString(reservation.Notes),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
}

// UpdateReservation updates an existing reservation.
func (r repositories) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	return r.exec(ctx, true, `
		UPDATE reservations
		SET customer_id = ?, arrival_at = ?, departure_at = ?, sites_requested = ?, sites_assigned = ?,
		    deposit_cents = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		reservation.CustomerID,
		formatTime(reservation.ArrivalAt),
		formatTime(reservation.DepartureAt),
		reservation.SitesRequested,
		reservation.SitesAssigned,
		reservation.DepositCents,
		nullableString(reservation.Notes),
		formatTime(reservation.UpdatedAt),
		reservation.ID,
	)
}

// GetReservation retrieves a reservation by ID.
func (r repositories) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return r.scanReservation(row)
}

// ListReservationsByCustomer returns a customer's reservations ordered by arrival.
func (r repositories) ListReservationsByCustomer(ctx context.Context, customerID string) ([]persistence.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE customer_id = ? ORDER BY arrival_at, id`, customerID)
}

// ListReservationsInRange returns reservations whose stay overlaps [start, end).
func (r repositories) ListReservationsInRange(ctx context.Context, start, end time.Time) ([]persistence.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE arrival_at < ? AND ? < departure_at ORDER BY arrival_at, id`,
		formatTime(end), formatTime(start))
}

// DeleteReservation removes a reservation. Reservations with bindings fail with ErrForeignKeyViolation.
func (r repositories) DeleteReservation(ctx context.Context, id string) error {
	return r.exec(ctx, true, `DELETE FROM reservations WHERE id = ?`, id)
}

func (r repositories) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

func (r repositories) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                               persistence.Reservation
		notes                                     sql.NullString
		arrival, departure, createdAt, updatedAt string
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.CustomerID,
		&arrival,
		&departure,
		&reservation.SitesRequested,
		&reservation.SitesAssigned,
		&reservation.DepositCents,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, fmt.Errorf("sqlite: scan reservation: %w", err)
	}
	reservation.Notes = stringPtr(notes)
	if reservation.ArrivalAt, err = parseTime(arrival, r.loc); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.DepartureAt, err = parseTime(departure, r.loc); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTime(createdAt, r.loc); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt, r.loc); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
