package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campground/internal/persistence"
)

const waitingListColumns = `id, customer_id, nights, sites, requested_on, arrival_at, departure_at, priority, notes, created_at, updated_at`

// CreateWaitingListEntry inserts an entry.
func (r repositories) CreateWaitingListEntry(ctx context.Context, entry persistence.WaitingListEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.exec(ctx, false, `
		INSERT INTO waiting_list (`+waitingListColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CustomerID,
		entry.Nights,
		entry.Sites,
		formatTime(entry.RequestedOn),
		formatTime(entry.ArrivalAt),
		formatTime(entry.DepartureAt),
		boolInt(entry.Priority),
		nullableString(entry.Notes),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
}

// UpdateWaitingListEntry updates an existing entry.
func (r repositories) UpdateWaitingListEntry(ctx context.Context, entry persistence.WaitingListEntry) error {
	return r.exec(ctx, true, `
		UPDATE waiting_list
		SET customer_id = ?, nights = ?, sites = ?, requested_on = ?, arrival_at = ?, departure_at = ?,
		    priority = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		entry.CustomerID,
		entry.Nights,
		entry.Sites,
		formatTime(entry.RequestedOn),
		formatTime(entry.ArrivalAt),
		formatTime(entry.DepartureAt),
		boolInt(entry.Priority),
		nullableString(entry.Notes),
		formatTime(entry.UpdatedAt),
		entry.ID,
	)
}

// GetWaitingListEntry retrieves an entry by ID.
func (r repositories) GetWaitingListEntry(ctx context.Context, id string) (persistence.WaitingListEntry, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+waitingListColumns+` FROM waiting_list WHERE id = ?`, id)
	return r.scanWaitingListEntry(row)
}

// ListWaitingListEntries returns every entry ordered by creation.
func (r repositories) ListWaitingListEntries(ctx context.Context) ([]persistence.WaitingListEntry, error) {
	return r.queryWaitingListEntries(ctx, `SELECT `+waitingListColumns+` FROM waiting_list ORDER BY created_at, id`)
}

// ListWaitingListEntriesByCustomer returns one customer's entries ordered by creation.
func (r repositories) ListWaitingListEntriesByCustomer(ctx context.Context, customerID string) ([]persistence.WaitingListEntry, error) {
	return r.queryWaitingListEntries(ctx,
		`SELECT `+waitingListColumns+` FROM waiting_list WHERE customer_id = ? ORDER BY created_at, id`, customerID)
}

func (r repositories) queryWaitingListEntries(ctx context.Context, query string, args ...any) ([]persistence.WaitingListEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.WaitingListEntry, 0)
	for rows.Next() {
		entry, err := r.scanWaitingListEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// DeleteWaitingListEntry removes an entry by ID.
func (r repositories) DeleteWaitingListEntry(ctx context.Context, id string) error {
	return r.exec(ctx, true, `DELETE FROM waiting_list WHERE id = ?`, id)
}

func (r repositories) scanWaitingListEntry(row rowScanner) (persistence.WaitingListEntry, error) {
	var (
		entry persistence.WaitingListEntry
		notes sql.NullString
		times [5]string
	)
	err := row.Scan(
		&entry.ID,
		&entry.CustomerID,
		&entry.Nights,
		&entry.Sites,
		&times[0],
		&times[1],
		&times[2],
		&entry.Priority,
		&notes,
		&times[3],
		&times[4],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.WaitingListEntry{}, persistence.ErrNotFound
		}
		return persistence.WaitingListEntry{}, fmt.Errorf("sqlite: scan waiting list entry: %w", err)
	}
	entry.Notes = stringPtr(notes)
	targets := [5]*time.Time{&entry.RequestedOn, &entry.ArrivalAt, &entry.DepartureAt, &entry.CreatedAt, &entry.UpdatedAt}
	for i, target := range targets {
		if *target, err = parseTime(times[i], r.loc); err != nil {
			return persistence.WaitingListEntry{}, err
		}
	}
	return entry, nil
}
