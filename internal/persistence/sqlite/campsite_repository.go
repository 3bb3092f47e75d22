package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/campground/internal/persistence"
)

const campsiteColumns = `id, name, section, number, max_length_feet, width_feet, accepts_slide_out, pull_through, site_type, notes, created_at, updated_at`

// CreateCampsite inserts a new campsite.
func (r repositories) CreateCampsite(ctx context.Context, campsite persistence.Campsite) error {
	if campsite.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.exec(ctx, false, `
		INSERT INTO campsites (`+campsiteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		campsite.ID,
		campsite.Name,
		campsite.Section,
		campsite.Number,
		campsite.MaxLengthFeet,
		campsite.WidthFeet,
		boolInt(campsite.AcceptsSlideOut),
		boolInt(campsite.PullThrough),
		campsite.SiteType,
		nullableString(campsite.Notes),
		formatTime(campsite.CreatedAt),
		formatTime(campsite.UpdatedAt),
	)
}

// UpdateCampsite updates every mutable column of an existing campsite.
func (r repositories) UpdateCampsite(ctx context.Context, campsite persistence.Campsite) error {
	return r.exec(ctx, true, `
		UPDATE campsites
		SET name = ?, section = ?, number = ?, max_length_feet = ?, width_feet = ?,
		    accepts_slide_out = ?, pull_through = ?, site_type = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		campsite.Name,
		campsite.Section,
		campsite.Number,
		campsite.MaxLengthFeet,
		campsite.WidthFeet,
		boolInt(campsite.AcceptsSlideOut),
		boolInt(campsite.PullThrough),
		campsite.SiteType,
		nullableString(campsite.Notes),
		formatTime(campsite.UpdatedAt),
		campsite.ID,
	)
}

// GetCampsite retrieves a campsite by ID.
func (r repositories) GetCampsite(ctx context.Context, id string) (persistence.Campsite, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+campsiteColumns+` FROM campsites WHERE id = ?`, id)
	return r.scanCampsite(row)
}

// GetCampsiteByName retrieves a campsite by name, ignoring case.
func (r repositories) GetCampsiteByName(ctx context.Context, name string) (persistence.Campsite, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+campsiteColumns+` FROM campsites WHERE name = ?`, name)
	return r.scanCampsite(row)
}

// ListCampsites returns all campsites ordered by name.
func (r repositories) ListCampsites(ctx context.Context) ([]persistence.Campsite, error) {
	return r.queryCampsites(ctx, `SELECT `+campsiteColumns+` FROM campsites ORDER BY name COLLATE BINARY, id`)
}

// ListCampsitesByType returns the campsites of one site type.
func (r repositories) ListCampsitesByType(ctx context.Context, siteType string) ([]persistence.Campsite, error) {
	return r.queryCampsites(ctx,
		`SELECT `+campsiteColumns+` FROM campsites WHERE site_type = ? COLLATE NOCASE ORDER BY name COLLATE BINARY, id`, siteType)
}

// DeleteCampsite removes a campsite. Referenced campsites fail with ErrForeignKeyViolation.
func (r repositories) DeleteCampsite(ctx context.Context, id string) error {
	return r.exec(ctx, true, `DELETE FROM campsites WHERE id = ?`, id)
}

func (r repositories) queryCampsites(ctx context.Context, query string, args ...any) ([]persistence.Campsite, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	campsites := make([]persistence.Campsite, 0)
	for rows.Next() {
		campsite, err := r.scanCampsite(rows)
		if err != nil {
			return nil, err
		}
		campsites = append(campsites, campsite)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return campsites, nil
}

func (r repositories) scanCampsite(row rowScanner) (persistence.Campsite, error) {
	var (
		campsite             persistence.Campsite
		notes                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&campsite.ID,
		&campsite.Name,
		&campsite.Section,
		&campsite.Number,
		&campsite.MaxLengthFeet,
		&campsite.WidthFeet,
		&campsite.AcceptsSlideOut,
		&campsite.PullThrough,
		&campsite.SiteType,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Campsite{}, persistence.ErrNotFound
		}
		return persistence.Campsite{}, fmt.Errorf("sqlite: scan campsite: %w", err)
	}
	campsite.Notes = stringPtr(notes)
	if campsite.CreatedAt, err = parseTime(createdAt, r.loc); err != nil {
		return persistence.Campsite{}, err
	}
	if campsite.UpdatedAt, err = parseTime(updatedAt, r.loc); err != nil {
		return persistence.Campsite{}, err
	}
	return campsite, nil
}
