package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const placeColumns = `id, parent_id, name, slug, administrative_id, latitude, longitude,
	description, link, created_at, updated_at`

// PlaceRepository handles database operations for places
type PlaceRepository struct {
	db *DB
}

func NewPlaceRepository(db *DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create inserts a place. A taken slug is returned as *feed.ConflictError.
func (r *PlaceRepository) Create(ctx context.Context, p *Place) (int64, error) {
	now := time.Now().UTC()
	lat, lon := nullableCoordinates(p.Coordinates)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO places (parent_id, name, slug, administrative_id, latitude, longitude,
			description, link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ParentID, p.Name, p.Slug, p.AdministrativeID, lat, lon, p.Description, p.Link, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert place: %w", conflictOrErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get place ID: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	return id, nil
}

// FindByID retrieves a place by its ID, nil if there is none
func (r *PlaceRepository) FindByID(ctx context.Context, id int64) (*Place, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id)

	p, err := scanPlace(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place by ID: %w", err)
	}

	return p, nil
}

// List returns all places ordered by name
func (r *PlaceRepository) List(ctx context.Context) ([]Place, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+placeColumns+` FROM places ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	places := make([]Place, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		places = append(places, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating place rows: %w", err)
	}

	return places, nil
}

func scanPlace(row rowScanner) (*Place, error) {
	var (
		p        Place
		parentID sql.NullInt64
		lat, lon sql.NullFloat64
	)

	err := row.Scan(&p.ID, &parentID, &p.Name, &p.Slug, &p.AdministrativeID, &lat, &lon,
		&p.Description, &p.Link, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ParentID = scannedID(parentID)
	p.Coordinates = scannedCoordinates(lat, lon)

	return &p, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
