package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const feedColumns = `id, place_id, source_url, slug, title, description, link, language, etag,
	latitude, longitude, last_build_date, last_fetch_at, created_at, updated_at`

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// CreateWithItems inserts a feed and all of its items in one transaction.
// Either everything is stored or nothing is. Uniqueness violations are
// returned as *feed.ConflictError.
func (r *FeedRepository) CreateWithItems(ctx context.Context, f *Feed, items []Item) (int64, []int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	lat, lon := nullableCoordinates(f.Coordinates)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO feeds (place_id, source_url, slug, title, description, link, language, etag,
			latitude, longitude, last_build_date, last_fetch_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.PlaceID, f.SourceURL, f.Slug, f.Title, f.Description, f.Link, f.Language, f.ETag,
		lat, lon, f.LastBuildDate, f.LastFetchAt, now, now)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to insert feed: %w", conflictOrErr(err))
	}

	feedID, err := res.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get feed ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (feed_id, guid, title, link, description, author, image_url, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	itemIDs := make([]int64, 0, len(items))
	for _, item := range items {
		res, err := stmt.ExecContext(ctx, feedID, item.GUID, item.Title, item.Link, item.Description,
			item.Author, item.ImageURL, item.PublishedAt, now)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to insert item %q: %w", item.GUID, conflictOrErr(err))
		}

		id, err := res.LastInsertId()
		if err != nil {
			return 0, nil, fmt.Errorf("failed to get item ID: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit feed: %w", err)
	}

	f.ID = feedID
	f.CreatedAt = now
	f.UpdatedAt = now

	return feedID, itemIDs, nil
}

// FindByURL retrieves a feed by its source URL, nil if there is none
func (r *FeedRepository) FindByURL(ctx context.Context, sourceURL string) (*Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE source_url = ?`, sourceURL)

	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}

	return f, nil
}

// FindByID retrieves a feed by its ID, nil if there is none
func (r *FeedRepository) FindByID(ctx context.Context, id int64) (*Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)

	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by ID: %w", err)
	}

	return f, nil
}

// List returns all feeds ordered by title
func (r *FeedRepository) List(ctx context.Context) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	feeds := make([]Feed, 0)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// Count returns the total number of feeds
func (r *FeedRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var (
		f             Feed
		placeID       sql.NullInt64
		lat, lon      sql.NullFloat64
		lastBuildDate sql.NullTime
		lastFetchAt   sql.NullTime
	)

	err := row.Scan(&f.ID, &placeID, &f.SourceURL, &f.Slug, &f.Title, &f.Description, &f.Link,
		&f.Language, &f.ETag, &lat, &lon, &lastBuildDate, &lastFetchAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	f.PlaceID = scannedID(placeID)
	f.Coordinates = scannedCoordinates(lat, lon)
	f.LastBuildDate = scannedTime(lastBuildDate)
	f.LastFetchAt = scannedTime(lastFetchAt)

	return &f, nil
}
