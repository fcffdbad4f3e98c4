package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ItemRepository handles database operations for feed items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// ListByFeed returns the newest items of a feed. A limit of zero or less
// returns all items.
func (r *ItemRepository) ListByFeed(ctx context.Context, feedID int64, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, feed_id, guid, title, link, description, author, image_url, image_id,
		       published_at, created_at
		FROM items
		WHERE feed_id = ?
		ORDER BY published_at IS NULL, published_at DESC, id
		LIMIT ?
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var (
			item        Item
			imageID     sql.NullInt64
			publishedAt sql.NullTime
		)
		err := rows.Scan(&item.ID, &item.FeedID, &item.GUID, &item.Title, &item.Link, &item.Description,
			&item.Author, &item.ImageURL, &imageID, &publishedAt, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		item.ImageID = scannedID(imageID)
		item.PublishedAt = scannedTime(publishedAt)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// CountByFeed returns the number of items stored for a feed
func (r *ItemRepository) CountByFeed(ctx context.Context, feedID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE feed_id = ?", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}
