package database

import (
	"context"
	"fmt"
	"time"
)

// ImageRepository handles database operations for item images
type ImageRepository struct {
	db *DB
}

func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create stores image metadata for an item and links the item to it.
func (r *ImageRepository) Create(ctx context.Context, itemID int64, img *Image) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO images (item_id, source_url, path, content_type, size, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, itemID, img.SourceURL, img.Path, img.ContentType, img.Size, img.Width, img.Height, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", conflictOrErr(err))
	}

	imageID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get image ID: %w", err)
	}

	res, err = tx.ExecContext(ctx, `UPDATE items SET image_id = ? WHERE id = ?`, imageID, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to link image to item: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return 0, fmt.Errorf("failed to link image to item %d: item not found", itemID)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit image: %w", err)
	}

	img.ID = imageID
	img.ItemID = itemID
	img.CreatedAt = now

	return imageID, nil
}

// FindByItemID returns the image stored for an item, nil if there is none
func (r *ImageRepository) FindByItemID(ctx context.Context, itemID int64) (*Image, error) {
	var img Image
	err := r.db.QueryRowContext(ctx, `
		SELECT id, item_id, source_url, path, content_type, size, width, height, created_at
		FROM images WHERE item_id = ?
	`, itemID).Scan(&img.ID, &img.ItemID, &img.SourceURL, &img.Path, &img.ContentType,
		&img.Size, &img.Width, &img.Height, &img.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}
