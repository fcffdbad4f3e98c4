package database

import (
	"database/sql"
	"time"

	"github.com/statalih/statalih/app/feed"
)

// Feed represents a feed record in the database
type Feed struct {
	ID            int64             `json:"id"`
	PlaceID       *int64            `json:"place_id,omitempty"`
	SourceURL     string            `json:"source_url"` // unique, the URL the feed was fetched from
	Slug          string            `json:"slug"`       // unique
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Link          string            `json:"link"` // Homepage URL from the feed's <link> element
	Language      string            `json:"language,omitempty"`
	ETag          string            `json:"etag,omitempty"`
	Coordinates   *feed.Coordinates `json:"coordinates,omitempty"`
	LastBuildDate *time.Time        `json:"last_build_date,omitempty"`
	LastFetchAt   *time.Time        `json:"last_fetch_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Item represents a feed item record in the database
type Item struct {
	ID          int64      `json:"id"`
	FeedID      int64      `json:"feed_id"`
	GUID        string     `json:"guid"` // unique per feed
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Author      string     `json:"author,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	ImageID     *int64     `json:"image_id,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Image represents a stored item image
type Image struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	SourceURL   string    `json:"source_url"`
	Path        string    `json:"path"` // relative to the images directory
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

// Place represents a geographic place feeds can belong to
type Place struct {
	ID               int64             `json:"id"`
	ParentID         *int64            `json:"parent_id,omitempty"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	AdministrativeID string            `json:"administrative_id,omitempty"`
	Coordinates      *feed.Coordinates `json:"coordinates,omitempty"`
	Description      string            `json:"description"`
	Link             string            `json:"link"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func nullableCoordinates(c *feed.Coordinates) (lat, lon any) {
	if c == nil {
		return nil, nil
	}
	return c.Latitude, c.Longitude
}

func scannedCoordinates(lat, lon sql.NullFloat64) *feed.Coordinates {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &feed.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
}

func scannedTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scannedID(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}
