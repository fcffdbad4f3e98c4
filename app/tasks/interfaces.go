package tasks

import (
	"context"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
	"github.com/statalih/statalih/app/media"
)

// FeedStore is the persistence the ingestion pipeline depends on.
// Implemented by *database.Store.
type FeedStore interface {
	FindFeedByURL(ctx context.Context, sourceURL string) (*database.Feed, error)
	CreateFeedWithItems(ctx context.Context, f *database.Feed, items []database.Item) (int64, []int64, error)
	FindPlaceByID(ctx context.Context, id int64) (*database.Place, error)
	CreateImage(ctx context.Context, itemID int64, img *database.Image) (int64, error)
}

var _ FeedStore = (*database.Store)(nil)

type Fetcher interface {
	Fetch(ctx context.Context, target string) (*feed.Response, error)
}

var _ Fetcher = (*feed.Fetcher)(nil)

// ImageLocator finds an image for an item that has none in its feed entry.
type ImageLocator interface {
	Locate(ctx context.Context, pageURL string) (string, error)
}

var _ ImageLocator = (*feed.ImageLocator)(nil)

// MediaStore keeps downloaded image files.
type MediaStore interface {
	Save(data []byte, ext string) (path string, created bool, err error)
	Remove(path string) error
}

var _ MediaStore = (*media.Store)(nil)
