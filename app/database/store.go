package database

import "context"

// Store groups the repositories and exposes the operations the ingestion
// pipeline needs.
type Store struct {
	Feeds  *FeedRepository
	Items  *ItemRepository
	Places *PlaceRepository
	Images *ImageRepository
}

func NewStore(db *DB) *Store {
	return &Store{
		Feeds:  NewFeedRepository(db),
		Items:  NewItemRepository(db),
		Places: NewPlaceRepository(db),
		Images: NewImageRepository(db),
	}
}

func (s *Store) FindFeedByURL(ctx context.Context, sourceURL string) (*Feed, error) {
	return s.Feeds.FindByURL(ctx, sourceURL)
}

func (s *Store) CreateFeedWithItems(ctx context.Context, f *Feed, items []Item) (int64, []int64, error) {
	return s.Feeds.CreateWithItems(ctx, f, items)
}

func (s *Store) FindPlaceByID(ctx context.Context, id int64) (*Place, error) {
	return s.Places.FindByID(ctx, id)
}

func (s *Store) CreateImage(ctx context.Context, itemID int64, img *Image) (int64, error) {
	return s.Images.Create(ctx, itemID, img)
}
