package tasks

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"sync"
	"testing"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
)

type mockStore struct {
	mu           sync.Mutex
	feeds        map[string]*database.Feed
	places       map[int64]*database.Place
	created      []*database.Feed
	createdItems [][]database.Item
	images       map[int64]*database.Image
	createErr    error
	imageErr     error
	calls        int
	nextID       int64
}

func newMockStore() *mockStore {
	return &mockStore{
		feeds:  make(map[string]*database.Feed),
		places: make(map[int64]*database.Place),
		images: make(map[int64]*database.Image),
		nextID: 100,
	}
}

func (m *mockStore) FindFeedByURL(ctx context.Context, sourceURL string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.feeds[sourceURL], nil
}

func (m *mockStore) CreateFeedWithItems(ctx context.Context, f *database.Feed, items []database.Item) (int64, []int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createErr != nil {
		return 0, nil, m.createErr
	}

	m.nextID++
	f.ID = m.nextID
	m.feeds[f.SourceURL] = f
	m.created = append(m.created, f)
	m.createdItems = append(m.createdItems, items)

	ids := make([]int64, len(items))
	for i := range items {
		m.nextID++
		ids[i] = m.nextID
	}
	return f.ID, ids, nil
}

func (m *mockStore) FindPlaceByID(ctx context.Context, id int64) (*database.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.places[id], nil
}

func (m *mockStore) CreateImage(ctx context.Context, itemID int64, img *database.Image) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.imageErr != nil {
		return 0, m.imageErr
	}
	m.nextID++
	img.ID = m.nextID
	m.images[itemID] = img
	return img.ID, nil
}

type fetchFunc func(ctx context.Context) (*feed.Response, error)

type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]fetchFunc
	requests  []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{responses: make(map[string]fetchFunc)}
}

func (m *mockFetcher) body(url string, data []byte) {
	m.responses[url] = func(ctx context.Context) (*feed.Response, error) {
		return &feed.Response{Body: data, FinalURL: url}, nil
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, target string) (*feed.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, target)
	fn, ok := m.responses[target]
	m.mu.Unlock()

	if !ok {
		return nil, &feed.FetchError{URL: target, StatusCode: http.StatusNotFound, Err: errors.New("404 Not Found")}
	}
	return fn(ctx)
}

func (m *mockFetcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockLocator struct {
	pages map[string]string
}

func (m *mockLocator) Locate(ctx context.Context, pageURL string) (string, error) {
	img, ok := m.pages[pageURL]
	if !ok {
		return "", &feed.FetchError{URL: pageURL, StatusCode: http.StatusNotFound}
	}
	return img, nil
}

type mockMedia struct {
	mu      sync.Mutex
	files   map[string][]byte
	removed []string
}

func newMockMedia() *mockMedia {
	return &mockMedia{files: make(map[string][]byte)}
}

func (m *mockMedia) Save(data []byte, ext string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "img/" + string(rune('a'+len(m.files))) + ext
	m.files[path] = data
	return path, true, nil
}

func (m *mockMedia) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(store FeedStore, fetcher *mockFetcher, media MediaStore) *Pipeline {
	return &Pipeline{
		Store:        store,
		Fetcher:      fetcher,
		ImageFetcher: fetcher,
		Media:        media,
		Parser:       feed.NewParser(),
		Slugify:      feed.Slugify,
		ImageWorkers: 2,
	}
}
