package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
)

const persistImagesTimeout = 30 * time.Second

// AddFeedInput is what a user submits to add a feed.
type AddFeedInput struct {
	URL         string
	Overrides   feed.Overrides
	Coordinates feed.Optional[string] // "lat;lon"
	PlaceID     feed.Optional[int64]
}

// Pipeline holds the collaborators shared by add-feed runs.
type Pipeline struct {
	Store        FeedStore
	Fetcher      Fetcher
	ImageFetcher Fetcher
	Locator      ImageLocator // nil disables image discovery on item pages
	Media        MediaStore
	Parser       *feed.Parser
	Slugify      feed.SlugFunc
	ImageWorkers int
}

// AddFeedTask validates, fetches, parses and stores one feed and then
// fetches its item images.
type AddFeedTask struct {
	Task
	Input    AddFeedInput
	pipeline *Pipeline
}

func NewAddFeedTask(input AddFeedInput, pipeline *Pipeline) *AddFeedTask {
	return &AddFeedTask{
		Task:     NewTask(TaskTypeAddFeed, input.URL),
		Input:    input,
		pipeline: pipeline,
	}
}

type stepFunc func(ctx context.Context, r *addFeedRun) (State, error)

// addFeedRun carries the values produced by one step to the next.
type addFeedRun struct {
	state     State
	source    *url.URL
	coords    *feed.Coordinates
	placeID   *int64
	response  *feed.Response
	doc       *feed.Document
	effective feed.Effective
	refs      []ItemRef
	outcomes  []ImageOutcome
	result    *Result
}

// Execute runs the pipeline to completion. It never returns nil.
// Failures before the feed is committed leave the store untouched; image
// problems after that are collected in Result.ImageErrors.
func (t *AddFeedTask) Execute(ctx context.Context) *Result {
	t.Start()

	steps := map[State]stepFunc{
		StateValidatingInput:  t.validateInput,
		StateFetching:         t.fetch,
		StateParsing:          t.parse,
		StateMerging:          t.merge,
		StateCheckingDedup:    t.checkDedup,
		StatePersisting:       t.persist,
		StateFetchingImages:   t.fetchImages,
		StatePersistingImages: t.persistImages,
	}

	r := &addFeedRun{state: StateValidatingInput, result: &Result{}}

	for !r.state.terminal() {
		var (
			next State
			err  error
		)

		if !r.state.committed() && ctx.Err() != nil {
			err = ctx.Err()
		} else {
			next, err = steps[r.state](ctx, r)
		}

		if err != nil {
			r.result.Err = err
			r.result.FailedIn = r.state
			next = StateFailed
		}

		slog.Debug("Pipeline transition", "id", t.ID, "from", string(r.state), "to", string(next))
		r.state = next
	}

	switch r.state {
	case StateDone:
		r.result.Status = StatusDone
	case StateAlreadyExists:
		r.result.Status = StatusAlreadyExists
	default:
		r.result.Status = StatusFailed
	}

	if r.result.Status == StatusFailed {
		slog.Error("Task failed",
			"type", string(t.Type),
			"feed", t.Target,
			"state", string(r.result.FailedIn),
			"duration", t.GetDuration(),
			"error", r.result.Err)
	} else {
		slog.Info("Task completed",
			"type", string(t.Type),
			"feed", t.Target,
			"duration", t.GetDuration(),
			"result", r.result.String(),
			"items", r.result.ItemCount,
			"images", r.result.ImagesStored,
			"image_errors", len(r.result.ImageErrors),
			"not_attempted", len(r.result.NotAttempted))
	}

	return r.result
}

// validateInput checks URL and coordinates before anything touches the
// network or the store, then resolves the optional place.
func (t *AddFeedTask) validateInput(ctx context.Context, r *addFeedRun) (State, error) {
	source, err := feed.ValidateURL(t.Input.URL)
	if err != nil {
		return "", err
	}
	r.source = source

	if raw, ok := t.Input.Coordinates.Get(); ok {
		coords, err := feed.ParseCoordinates(raw)
		if err != nil {
			return "", err
		}
		r.coords = &coords
	}

	if id, ok := t.Input.PlaceID.Get(); ok {
		place, err := t.pipeline.Store.FindPlaceByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to look up place: %w", err)
		}
		if place == nil {
			return "", &feed.UnknownPlaceError{ID: id}
		}
		r.placeID = &place.ID
	}

	return StateFetching, nil
}

func (t *AddFeedTask) fetch(ctx context.Context, r *addFeedRun) (State, error) {
	resp, err := t.pipeline.Fetcher.Fetch(ctx, r.source.String())
	if err != nil {
		return "", err
	}
	r.response = resp

	slog.Debug("Feed fetched", "url", r.source.String(), "final_url", resp.FinalURL, "bytes", len(resp.Body))

	return StateParsing, nil
}

func (t *AddFeedTask) parse(ctx context.Context, r *addFeedRun) (State, error) {
	doc, err := t.pipeline.Parser.Run(r.response.Body)
	if err != nil {
		return "", err
	}
	r.doc = doc

	return StateMerging, nil
}

func (t *AddFeedTask) merge(ctx context.Context, r *addFeedRun) (State, error) {
	r.effective = feed.Merge(r.doc.Metadata, t.Input.Overrides, r.sourceURL(), t.pipeline.Slugify)

	return StateCheckingDedup, nil
}

// checkDedup looks the feed up by its final URL and, after a redirect, by
// the URL the user submitted.
func (t *AddFeedTask) checkDedup(ctx context.Context, r *addFeedRun) (State, error) {
	candidates := []string{r.sourceURL()}
	if requested := r.source.String(); requested != candidates[0] {
		candidates = append(candidates, requested)
	}

	for _, candidate := range candidates {
		existing, err := t.pipeline.Store.FindFeedByURL(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check for existing feed: %w", err)
		}
		if existing != nil {
			r.result.Err = &feed.AlreadyExistsError{ID: existing.ID}
			return StateAlreadyExists, nil
		}
	}

	return StatePersisting, nil
}

func (t *AddFeedTask) persist(ctx context.Context, r *addFeedRun) (State, error) {
	now := time.Now().UTC()
	meta := r.doc.Metadata

	dbFeed := &database.Feed{
		PlaceID:       r.placeID,
		SourceURL:     r.sourceURL(),
		Slug:          r.effective.Slug,
		Title:         r.effective.Title,
		Description:   r.effective.Description,
		Link:          meta.Link,
		Language:      meta.Language,
		ETag:          r.response.ETag,
		Coordinates:   r.coords,
		LastBuildDate: meta.UpdatedAt,
		LastFetchAt:   &now,
	}

	items := make([]database.Item, 0, len(r.doc.Items))
	for _, item := range r.doc.Items {
		items = append(items, database.Item{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Author:      item.Author,
			ImageURL:    item.ImageURL,
			PublishedAt: item.PublishedAt,
		})
	}

	feedID, itemIDs, err := t.pipeline.Store.CreateFeedWithItems(ctx, dbFeed, items)
	if err != nil {
		return "", err
	}

	dbFeed.ID = feedID
	r.result.FeedID = feedID
	r.result.Feed = dbFeed
	r.result.ItemCount = len(itemIDs)

	r.refs = make([]ItemRef, 0, len(itemIDs))
	for i, id := range itemIDs {
		item := r.doc.Items[i]
		r.refs = append(r.refs, ItemRef{ItemID: id, GUID: item.GUID, Link: item.Link, ImageURL: item.ImageURL})
	}

	return StateFetchingImages, nil
}

func (t *AddFeedTask) fetchImages(ctx context.Context, r *addFeedRun) (State, error) {
	task := NewFetchImagesTask(t.Target, r.refs, t.pipeline.ImageFetcher, t.pipeline.Locator, t.pipeline.ImageWorkers)
	r.outcomes = task.Execute(ctx)

	return StatePersistingImages, nil
}

// persistImages writes fetched images one at a time in item order. It runs
// detached from cancellation so images already downloaded are kept.
func (t *AddFeedTask) persistImages(ctx context.Context, r *addFeedRun) (State, error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistImagesTimeout)
	defer cancel()

	for _, out := range r.outcomes {
		switch out.Status {
		case ImageFailed:
			r.result.ImageErrors = append(r.result.ImageErrors, out.Err)
		case ImageNotAttempted:
			r.result.NotAttempted = append(r.result.NotAttempted, out.Item.GUID)
		case ImageSucceeded:
			if err := t.storeImage(writeCtx, out); err != nil {
				slog.Warn("Image store failed", "guid", out.Item.GUID, "url", out.SourceURL, "error", err)
				r.result.ImageErrors = append(r.result.ImageErrors, &feed.ImageError{
					ItemID: out.Item.ItemID,
					GUID:   out.Item.GUID,
					URL:    out.SourceURL,
					Cause:  err,
				})
				continue
			}
			r.result.ImagesStored++
		}
	}

	return StateDone, nil
}

func (t *AddFeedTask) storeImage(ctx context.Context, out ImageOutcome) error {
	path, created, err := t.pipeline.Media.Save(out.Data, out.Info.Extension)
	if err != nil {
		return err
	}

	img := &database.Image{
		SourceURL:   out.SourceURL,
		Path:        path,
		ContentType: out.Info.ContentType,
		Size:        out.Info.Size,
		Width:       out.Info.Width,
		Height:      out.Info.Height,
	}

	if _, err := t.pipeline.Store.CreateImage(ctx, out.Item.ItemID, img); err != nil {
		if created {
			if rmErr := t.pipeline.Media.Remove(path); rmErr != nil {
				slog.Warn("Failed to remove orphaned image file", "path", path, "error", rmErr)
			}
		}
		return fmt.Errorf("failed to store image metadata: %w", err)
	}

	return nil
}

// sourceURL is the URL the feed is stored under: where the fetch ended up.
func (r *addFeedRun) sourceURL() string {
	if r.response != nil && r.response.FinalURL != "" {
		return r.response.FinalURL
	}
	return r.source.String()
}
