package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/statalih/statalih/app/feed"
	"github.com/statalih/statalih/app/media"
)

const DefaultImageWorkers = 4

// ItemRef identifies a stored item whose image should be fetched.
type ItemRef struct {
	ItemID   int64
	GUID     string
	Link     string
	ImageURL string
}

type ImageStatus string

const (
	ImageSucceeded    ImageStatus = "succeeded"
	ImageFailed       ImageStatus = "failed"
	ImageSkipped      ImageStatus = "skipped" // no image reference
	ImageNotAttempted ImageStatus = "not_attempted"
)

// ImageOutcome is the in-memory result of fetching one item's image.
// Err is set iff Status is ImageFailed.
type ImageOutcome struct {
	Item      ItemRef
	Status    ImageStatus
	SourceURL string
	Data      []byte
	Info      media.Info
	Err       *feed.ImageError
}

// FetchImagesTask downloads item images on a bounded pool of workers.
// Outcomes are returned in item order whatever order the fetches finish in.
type FetchImagesTask struct {
	Task
	items       []ItemRef
	fetcher     Fetcher
	locator     ImageLocator
	workerCount int
}

// NewFetchImagesTask creates the task. A nil locator disables looking up
// images on item pages.
func NewFetchImagesTask(target string, items []ItemRef, fetcher Fetcher, locator ImageLocator, workerCount int) *FetchImagesTask {
	if workerCount < 1 {
		workerCount = DefaultImageWorkers
	}

	return &FetchImagesTask{
		Task:        NewTask(TaskTypeFetchImages, target),
		items:       items,
		fetcher:     fetcher,
		locator:     locator,
		workerCount: workerCount,
	}
}

// Execute fetches all images. Once ctx is cancelled no further fetch is
// started; those items, and fetches aborted by the cancellation, are
// reported as ImageNotAttempted.
func (t *FetchImagesTask) Execute(ctx context.Context) []ImageOutcome {
	t.Start()

	outcomes := make([]ImageOutcome, len(t.items))
	for i, item := range t.items {
		outcomes[i] = ImageOutcome{Item: item, Status: ImageNotAttempted}
	}

	if len(t.items) == 0 {
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < min(t.workerCount, len(t.items)); i++ {
		wg.Add(1)
		go t.worker(ctx, i, jobs, outcomes, &wg)
	}

enqueue:
	for i := range t.items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	succeeded, failed, skipped, notAttempted := 0, 0, 0, 0
	for _, out := range outcomes {
		switch out.Status {
		case ImageSucceeded:
			succeeded++
		case ImageFailed:
			failed++
		case ImageSkipped:
			skipped++
		case ImageNotAttempted:
			notAttempted++
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.Target,
		"duration", t.GetDuration(),
		"total", len(t.items),
		"succeeded", succeeded,
		"failed", failed,
		"skipped", skipped,
		"not_attempted", notAttempted)

	return outcomes
}

func (t *FetchImagesTask) worker(ctx context.Context, id int, jobs <-chan int, outcomes []ImageOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := range jobs {
		if ctx.Err() != nil {
			continue
		}
		outcomes[i] = t.fetchImage(ctx, t.items[i])
		slog.Debug("Image job finished", "worker_id", id, "guid", t.items[i].GUID, "status", string(outcomes[i].Status))
	}
}

func (t *FetchImagesTask) fetchImage(ctx context.Context, item ItemRef) ImageOutcome {
	out := ImageOutcome{Item: item}

	source := item.ImageURL
	if source == "" && t.locator != nil && item.Link != "" {
		located, err := t.locator.Locate(ctx, item.Link)
		if err != nil {
			return t.failed(ctx, out, item.Link, fmt.Errorf("failed to discover image: %w", err))
		}
		source = located
	}

	if source == "" {
		out.Status = ImageSkipped
		return out
	}
	out.SourceURL = source

	if _, err := feed.ValidateURL(source); err != nil {
		return t.failed(ctx, out, source, err)
	}

	resp, err := t.fetcher.Fetch(ctx, source)
	if err != nil {
		return t.failed(ctx, out, source, err)
	}

	info, err := media.Inspect(resp.Body)
	if err != nil {
		return t.failed(ctx, out, source, err)
	}

	out.Status = ImageSucceeded
	out.Data = resp.Body
	out.Info = info

	return out
}

func (t *FetchImagesTask) failed(ctx context.Context, out ImageOutcome, url string, err error) ImageOutcome {
	if ctx.Err() != nil {
		out.Status = ImageNotAttempted
		return out
	}

	slog.Warn("Image fetch failed", "guid", out.Item.GUID, "url", url, "error", err)

	out.Status = ImageFailed
	out.Err = &feed.ImageError{ItemID: out.Item.ItemID, GUID: out.Item.GUID, URL: url, Cause: err}
	return out
}
