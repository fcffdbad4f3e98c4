package tasks

import (
	"errors"
	"fmt"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
)

// State is a step of the add-feed pipeline.
type State string

const (
	StateValidatingInput  State = "validating-input"
	StateFetching         State = "fetching"
	StateParsing          State = "parsing"
	StateMerging          State = "merging"
	StateCheckingDedup    State = "checking-dedup"
	StatePersisting       State = "persisting"
	StateFetchingImages   State = "fetching-images"
	StatePersistingImages State = "persisting-images"
	StateAlreadyExists    State = "already-exists"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

func (s State) terminal() bool {
	return s == StateDone || s == StateAlreadyExists || s == StateFailed
}

// committed reports whether the feed rows have been written when the
// pipeline is in state s.
func (s State) committed() bool {
	return s == StateFetchingImages || s == StatePersistingImages || s == StateDone
}

// Status is the three-way outcome of a run.
type Status string

const (
	StatusDone          Status = "done"
	StatusAlreadyExists Status = "already-exists"
	StatusFailed        Status = "failed"
)

// Result reports an add-feed run.
type Result struct {
	Status    Status
	FailedIn  State // state that produced Err
	FeedID    int64
	Feed      *database.Feed
	ItemCount int

	ImagesStored int
	ImageErrors  []*feed.ImageError // in item order
	NotAttempted []string           // GUIDs of items skipped after cancellation

	// Err is the failure cause, or *feed.AlreadyExistsError for an
	// already-exists run.
	Err error
}

// ExistingID returns the ID of the already stored feed, or 0.
func (r *Result) ExistingID() int64 {
	var exists *feed.AlreadyExistsError
	if errors.As(r.Err, &exists) {
		return exists.ID
	}
	return 0
}

func (r *Result) String() string {
	switch r.Status {
	case StatusDone:
		return "done"
	case StatusAlreadyExists:
		return fmt.Sprintf("already-exists:%d", r.ExistingID())
	default:
		if r.Err != nil {
			return "failed:" + r.Err.Error()
		}
		return "failed"
	}
}
