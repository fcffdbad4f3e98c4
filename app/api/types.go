package api

import (
	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/tasks"
)

type Handler struct {
	store    *database.Store
	pipeline *tasks.Pipeline
}

// AddFeedRequest is the body of POST /api/feeds. Absent optional fields
// keep the values found in the feed.
type AddFeedRequest struct {
	URL         string  `json:"url" binding:"required"`
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Coordinates *string `json:"coordinates"`
	PlaceID     *int64  `json:"place_id"`
}

type AddFeedResponse struct {
	Status       string               `json:"status"`
	Feed         *database.Feed       `json:"feed,omitempty"`
	ExistingID   int64                `json:"existing_id,omitempty"`
	Items        int                  `json:"items"`
	ImagesStored int                  `json:"images_stored"`
	ImageErrors  []ImageErrorResponse `json:"image_errors,omitempty"`
	NotAttempted []string             `json:"not_attempted,omitempty"`
}

type ImageErrorResponse struct {
	GUID  string `json:"guid"`
	URL   string `json:"url"`
	Error string `json:"error"`
}
