package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
	"github.com/statalih/statalih/app/tasks"
)

const (
	defaultItemsLimit = 50
	maxItemsLimit     = 500
)

func NewHandler(store *database.Store, pipeline *tasks.Pipeline) *Handler {
	return &Handler{
		store:    store,
		pipeline: pipeline,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.store.Feeds.Count(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.store.Feeds.List(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	f, ok := h.findFeed(c)
	if !ok {
		return
	}

	details := gin.H{"feed": f}
	if count, err := h.store.Items.CountByFeed(c.Request.Context(), f.ID); err == nil {
		details["item_count"] = count
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) ListFeedItems(c *gin.Context) {
	f, ok := h.findFeed(c)
	if !ok {
		return
	}

	limit := defaultItemsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(n, maxItemsLimit)
	}

	items, err := h.store.Items.ListByFeed(c.Request.Context(), f.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "feed_id", f.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed_id": f.ID,
		"items":   items,
		"total":   len(items),
	})
}

func (h *Handler) ListPlaces(c *gin.Context) {
	places, err := h.store.Places.List(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_places", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"places": places,
		"total":  len(places),
	})
}

// AddFeed runs the ingestion pipeline for the submitted URL and answers
// once the feed and its images are stored.
func (h *Handler) AddFeed(c *gin.Context) {
	var req AddFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	input := tasks.AddFeedInput{
		URL: req.URL,
		Overrides: feed.Overrides{
			Title:       feed.FromPtr(req.Title),
			Slug:        feed.FromPtr(req.Slug),
			Description: feed.FromPtr(req.Description),
		},
		Coordinates: feed.FromPtr(req.Coordinates),
		PlaceID:     feed.FromPtr(req.PlaceID),
	}

	result := tasks.NewAddFeedTask(input, h.pipeline).Execute(c.Request.Context())

	switch result.Status {
	case tasks.StatusAlreadyExists:
		c.JSON(http.StatusOK, AddFeedResponse{Status: string(result.Status), ExistingID: result.ExistingID()})
	case tasks.StatusDone:
		c.JSON(http.StatusCreated, newAddFeedResponse(result))
	default:
		c.JSON(failureStatus(result.Err), gin.H{
			"status": string(result.Status),
			"state":  string(result.FailedIn),
			"error":  result.Err.Error(),
		})
	}
}

func (h *Handler) findFeed(c *gin.Context) (*database.Feed, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed ID"})
		return nil, false
	}

	f, err := h.store.Feeds.FindByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return nil, false
	}

	return f, true
}

func newAddFeedResponse(result *tasks.Result) AddFeedResponse {
	resp := AddFeedResponse{
		Status:       string(result.Status),
		Feed:         result.Feed,
		Items:        result.ItemCount,
		ImagesStored: result.ImagesStored,
		NotAttempted: result.NotAttempted,
	}

	for _, imgErr := range result.ImageErrors {
		resp.ImageErrors = append(resp.ImageErrors, ImageErrorResponse{
			GUID:  imgErr.GUID,
			URL:   imgErr.URL,
			Error: imgErr.Cause.Error(),
		})
	}

	return resp
}

func failureStatus(err error) int {
	var (
		invalidURL   *feed.InvalidURLError
		badScheme    *feed.UnsupportedSchemeError
		badCoords    *feed.InvalidCoordinatesError
		unknownPlace *feed.UnknownPlaceError
		fetchErr     *feed.FetchError
		parseErr     *feed.ParseError
		conflict     *feed.ConflictError
	)

	switch {
	case errors.As(err, &invalidURL), errors.As(err, &badScheme), errors.As(err, &badCoords):
		return http.StatusBadRequest
	case errors.As(err, &unknownPlace), errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
