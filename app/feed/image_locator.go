package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const pageAccept = "text/html, application/xhtml+xml;q=0.9, */*;q=0.8"

// Meta tags consulted for an item image, in order of preference.
var imageMetaSelectors = []string{
	`meta[property="og:image:secure_url"]`,
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
}

// ImageLocator finds the lead image of an item's web page for items whose
// feed entry carries no image reference.
type ImageLocator struct {
	fetcher *Fetcher
}

func NewImageLocator(fetcher *Fetcher) *ImageLocator {
	return &ImageLocator{fetcher: fetcher}
}

// PageFetcherOptions returns the options used for fetching item pages.
func PageFetcherOptions() []FetcherOption {
	return []FetcherOption{WithAccept(pageAccept)}
}

// Locate fetches pageURL and returns the absolute image URL it advertises,
// or "" when the page has none.
func (l *ImageLocator) Locate(ctx context.Context, pageURL string) (string, error) {
	resp, err := l.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	return l.Run(resp.Body, resp.FinalURL)
}

func (l *ImageLocator) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range imageMetaSelectors {
		content, ok := doc.Find(selector).First().Attr("content")
		if content = strings.TrimSpace(content); ok && content != "" {
			return resolveReference(pageURL, content), nil
		}
	}

	base, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		slog.Debug("Readability extraction failed", "url", pageURL, "error", err)
		return "", nil
	}

	if article.Image != "" {
		slog.Debug("Lead image found by readability", "url", pageURL, "title", article.Title)
		return resolveReference(pageURL, article.Image), nil
	}

	return "", nil
}
