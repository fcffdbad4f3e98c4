package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string
	Generator   string
	SelfURL     string     // atom:link rel="self" when present
	Format      string     // "rss" or "atom"
	UpdatedAt   *time.Time // lastBuildDate / updated
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Author      string
	PublishedAt *time.Time
	ImageURL    string // optional reference, resolved against Link
}

// Document is the parsed form of a feed: channel metadata plus items in
// document order with unique GUIDs.
type Document struct {
	Metadata Metadata
	Items    []Item
}

// Response is a successfully fetched resource.
type Response struct {
	Body         []byte
	FinalURL     string // after redirects
	ContentType  string
	ETag         string
	LastModified string
}
