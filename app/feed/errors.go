package feed

import (
	"fmt"
	"strings"
)

// InvalidURLError reports input that cannot be parsed as an absolute URL.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid URL %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// UnsupportedSchemeError reports a URL whose scheme is outside the allowed set.
type UnsupportedSchemeError struct {
	Scheme  string
	Allowed []string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported URL scheme %q, supported schemes: %s", e.Scheme, strings.Join(e.Allowed, ", "))
}

type InvalidCoordinatesError struct {
	Input  string
	Reason string
}

func (e *InvalidCoordinatesError) Error() string {
	return fmt.Sprintf("invalid coordinates %q: %s", e.Input, e.Reason)
}

// FetchError is returned for transport failures, timeouts and non-success
// HTTP statuses. StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError locates the first problem found in a feed document.
// Line and Column are 1-based.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// AlreadyExistsError is not a failure: the feed source is already stored
// under ID and nothing was written.
type AlreadyExistsError struct {
	ID int64
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("feed already exists with ID %d", e.ID)
}

type UnknownPlaceError struct {
	ID int64
}

func (e *UnknownPlaceError) Error() string {
	return fmt.Sprintf("can not find place with ID %d", e.ID)
}

// ConflictError is a uniqueness violation raised by the store. Field names
// the violated column, e.g. "slug" or "source_url".
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: a record with the same value already exists", e.Field)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ImageError records a failed image for a single item. It never aborts a run.
type ImageError struct {
	ItemID int64
	GUID   string
	URL    string
	Cause  error
}

func (e *ImageError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("image for item %q (%s): %v", e.GUID, e.URL, e.Cause)
	}
	return fmt.Sprintf("image for item %q: %v", e.GUID, e.Cause)
}

func (e *ImageError) Unwrap() error { return e.Cause }
