package feed

import (
	"cmp"
	"net/url"
	"strings"
)

// Optional distinguishes a value the user supplied, possibly empty, from one
// that was never given.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr maps a nil pointer to None, as produced by optional flags and JSON fields.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Overrides are user supplied replacements for parsed feed metadata.
type Overrides struct {
	Title       Optional[string]
	Slug        Optional[string]
	Description Optional[string]
}

// Effective is the metadata that will be persisted for a feed.
type Effective struct {
	Title       string
	Slug        string
	Description string
}

// Merge applies overrides on top of the parsed metadata. Overrides are
// whitespace-simplified first; a non-empty one wins, an empty one falls back
// to the parsed value. The slug is derived from the effective title unless
// one was given, and from sourceURL as a last resort.
func Merge(meta Metadata, o Overrides, sourceURL string, slugify SlugFunc) Effective {
	if slugify == nil {
		slugify = Slugify
	}

	eff := Effective{
		Title:       cmp.Or(simplified(o.Title), strings.TrimSpace(meta.Title)),
		Description: cmp.Or(simplified(o.Description), meta.Description),
	}

	if s := simplified(o.Slug); s != "" {
		eff.Slug = slugify(s)
	}
	if eff.Slug == "" {
		eff.Slug = slugify(eff.Title)
	}

	if eff.Slug == "" {
		eff.Slug = slugify(slugSourceFromURL(sourceURL))
	}

	return eff
}

// simplified trims o and collapses inner whitespace. Unset yields "".
func simplified(o Optional[string]) string {
	return strings.Join(strings.Fields(o.OrElse("")), " ")
}

func slugSourceFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.") + " " + u.Path
}
