package feed

import (
	"errors"
	"net/url"
	"slices"
	"strings"
)

// AllowedSchemes lists the URL schemes accepted for feed sources.
var AllowedSchemes = []string{"http", "https"}

// ValidateURL parses raw and makes sure it is an absolute URL with an
// allowed scheme. It performs no I/O.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &InvalidURLError{URL: raw, Err: errors.New("empty URL")}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidURLError{URL: raw, Err: err}
	}

	if u.Scheme == "" {
		return nil, &InvalidURLError{URL: raw, Err: errors.New("missing scheme")}
	}

	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains(AllowedSchemes, scheme) {
		return nil, &UnsupportedSchemeError{Scheme: u.Scheme, Allowed: AllowedSchemes}
	}

	if u.Host == "" {
		return nil, &InvalidURLError{URL: raw, Err: errors.New("missing host")}
	}

	u.Scheme = scheme
	return u, nil
}
