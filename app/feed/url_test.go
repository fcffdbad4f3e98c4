package feed

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "https", input: "https://example.com/feed.xml", expected: "https://example.com/feed.xml"},
		{name: "http with spaces", input: "  http://example.com/rss ", expected: "http://example.com/rss"},
		{name: "uppercase scheme", input: "HTTPS://example.com/rss", expected: "https://example.com/rss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ValidateURL(tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if u.String() != tt.expected {
				t.Errorf("Expected %s, got: %s", tt.expected, u.String())
			}
		})
	}
}

func TestValidateURLUnsupportedScheme(t *testing.T) {
	for _, input := range []string{"ftp://x/feed", "file:///etc/passwd", "gopher://example.com"} {
		_, err := ValidateURL(input)

		var schemeErr *UnsupportedSchemeError
		if !errors.As(err, &schemeErr) {
			t.Fatalf("Expected *UnsupportedSchemeError for %s, got: %v", input, err)
		}
		if len(schemeErr.Allowed) != 2 || schemeErr.Allowed[0] != "http" || schemeErr.Allowed[1] != "https" {
			t.Errorf("Expected allowed schemes [http https], got: %v", schemeErr.Allowed)
		}
		if !strings.Contains(schemeErr.Error(), "http, https") {
			t.Errorf("Expected message to list allowed schemes, got: %s", schemeErr.Error())
		}
	}
}

func TestValidateURLInvalid(t *testing.T) {
	for _, input := range []string{"", "not a url", "example.com/feed", "http://", "https://exa mple.com/%zz"} {
		_, err := ValidateURL(input)

		var urlErr *InvalidURLError
		if !errors.As(err, &urlErr) {
			t.Errorf("Expected *InvalidURLError for %q, got: %v", input, err)
		}
	}
}
