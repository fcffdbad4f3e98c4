package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestImageLocatorOpenGraph(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>Article</title>
	<meta property="og:image" content="/media/lead.jpg">
	<meta property="og:image:width" content="1200">
</head>
<body><p>Text</p></body>
</html>`

	locator := NewImageLocator(nil)
	got, err := locator.Run([]byte(html), "https://example.com/news/article")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got != "https://example.com/media/lead.jpg" {
		t.Errorf("Expected resolved og:image, got: %s", got)
	}
}

func TestImageLocatorPrefersSecureURL(t *testing.T) {
	html := `<html><head>
	<meta property="og:image" content="http://example.com/a.jpg">
	<meta property="og:image:secure_url" content="https://example.com/a.jpg">
</head><body></body></html>`

	got, err := NewImageLocator(nil).Run([]byte(html), "https://example.com/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got != "https://example.com/a.jpg" {
		t.Errorf("Expected secure URL, got: %s", got)
	}
}

func TestImageLocatorNoImage(t *testing.T) {
	html := `<html><head><title>Nothing</title></head><body><p>No pictures here.</p></body></html>`

	got, err := NewImageLocator(nil).Run([]byte(html), "https://example.com/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got != "" {
		t.Errorf("Expected no image, got: %s", got)
	}
}

func TestImageLocatorEmptyData(t *testing.T) {
	if _, err := NewImageLocator(nil).Run(nil, "https://example.com/"); err == nil {
		t.Error("Expected error for empty HTML data")
	}
}

func TestImageLocatorLocate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><meta property="og:image" content="img/x.png"></head></html>`))
	}))
	defer server.Close()

	locator := NewImageLocator(NewFetcher(server.Client(), "", time.Second, PageFetcherOptions()...))

	got, err := locator.Locate(context.Background(), server.URL+"/posts/1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != server.URL+"/posts/img/x.png" {
		t.Errorf("Expected resolved image URL, got: %s", got)
	}

	_, err = locator.Locate(context.Background(), server.URL+"/missing")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected *FetchError for missing page, got: %v", err)
	}
}
