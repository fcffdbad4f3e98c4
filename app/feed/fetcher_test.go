package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/feed.xml", http.StatusMovedPermanently)
		case "/feed.xml":
			if r.Header.Get("User-Agent") != "statalih/test" {
				t.Errorf("Expected user agent 'statalih/test', got: %s", r.Header.Get("User-Agent"))
			}
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Header().Set("ETag", `"abc"`)
			w.Write([]byte("<rss/>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "statalih/test", time.Second)

	resp, err := fetcher.Fetch(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(resp.Body) != "<rss/>" {
		t.Errorf("Expected body '<rss/>', got: %s", resp.Body)
	}
	if resp.FinalURL != server.URL+"/feed.xml" {
		t.Errorf("Expected final URL after redirect, got: %s", resp.FinalURL)
	}
	if resp.ETag != `"abc"` {
		t.Errorf("Expected ETag, got: %s", resp.ETag)
	}
	if resp.ContentType != "application/rss+xml" {
		t.Errorf("Expected content type, got: %s", resp.ContentType)
	}
}

func TestFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewFetcher(server.Client(), "", time.Second).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got: %d", fetchErr.StatusCode)
	}
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewFetcher(server.Client(), "", 50*time.Millisecond).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Expected fetch to stop at the timeout, took: %s", time.Since(start))
	}
}

func TestFetcherMaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	_, err := NewFetcher(server.Client(), "", time.Second, WithMaxBytes(10)).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError for oversized body, got: %v", err)
	}
}

func TestFetcherTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	_, err := NewFetcher(nil, "", time.Second).Fetch(context.Background(), target)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("Expected no status code, got: %d", fetchErr.StatusCode)
	}
}
