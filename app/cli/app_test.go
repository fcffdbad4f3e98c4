package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/statalih/statalih/app/cfg"
	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
)

const cliFeed = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
	<title>Gemeindeblatt Süd</title>
	<link>https://gemeinde.example</link>
	<description>Neuigkeiten</description>
	<item><title>Sitzung</title><link>https://gemeinde.example/sitzung</link><guid>s1</guid></item>
</channel>
</rss>`

type testCLI struct {
	dir   string
	feeds *httptest.Server
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()

	feeds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			w.Write([]byte(cliFeed))
		case "/broken":
			w.Write([]byte("<rss><channel></rss>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(feeds.Close)

	return &testCLI{dir: t.TempDir(), feeds: feeds}
}

func (c *testCLI) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	global := []string{
		"--db", filepath.Join(c.dir, "statalih.db"),
		"--images-dir", filepath.Join(c.dir, "images"),
		"--timeout", "5",
	}
	code := New(context.Background(), &stdout, &stderr).Run(append(global, args...))
	return code, stdout.String(), stderr.String()
}

func TestFeedsAdd(t *testing.T) {
	c := newTestCLI(t)
	url := c.feeds.URL + "/rss"

	code, stdout, stderr := c.run(t, "feeds", "add", "--url", url, "--coordinates", "48.1;11.5", "--format", "json")
	if code != ExitOK {
		t.Fatalf("Expected exit 0, got: %d (%s)", code, stderr)
	}

	var out addFeedOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("Failed to decode output %q: %v", stdout, err)
	}
	if out.Result != "done" || out.Items != 1 {
		t.Errorf("Expected done with 1 item, got: %+v", out)
	}
	if out.Feed == nil || out.Feed.Slug != "gemeindeblatt-sued" {
		t.Fatalf("Expected slug 'gemeindeblatt-sued', got: %+v", out.Feed)
	}
	if out.Feed.Coordinates == nil || out.Feed.Coordinates.Longitude != 11.5 {
		t.Errorf("Expected coordinates, got: %+v", out.Feed.Coordinates)
	}

	code, stdout, _ = c.run(t, "feeds", "add", "--url", url)
	if code != ExitAlreadyExists {
		t.Fatalf("Expected exit %d, got: %d", ExitAlreadyExists, code)
	}
	expected := fmt.Sprintf("already-exists:%d", out.Feed.ID)
	if !strings.Contains(stdout, expected) {
		t.Errorf("Expected output to contain %q, got: %s", expected, stdout)
	}

	code, stdout, _ = c.run(t, "feeds", "list")
	if code != ExitOK || !strings.Contains(stdout, "gemeindeblatt-sued") {
		t.Errorf("Expected feed in list, got: %d %s", code, stdout)
	}

	code, stdout, _ = c.run(t, "feeds", "items", "--feed", fmt.Sprint(out.Feed.ID), "--format", "json")
	var items []database.Item
	if err := json.Unmarshal([]byte(stdout), &items); err != nil || code != ExitOK {
		t.Fatalf("Expected items as JSON, got: %d %q (%v)", code, stdout, err)
	}
	if len(items) != 1 || items[0].GUID != "s1" {
		t.Errorf("Expected item s1, got: %+v", items)
	}
}

func TestFeedsAddFailures(t *testing.T) {
	c := newTestCLI(t)

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"unsupported scheme", []string{"--url", "ftp://x/feed"}, ExitInput},
		{"invalid url", []string{"--url", "not a url"}, ExitInput},
		{"invalid coordinates", []string{"--url", c.feeds.URL + "/rss", "--coordinates", "100;0"}, ExitInput},
		{"unknown place", []string{"--url", c.feeds.URL + "/rss", "--place", "7"}, ExitInput},
		{"fetch failure", []string{"--url", c.feeds.URL + "/missing"}, ExitNetwork},
		{"parse failure", []string{"--url", c.feeds.URL + "/broken"}, ExitParse},
		{"missing url", nil, ExitInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := c.run(t, append([]string{"feeds", "add"}, tt.args...)...)
			if code != tt.expected {
				t.Errorf("Expected exit %d, got: %d (%s%s)", tt.expected, code, stdout, stderr)
			}
		})
	}

	code, stdout, _ := c.run(t, "feeds", "list", "--format", "json")
	if code != ExitOK || strings.TrimSpace(stdout) != "[]" {
		t.Errorf("Expected no feeds to be stored, got: %d %s", code, stdout)
	}
}

func TestFeedsItemsUnknownFeed(t *testing.T) {
	c := newTestCLI(t)

	if code, _, _ := c.run(t, "feeds", "items", "--feed", "99"); code != ExitInput {
		t.Errorf("Expected exit %d, got: %d", ExitInput, code)
	}
}

func TestPlaces(t *testing.T) {
	c := newTestCLI(t)

	code, stdout, stderr := c.run(t, "places", "add", "--name", "Landkreis München", "--coordinates", "48.1;11.6", "--format", "json")
	if code != ExitOK {
		t.Fatalf("Expected exit 0, got: %d (%s)", code, stderr)
	}
	var parent database.Place
	if err := json.Unmarshal([]byte(stdout), &parent); err != nil {
		t.Fatalf("Failed to decode place %q: %v", stdout, err)
	}
	if parent.Slug != "landkreis-muenchen" {
		t.Errorf("Expected slug 'landkreis-muenchen', got: %s", parent.Slug)
	}

	code, _, stderr = c.run(t, "places", "add", "--name", "Unterhaching", "--parent", fmt.Sprint(parent.ID), "--link", "https://unterhaching.example")
	if code != ExitOK {
		t.Fatalf("Expected exit 0, got: %d (%s)", code, stderr)
	}

	if code, _, _ = c.run(t, "places", "add", "--name", "Unterhaching"); code != ExitDatabase {
		t.Errorf("Expected exit %d for duplicate slug, got: %d", ExitDatabase, code)
	}
	if code, _, _ = c.run(t, "places", "add", "--name", "Nowhere", "--parent", "999"); code != ExitInput {
		t.Errorf("Expected exit %d for unknown parent, got: %d", ExitInput, code)
	}
	if code, _, _ = c.run(t, "places", "add", "--name", "Bad", "--link", "mailto:x@y"); code != ExitInput {
		t.Errorf("Expected exit %d for bad link, got: %d", ExitInput, code)
	}

	code, stdout, _ = c.run(t, "places", "list")
	if code != ExitOK || !strings.Contains(stdout, "unterhaching") || !strings.Contains(stdout, "landkreis-muenchen") {
		t.Errorf("Expected both places listed, got: %s", stdout)
	}

	code, stdout, stderr = c.run(t, "feeds", "add", "--url", c.feeds.URL+"/rss", "--place", fmt.Sprint(parent.ID))
	if code != ExitOK {
		t.Fatalf("Expected feed with place to be added, got: %d (%s%s)", code, stdout, stderr)
	}
}

func TestDBCommands(t *testing.T) {
	c := newTestCLI(t)

	steps := []struct {
		args    []string
		version string
	}{
		{[]string{"db", "migrate"}, "4"},
		{[]string{"db", "rollback", "--steps", "2"}, "2"},
		{[]string{"db", "rollback"}, "1"},
		{[]string{"db", "refresh"}, "4"},
		{[]string{"db", "refresh", "--steps", "1"}, "4"},
		{[]string{"db", "reset"}, "0"},
		{[]string{"db", "migrate"}, "4"},
	}

	for _, step := range steps {
		code, stdout, stderr := c.run(t, step.args...)
		if code != ExitOK {
			t.Fatalf("%v: expected exit 0, got: %d (%s)", step.args, code, stderr)
		}
		if expected := "Schema version: " + step.version; !strings.Contains(stdout, expected) {
			t.Errorf("%v: expected %q, got: %s", step.args, expected, stdout)
		}
	}
}

func TestInvalidInvocations(t *testing.T) {
	c := newTestCLI(t)

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"no command", nil, ExitInvalidOption},
		{"unknown command", []string{"frobnicate"}, ExitInvalidOption},
		{"unknown flag", []string{"feeds", "list", "--colour"}, ExitInvalidOption},
		{"bad format", []string{"feeds", "list", "--format", "xml"}, ExitInvalidOption},
		{"bad config", []string{"--image-workers", "0", "feeds", "list"}, ExitConfig},
		{"help", []string{"--help"}, ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := c.run(t, tt.args...); code != tt.expected {
				t.Errorf("Expected exit %d, got: %d", tt.expected, code)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitOK},
		{"help", &flags.Error{Type: flags.ErrHelp}, ExitOK},
		{"flag", &flags.Error{Type: flags.ErrUnknownFlag}, ExitInvalidOption},
		{"config", fmt.Errorf("%w: bad", cfg.ErrInvalid), ExitConfig},
		{"url", &feed.InvalidURLError{URL: "x"}, ExitInput},
		{"scheme", &feed.UnsupportedSchemeError{Scheme: "ftp"}, ExitInput},
		{"coordinates", &feed.InvalidCoordinatesError{Input: "x"}, ExitInput},
		{"place", &feed.UnknownPlaceError{ID: 1}, ExitInput},
		{"file", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, ExitFile},
		{"database", errors.New("disk I/O error"), ExitDatabase},
		{"conflict", fmt.Errorf("insert: %w", &feed.ConflictError{Field: "slug"}), ExitDatabase},
		{"network", &feed.FetchError{URL: "x", StatusCode: 500}, ExitNetwork},
		{"parse", &feed.ParseError{Line: 1, Column: 1}, ExitParse},
		{"interrupted", fmt.Errorf("fetch: %w", context.Canceled), ExitInterrupted},
		{"exit error", &exitError{code: ExitAlreadyExists}, ExitAlreadyExists},
		{"already exists", &feed.AlreadyExistsError{ID: 3}, ExitAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := ExitCode(tt.err); code != tt.expected {
				t.Errorf("Expected %d, got: %d", tt.expected, code)
			}
		})
	}
}
