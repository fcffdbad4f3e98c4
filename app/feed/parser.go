package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS or Atom document. The document is first checked for
// well-formedness so that syntax problems are reported with their position;
// a *ParseError is returned for every kind of parse failure.
func (p *Parser) Run(data []byte) (*Document, error) {
	root, err := checkWellFormed(data)
	if err != nil {
		return nil, err
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Line: root.line, Column: root.column, Message: err.Error()}
	}

	doc := &Document{
		Metadata: Metadata{
			Title:       strings.TrimSpace(feed.Title),
			Link:        strings.TrimSpace(feed.Link),
			Description: cleanDescription(feed.Description),
			Language:    feed.Language,
			Generator:   feed.Generator,
			SelfURL:     feed.FeedLink,
			Format:      feed.FeedType,
		},
		Items: make([]Item, 0, len(feed.Items)),
	}

	if feed.Image != nil {
		doc.Metadata.ImageURL = resolveReference(doc.Metadata.Link, feed.Image.URL)
	}

	if feed.UpdatedParsed != nil {
		doc.Metadata.UpdatedAt = feed.UpdatedParsed
	} else if feed.PublishedParsed != nil {
		doc.Metadata.UpdatedAt = feed.PublishedParsed
	}

	seen := make(map[string]struct{}, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		normalized := p.normalizeItem(item)
		if _, dup := seen[normalized.GUID]; dup {
			slog.Debug("Duplicate item skipped", "guid", normalized.GUID)
			continue
		}
		seen[normalized.GUID] = struct{}{}
		doc.Items = append(doc.Items, normalized)
	}

	return doc, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: cleanDescription(cmp.Or(item.Description, item.Content)),
		Author:      p.extractAuthor(item),
	}

	normalized.GUID = cmp.Or(strings.TrimSpace(item.GUID), normalized.Link, p.generateContentHash(normalized))

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed
	}

	normalized.ImageURL = resolveReference(normalized.Link, p.imageReference(item))

	return normalized
}

// imageReference prefers the item image and falls back to the first image
// enclosure.
func (p *Parser) imageReference(item *gofeed.Item) string {
	if item.Image != nil && strings.TrimSpace(item.Image.URL) != "" {
		return strings.TrimSpace(item.Image.URL)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") {
			return strings.TrimSpace(enclosure.URL)
		}
	}

	return ""
}

func (p *Parser) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s|%s",
		item.Title,
		item.Link,
		item.Description)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	var names []string

	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		if name := cmp.Or(strings.TrimSpace(author.Name), strings.TrimSpace(author.Email)); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 && item.Author != nil {
		if name := cmp.Or(strings.TrimSpace(item.Author.Name), strings.TrimSpace(item.Author.Email)); name != "" {
			names = append(names, name)
		}
	}

	return strings.Join(names, ", ")
}

type position struct {
	line   int
	column int
}

// checkWellFormed tokenizes the whole document in strict mode and returns
// the position right after the root start tag.
func checkWellFormed(data []byte) (position, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return position{}, &ParseError{Line: 1, Column: 1, Message: "document is empty"}
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charsetReader

	var root *position
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, column := d.InputPos()
			message := err.Error()
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				line = syntaxErr.Line
				message = syntaxErr.Msg
			}
			return position{}, &ParseError{Line: line, Column: column, Message: message}
		}

		if _, ok := tok.(xml.StartElement); ok && root == nil {
			line, column := d.InputPos()
			root = &position{line: line, column: column}
		}
	}

	if root == nil {
		line, column := d.InputPos()
		return position{}, &ParseError{Line: line, Column: column, Message: "no root element"}
	}

	return *root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// cleanDescription strips markup and collapses whitespace.
func cleanDescription(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func resolveReference(base, ref string) string {
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}

	return b.ResolveReference(u).String()
}
