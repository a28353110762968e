package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const articleIDLength = 16

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses an RSS, Atom or JSON feed document. The gofeed parser keeps
// per-call state, so Run builds a fresh one and is safe for concurrent use.
func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title: strings.TrimSpace(feed.Title),
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		Title:       item.Title,
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
	}

	if published := cmp.Or(item.PublishedParsed, item.UpdatedParsed); published != nil {
		utc := published.UTC()
		normalized.PublishedAt = &utc
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			normalized.EnclosureURL = enclosure.URL
			normalized.EnclosureType = enclosure.Type
			break
		}
	}

	normalized.MediaURL = mediaContentURL(item)

	return normalized
}

func mediaContentURL(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, ext := range media["content"] {
		if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
			return url
		}
	}

	// media:group wraps content elements in some feeds
	for _, group := range media["group"] {
		for _, ext := range group.Children["content"] {
			if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
				return url
			}
		}
	}

	return ""
}

// Image picks an image enclosure, falling back to the first media:content url.
func (i Item) Image() string {
	if i.EnclosureURL != "" && strings.HasPrefix(strings.ToLower(i.EnclosureType), "image/") {
		return i.EnclosureURL
	}
	return i.MediaURL
}

// ArticleID derives a stable short id from link and title.
func ArticleID(link, title string) string {
	hash := sha256.Sum256([]byte(link + "|" + title))
	return hex.EncodeToString(hash[:])[:articleIDLength]
}

// EpochIfNil orders missing dates as the Unix epoch.
func EpochIfNil(t *time.Time) time.Time {
	if t == nil {
		return time.Unix(0, 0).UTC()
	}
	return *t
}
