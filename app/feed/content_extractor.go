package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// PageMeta is the short preview data taken from an article page.
type PageMeta struct {
	Image       string
	Description string
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run reads Open Graph tags from an HTML page and falls back to a
// readability excerpt when the page declares no description.
func (e *ContentExtractor) Run(data []byte, pageURL string) (*PageMeta, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := &PageMeta{
		Image: firstNonEmpty(
			metaContent(doc, `meta[property="og:image"]`),
			metaContent(doc, `meta[name="twitter:image"]`),
		),
		Description: firstNonEmpty(
			metaContent(doc, `meta[property="og:description"]`),
			metaContent(doc, `meta[name="description"]`),
		),
	}

	if meta.Description == "" || meta.Image == "" {
		article, err := readability.FromReader(bytes.NewReader(data), base)
		if err != nil {
			slog.Debug("Readability extraction failed", "url", pageURL, "error", err)
		} else {
			meta.Description = firstNonEmpty(meta.Description, article.Excerpt)
			meta.Image = firstNonEmpty(meta.Image, article.Image)
		}
	}

	meta.Image = resolveURL(meta.Image, base)

	if meta.Image == "" && meta.Description == "" {
		return nil, fmt.Errorf("no preview metadata found")
	}

	return meta, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	if node := doc.Find(selector).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func resolveURL(raw string, base *url.URL) string {
	if raw == "" || base == nil {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() {
		return raw
	}

	return base.ResolveReference(parsed).String()
}
