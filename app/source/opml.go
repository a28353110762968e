package source

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lysyi3m/rss-harvest/app/content"
)

type opmlDocument struct {
	Body struct {
		Outlines []opmlOutline `xml:"outline"`
	} `xml:"body"`
}

type opmlOutline struct {
	Type     string        `xml:"type,attr"`
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	URL      string        `xml:"url,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// ParseOPML extracts every outline of type "rss", at any nesting depth.
func ParseOPML(data []byte) ([]Source, error) {
	var doc opmlDocument

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var sources []Source
	var walk func(outlines []opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if strings.EqualFold(o.Type, "rss") {
				if src, ok := outlineSource(o); ok {
					sources = append(sources, src)
				}
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return sources, nil
}

func outlineSource(o opmlOutline) (Source, bool) {
	feedURL := strings.TrimSpace(o.XMLURL)
	if feedURL == "" {
		feedURL = strings.TrimSpace(o.URL)
	}
	if feedURL == "" {
		return Source{}, false
	}

	title := strings.TrimSpace(o.Title)
	if title == "" {
		title = strings.TrimSpace(o.Text)
	}

	name := title
	if name == "" {
		name = feedURL
	}

	return Source{
		Name:       name,
		Homepage:   strings.TrimSpace(o.HTMLURL),
		FeedURL:    feedURL,
		Lang:       content.DetectLang(title),
		Region:     DefaultRegion,
		Categories: []string{DefaultCategory},
	}, true
}

// LoadOPMLDir parses every .opml and .xml file in dir, in name order.
// A missing directory yields an empty list; unreadable files are skipped.
func LoadOPMLDir(dir string) ([]Source, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	for _, pattern := range []string{"*.opml", "*.xml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find OPML files: %w", err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)

	var sources []Source
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			slog.Warn("Failed to read OPML file", "file", file, "error", err)
			continue
		}

		parsed, err := ParseOPML(data)
		if err != nil {
			slog.Warn("Failed to parse OPML file", "file", file, "error", err)
			continue
		}

		slog.Debug("OPML file loaded", "file", file, "feeds", len(parsed))
		sources = append(sources, parsed...)
	}

	return sources, nil
}
