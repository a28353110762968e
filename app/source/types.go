package source

import (
	"slices"
	"strings"

	"github.com/lysyi3m/rss-harvest/app/content"
)

const (
	DefaultRegion   = "global"
	DefaultCategory = "general"
	SportsCategory  = "sports"
)

// Source is a feed origin. Identity is the normalized FeedURL.
type Source struct {
	Name       string   `yaml:"name" json:"name"`
	Homepage   string   `yaml:"homepage" json:"homepage"`
	FeedURL    string   `yaml:"feedUrl" json:"feedUrl"`
	Lang       string   `yaml:"lang" json:"lang"`
	Region     string   `yaml:"region" json:"region"`
	Categories []string `yaml:"categories" json:"categories"`
}

func (s Source) Key() string {
	raw := strings.TrimSpace(s.FeedURL)
	if raw == "" {
		return ""
	}
	return content.NormalizeURL(raw)
}

func (s Source) HasCategory(category string) bool {
	return slices.Contains(s.Categories, category)
}

func (s Source) IsSports() bool {
	return s.HasCategory(SportsCategory)
}

// DisplayName falls back to the homepage and then the feed URL.
func (s Source) DisplayName() string {
	for _, v := range []string{s.Name, s.Homepage, s.FeedURL} {
		if v != "" {
			return v
		}
	}
	return ""
}
