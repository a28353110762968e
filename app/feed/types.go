package feed

import (
	"time"

	"github.com/lysyi3m/rss-harvest/app/blacklist"
	"github.com/lysyi3m/rss-harvest/app/classify"
)

// Feed processing types

type Metadata struct {
	Title string
}

type Item struct {
	Title         string
	Link          string
	Description   string
	Content       string
	PublishedAt   *time.Time // UTC, nil when the entry carries no parseable date
	Categories    []string
	EnclosureURL  string
	EnclosureType string
	MediaURL      string // first media:content url
}

// Article is one accepted entry as written to the snapshot store.
type Article struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Link     string        `json:"link"`
	Summary  string        `json:"summary"`
	Body     *string       `json:"body"`
	Image    *string       `json:"image"`
	PubDate  *time.Time    `json:"pubDate"`
	Source   ArticleSource `json:"source"`
	Lang     string        `json:"lang"`
	Category string        `json:"category"`
	Region   string        `json:"region"`
}

type ArticleSource struct {
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
}

// Configuration types

type Settings struct {
	AllowedCategories []string        `yaml:"allowed_categories" json:"allowed_categories"`
	ExcludedPaths     []string        `yaml:"excluded_paths" json:"excluded_paths"`
	Blacklist         blacklist.Terms `yaml:"blacklist" json:"blacklist"`
	Rules             []classify.Rule `yaml:"rules" json:"rules"`
}
