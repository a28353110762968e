package snapshot

import (
	"time"

	"github.com/lysyi3m/rss-harvest/app/feed"
)

const (
	KeyLatest = "latest"
	KeyIndex  = "index"

	KindCategories = "categories"
	KindLang       = "lang"
	KindRegions    = "regions"
	KindDays       = "days"
)

// Kinds lists the partitioned resource kinds served next to latest and index.
var Kinds = []string{KindCategories, KindLang, KindRegions, KindDays}

type Meta struct {
	GeneratedAt             time.Time       `json:"generated_at"`
	Total                   int             `json:"total"`
	ProcessedFeeds          int             `json:"processed_feeds"`
	DiscoveredFeeds         int             `json:"discovered_feeds"`
	SportsProcessedEveryRun bool            `json:"sports_processed_every_run"`
	ShardOf                 int             `json:"shard_of"`
	ShardIndex              int             `json:"shard_index"`
	RunID                   string          `json:"run_id"`
	Results                 []SourceSummary `json:"results"`
}

// SourceSummary is the per-source outcome line of the run metadata.
type SourceSummary struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Homepage    string   `json:"homepage"`
	Lang        string   `json:"lang"`
	Region      string   `json:"region"`
	Categories  []string `json:"cats"`
	Taken       int      `json:"taken"`
	Error       *string  `json:"error"`
	NotModified bool     `json:"notModified"`
}

type Latest struct {
	Meta  Meta           `json:"meta"`
	Items []feed.Article `json:"items"`
}

type Index struct {
	Latest     string   `json:"latest"`
	Categories []string `json:"categories"`
	Lang       []string `json:"lang"`
	Regions    []string `json:"regions"`
	Days       []string `json:"days"`
	LatestDay  string   `json:"latest_day"`
}

// Partition groups articles by one dimension under their sanitized storage
// key, so values that map to the same resource share one group. Keys keep
// first-seen order.
type Partition struct {
	keys   []string
	groups map[string][]feed.Article
}

func newPartition() *Partition {
	return &Partition{groups: make(map[string][]feed.Article)}
}

func (p *Partition) add(value string, article feed.Article) {
	key := SanitizeKey(value)
	if _, ok := p.groups[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.groups[key] = append(p.groups[key], article)
}

func (p *Partition) Keys() []string {
	return p.keys
}

func (p *Partition) Get(key string) []feed.Article {
	return p.groups[key]
}

// Snapshot is everything one run writes to the store.
type Snapshot struct {
	Meta       Meta
	Items      []feed.Article
	Categories *Partition
	Lang       *Partition
	Regions    *Partition
	DayKey     string
}
