package tasks

import (
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/state"
)

type Outcome string

const (
	OutcomeSkippedNoURL Outcome = "skipped_no_url"
	OutcomeNotModified  Outcome = "not_modified"
	OutcomeFetched      Outcome = "fetched"
	OutcomeError        Outcome = "error"
)

const ErrNoFeedURL = "no_feed_url"

// RunResult is the outcome of ingesting one source.
type RunResult struct {
	Source      source.Source
	Outcome     Outcome
	Taken       int
	Items       []feed.Article
	Error       string
	NotModified bool
	State       *state.FetchState // set only when the feed was fetched and parsed
}

// Report is what one scheduler cycle produced. Results are in completion
// order and must be re-sorted by consumers.
type Report struct {
	ActiveShard  int
	Shards       int
	Discovered   int
	WorkList     []source.Source
	Results      []RunResult
	StateUpdates map[string]state.FetchState
}
