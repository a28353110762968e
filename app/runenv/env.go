package runenv

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-harvest/app/blacklist"
	"github.com/lysyi3m/rss-harvest/app/classify"
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/state"
)

const (
	DefaultShards           = 5
	DefaultWorkers          = 20
	DefaultMaxItems         = 4000
	DefaultDiscoveryTimeout = 12 * time.Second
	DefaultFetchTimeout     = 15 * time.Second
)

type Options struct {
	Shards           int
	Workers          int
	MaxItems         int
	DiscoveryTimeout time.Duration
	FetchTimeout     time.Duration
	EnrichLimit      int
	URLPrefix        string
	StartedAt        time.Time
}

// Env is built once per run and passed to discovery, ingestion and assembly.
// Nothing in it is mutated after New returns.
type Env struct {
	RunID     string
	StartedAt time.Time

	Fetcher    fetcher.ClientInterface
	Parser     *feed.Parser
	Extractor  *feed.ContentExtractor
	Classifier *classify.Classifier
	Blacklist  *blacklist.Filter

	Allowed       map[string]bool
	ExcludedPaths []string
	PriorState    map[string]state.FetchState

	Shards           int
	Workers          int
	MaxItems         int
	DiscoveryTimeout time.Duration
	FetchTimeout     time.Duration
	EnrichLimit      int
	URLPrefix        string
}

func New(settings *feed.Settings, client fetcher.ClientInterface, prior map[string]state.FetchState, opts Options) (*Env, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if client == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	classifier, err := settings.Classifier()
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	if prior == nil {
		prior = make(map[string]state.FetchState)
	}

	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	return &Env{
		RunID:            uuid.NewString(),
		StartedAt:        startedAt,
		Fetcher:          client,
		Parser:           feed.NewParser(),
		Extractor:        feed.NewContentExtractor(),
		Classifier:       classifier,
		Blacklist:        blacklist.Compile(settings.Blacklist),
		Allowed:          settings.AllowedSet(classifier),
		ExcludedPaths:    settings.ExcludedPaths,
		PriorState:       prior,
		Shards:           positiveOr(opts.Shards, DefaultShards),
		Workers:          positiveOr(opts.Workers, DefaultWorkers),
		MaxItems:         positiveOr(opts.MaxItems, DefaultMaxItems),
		DiscoveryTimeout: positiveOr(opts.DiscoveryTimeout, DefaultDiscoveryTimeout),
		FetchTimeout:     positiveOr(opts.FetchTimeout, DefaultFetchTimeout),
		EnrichLimit:      max(opts.EnrichLimit, 0),
		URLPrefix:        strings.TrimRight(opts.URLPrefix, "/"),
	}, nil
}

func (e *Env) IsAllowed(category string) bool {
	return e.Allowed[category]
}

// IsExcluded reports whether url contains any configured path substring.
func (e *Env) IsExcluded(url string) bool {
	for _, p := range e.ExcludedPaths {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

// ActiveShard is the run-start wall-clock minute modulo the shard count.
func (e *Env) ActiveShard() int {
	return e.StartedAt.Minute() % e.Shards
}

// DayKey is the run-start calendar date in the configured local timezone.
func (e *Env) DayKey() string {
	return e.StartedAt.In(time.Local).Format(time.DateOnly)
}

func positiveOr[T int | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}
