package snapshot

import (
	"cmp"
	"slices"
	"time"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/tasks"
)

// Collect flattens the items of every result, orders them by publish date
// descending with undated articles last, and keeps the newest maxItems.
// Articles with equal dates keep their relative order.
func Collect(results []tasks.RunResult, maxItems int) []feed.Article {
	total := 0
	for _, result := range results {
		total += len(result.Items)
	}

	items := make([]feed.Article, 0, total)
	for _, result := range results {
		items = append(items, result.Items...)
	}

	slices.SortStableFunc(items, func(a, b feed.Article) int {
		return feed.EpochIfNil(b.PubDate).Compare(feed.EpochIfNil(a.PubDate))
	})

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

// Assemble builds the run snapshot from the final item list.
func Assemble(env *runenv.Env, report *tasks.Report, items []feed.Article) *Snapshot {
	snap := &Snapshot{
		Items:      items,
		Categories: newPartition(),
		Lang:       newPartition(),
		Regions:    newPartition(),
		DayKey:     env.DayKey(),
	}

	for _, article := range items {
		snap.Categories.add(article.Category, article)
		snap.Lang.add(article.Lang, article)
		snap.Regions.add(article.Region, article)
	}

	snap.Meta = Meta{
		GeneratedAt:             time.Now().UTC(),
		Total:                   len(items),
		ProcessedFeeds:          len(report.WorkList),
		DiscoveredFeeds:         report.Discovered,
		SportsProcessedEveryRun: true,
		ShardOf:                 report.Shards,
		ShardIndex:              report.ActiveShard,
		RunID:                   env.RunID,
		Results:                 summarize(report.Results),
	}

	return snap
}

// summarize orders results by source name and feed URL, since workers
// report them in completion order.
func summarize(results []tasks.RunResult) []SourceSummary {
	summaries := make([]SourceSummary, 0, len(results))

	for _, result := range results {
		src := result.Source
		summary := SourceSummary{
			Name:        src.Name,
			URL:         src.FeedURL,
			Homepage:    src.Homepage,
			Lang:        src.Lang,
			Region:      src.Region,
			Categories:  src.Categories,
			Taken:       result.Taken,
			NotModified: result.NotModified,
		}
		if result.Error != "" {
			msg := result.Error
			summary.Error = &msg
		}
		summaries = append(summaries, summary)
	}

	slices.SortStableFunc(summaries, func(a, b SourceSummary) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.URL, b.URL))
	})

	return summaries
}

// BuildIndex lists the resource path of every emitted key under prefix.
func (s *Snapshot) BuildIndex(prefix string) Index {
	paths := func(kind string, keys []string) []string {
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			out = append(out, ResourcePath(prefix, kind+"/"+SanitizeKey(key)))
		}
		return out
	}

	return Index{
		Latest:     ResourcePath(prefix, KeyLatest),
		Categories: paths(KindCategories, s.Categories.Keys()),
		Lang:       paths(KindLang, s.Lang.Keys()),
		Regions:    paths(KindRegions, s.Regions.Keys()),
		Days:       paths(KindDays, []string{s.DayKey}),
		LatestDay:  s.DayKey,
	}
}

func ResourcePath(prefix, key string) string {
	return prefix + "/" + key + ".json"
}
