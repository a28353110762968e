package snapshot

import (
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/tasks"
)

func article(id string, pubDate *time.Time, category, lang, region string) feed.Article {
	return feed.Article{ID: id, Title: id, Link: "https://example.com/" + id, PubDate: pubDate, Category: category, Lang: lang, Region: region}
}

func at(minutes int) *time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return &t
}

func testEnv(t *testing.T) *runenv.Env {
	t.Helper()
	env, err := runenv.New(&feed.Settings{}, fetcher.NewClient(fetcher.Config{}), nil, runenv.Options{
		StartedAt: time.Date(2024, 3, 9, 12, 3, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("Failed to build env: %v", err)
	}
	return env
}

func TestCollectCapsAndSorts(t *testing.T) {
	var results []tasks.RunResult
	for r := range 5 {
		result := tasks.RunResult{Outcome: tasks.OutcomeFetched}
		for i := range 1000 {
			n := i*5 + r
			result.Items = append(result.Items, article(fmt.Sprintf("a%d", n), at(n), "general", "en", "global"))
		}
		results = append(results, result)
	}

	items := Collect(results, 4000)

	if len(items) != 4000 {
		t.Fatalf("Expected 4000 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].PubDate.Before(*items[i].PubDate) {
			t.Fatalf("Expected descending order at %d: %v before %v", i, items[i-1].PubDate, items[i].PubDate)
		}
	}
	if items[0].ID != "a4999" {
		t.Errorf("Expected newest article first, got %s", items[0].ID)
	}
	if items[3999].ID != "a1000" {
		t.Errorf("Expected a1000 last, got %s", items[3999].ID)
	}
}

func TestCollectUndatedLast(t *testing.T) {
	results := []tasks.RunResult{
		{Items: []feed.Article{article("undated-1", nil, "general", "en", "global"), article("old", at(1), "general", "en", "global")}},
		{Outcome: tasks.OutcomeNotModified, NotModified: true},
		{Items: []feed.Article{article("undated-2", nil, "general", "en", "global"), article("new", at(2), "general", "en", "global")}},
	}

	items := Collect(results, 0)

	expected := []string{"new", "old", "undated-1", "undated-2"}
	if len(items) != len(expected) {
		t.Fatalf("Expected %d items, got %d", len(expected), len(items))
	}
	for i, id := range expected {
		if items[i].ID != id {
			t.Errorf("Expected %s at %d, got %s", id, i, items[i].ID)
		}
	}
}

func TestAssemblePartitions(t *testing.T) {
	env := testEnv(t)
	items := []feed.Article{
		article("1", at(5), "sports", "ar", "mena"),
		article("2", at(4), "markets", "en", "global"),
		article("3", at(3), "sports", "en", "mena"),
	}

	errMsg := "HTTP error: 500 Internal Server Error"
	report := &tasks.Report{
		ActiveShard: 3,
		Shards:      5,
		Discovered:  10,
		WorkList:    make([]source.Source, 4),
		Results: []tasks.RunResult{
			{Source: source.Source{Name: "zeta", FeedURL: "https://z.example.com/rss"}, Taken: 2},
			{Source: source.Source{Name: "alpha", FeedURL: "https://a.example.com/rss"}, Error: errMsg},
			{Source: source.Source{Name: "beta"}, NotModified: true},
		},
	}

	snap := Assemble(env, report, items)

	if got := snap.Categories.Keys(); len(got) != 2 || got[0] != "sports" || got[1] != "markets" {
		t.Errorf("Expected category keys [sports markets], got %v", got)
	}
	if sports := snap.Categories.Get("sports"); len(sports) != 2 || sports[0].ID != "1" || sports[1].ID != "3" {
		t.Errorf("Expected sports partition [1 3], got %v", sports)
	}
	if en := snap.Lang.Get("en"); len(en) != 2 {
		t.Errorf("Expected 2 english articles, got %d", len(en))
	}
	if mena := snap.Regions.Get("mena"); len(mena) != 2 {
		t.Errorf("Expected 2 mena articles, got %d", len(mena))
	}

	meta := snap.Meta
	if meta.Total != 3 || meta.ProcessedFeeds != 4 || meta.DiscoveredFeeds != 10 {
		t.Errorf("Unexpected counts: %+v", meta)
	}
	if !meta.SportsProcessedEveryRun || meta.ShardOf != 5 || meta.ShardIndex != 3 {
		t.Errorf("Unexpected shard metadata: %+v", meta)
	}
	if meta.RunID != env.RunID {
		t.Errorf("Expected run id %s, got %s", env.RunID, meta.RunID)
	}
	if snap.DayKey != "2024-03-09" {
		t.Errorf("Expected day key 2024-03-09, got %s", snap.DayKey)
	}

	if len(meta.Results) != 3 || meta.Results[0].Name != "alpha" || meta.Results[2].Name != "zeta" {
		t.Fatalf("Expected results sorted by name, got %+v", meta.Results)
	}
	if meta.Results[0].Error == nil || *meta.Results[0].Error != errMsg {
		t.Errorf("Expected error message on alpha, got %v", meta.Results[0].Error)
	}
	if meta.Results[2].Error != nil || meta.Results[2].Taken != 2 {
		t.Errorf("Expected zeta with 2 items and no error, got %+v", meta.Results[2])
	}
	if !meta.Results[1].NotModified {
		t.Error("Expected beta to be reported as not modified")
	}
}

func TestBuildIndex(t *testing.T) {
	env := testEnv(t)
	snap := Assemble(env, &tasks.Report{}, []feed.Article{
		article("1", at(1), "sports", "ar", "mena"),
		article("2", at(0), "a/b", "en", "mena"),
	})

	index := snap.BuildIndex("/api")

	if index.Latest != "/api/latest.json" {
		t.Errorf("Expected /api/latest.json, got %s", index.Latest)
	}
	if len(index.Categories) != 2 || index.Categories[0] != "/api/categories/sports.json" || index.Categories[1] != "/api/categories/a_b.json" {
		t.Errorf("Unexpected category paths: %v", index.Categories)
	}
	if len(index.Lang) != 2 || len(index.Regions) != 1 {
		t.Errorf("Unexpected lang/region paths: %v %v", index.Lang, index.Regions)
	}
	if len(index.Days) != 1 || index.Days[0] != "/api/days/2024-03-09.json" || index.LatestDay != "2024-03-09" {
		t.Errorf("Unexpected days: %v %s", index.Days, index.LatestDay)
	}
}
