package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-harvest/app/database"
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/snapshot"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/state"
	"github.com/lysyi3m/rss-harvest/app/tasks"
)

// Pipeline runs discovery, ingestion and snapshot assembly end to end.
// Runs never overlap.
type Pipeline struct {
	config  Config
	client  fetcher.ClientInterface
	states  state.Store
	output  snapshot.Store
	runs    RunRecorder
	running atomic.Bool
	mu      sync.RWMutex
	last    *Summary
}

func New(config Config, client fetcher.ClientInterface, states state.Store, output snapshot.Store, runs RunRecorder) *Pipeline {
	return &Pipeline{
		config: config,
		client: client,
		states: states,
		output: output,
		runs:   runs,
	}
}

func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// LastRun returns the summary of the last successful run, or nil.
func (p *Pipeline) LastRun() *Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run executes one full cycle. Per-source failures are recorded in the
// snapshot metadata; only input, output and state persistence failures are
// returned. Nothing is written before every fetch has completed.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if !p.tryAcquire() {
		return nil, ErrRunInProgress
	}
	defer p.release()

	return p.run(ctx)
}

func (p *Pipeline) tryAcquire() bool {
	return p.running.CompareAndSwap(false, true)
}

func (p *Pipeline) release() {
	p.running.Store(false)
}

// run expects the caller to hold the running flag.
func (p *Pipeline) run(ctx context.Context) (*Summary, error) {
	started := time.Now()

	settings, inputs, err := p.loadInputs()
	if err != nil {
		return nil, err
	}

	prior, err := p.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fetch state: %w", err)
	}

	opts := p.config.Options
	if opts.StartedAt.IsZero() {
		opts.StartedAt = started
	}

	env, err := runenv.New(settings, p.client, prior, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build run environment: %w", err)
	}

	sources := source.Discover(ctx, env, inputs)

	report := tasks.NewScheduler(env).Run(ctx, sources)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before snapshot write: %w", err)
	}

	items := snapshot.Collect(report.Results, env.MaxItems)

	enriched := 0
	if env.EnrichLimit > 0 {
		enrichTask := tasks.NewEnrichArticlesTask(items, env)
		enrichTask.Start()
		if err := enrichTask.Execute(ctx); err != nil {
			slog.Warn("Article enrichment failed", "error", err)
		}
		enriched = enrichTask.Enriched()
	}

	snap := snapshot.Assemble(env, report, items)

	if err := snapshot.Write(p.output, snap, env.URLPrefix); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := p.states.Save(ctx, state.Merge(prior, report.StateUpdates)); err != nil {
		return nil, fmt.Errorf("failed to save fetch state: %w", err)
	}

	summary := summarize(env, report, snap)
	summary.Enriched = enriched
	summary.Duration = time.Since(started)

	if p.runs != nil {
		if err := p.runs.RecordRun(ctx, database.Run{
			ID:          summary.RunID,
			GeneratedAt: summary.GeneratedAt,
			Total:       summary.Total,
			Processed:   summary.Processed,
			Discovered:  summary.Discovered,
			Errors:      summary.Errors,
			ShardIndex:  summary.ShardIndex,
			ShardOf:     summary.ShardOf,
			Duration:    summary.Duration,
		}); err != nil {
			slog.Warn("Failed to record run", "run_id", summary.RunID, "error", err)
		}
	}

	p.mu.Lock()
	p.last = summary
	p.mu.Unlock()

	slog.Info("Run completed",
		"run_id", summary.RunID,
		"items", summary.Total,
		"processed", summary.Processed,
		"discovered", summary.Discovered,
		"fetched", summary.Fetched,
		"not_modified", summary.NotModified,
		"errors", summary.Errors,
		"shard", fmt.Sprintf("%d/%d", summary.ShardIndex, summary.ShardOf),
		"duration", summary.Duration)

	return summary, nil
}

func (p *Pipeline) loadInputs() (*feed.Settings, source.Inputs, error) {
	var inputs source.Inputs

	settings, err := feed.LoadSettings(p.config.SettingsFile)
	if err != nil {
		return nil, inputs, fmt.Errorf("failed to load settings: %w", err)
	}

	if inputs.Seeds, err = source.LoadFile(p.config.SeedsFile); err != nil {
		return nil, inputs, fmt.Errorf("failed to load seeds: %w", err)
	}

	if inputs.OPML, err = source.LoadOPMLDir(p.config.OPMLDir); err != nil {
		return nil, inputs, fmt.Errorf("failed to load OPML files: %w", err)
	}

	if inputs.Explicit, err = source.LoadFile(p.config.SourcesFile); err != nil {
		return nil, inputs, fmt.Errorf("failed to load explicit sources: %w", err)
	}

	slog.Debug("Inputs loaded",
		"seeds", len(inputs.Seeds),
		"opml", len(inputs.OPML),
		"explicit", len(inputs.Explicit))

	return settings, inputs, nil
}

func summarize(env *runenv.Env, report *tasks.Report, snap *snapshot.Snapshot) *Summary {
	summary := &Summary{
		RunID:       env.RunID,
		GeneratedAt: snap.Meta.GeneratedAt,
		DayKey:      snap.DayKey,
		Total:       snap.Meta.Total,
		Processed:   snap.Meta.ProcessedFeeds,
		Discovered:  snap.Meta.DiscoveredFeeds,
		ShardIndex:  snap.Meta.ShardIndex,
		ShardOf:     snap.Meta.ShardOf,
	}

	for _, result := range report.Results {
		switch result.Outcome {
		case tasks.OutcomeFetched:
			summary.Fetched++
		case tasks.OutcomeNotModified:
			summary.NotModified++
		case tasks.OutcomeSkippedNoURL:
			summary.Skipped++
		case tasks.OutcomeError:
			summary.Errors++
		}
	}

	return summary
}
