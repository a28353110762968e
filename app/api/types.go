package api

import (
	"context"

	"github.com/lysyi3m/rss-harvest/app/database"
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/pipeline"
	"github.com/lysyi3m/rss-harvest/app/snapshot"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, articles []feed.Article) (string, error)
}

type PipelineInterface interface {
	LastRun() *pipeline.Summary
	Running() bool
}

type TriggerInterface interface {
	Trigger() bool
}

type RunHistoryInterface interface {
	GetLatestRun(ctx context.Context) (*database.Run, error)
	GetRunCount(ctx context.Context) (int, error)
}

var (
	_ GeneratorInterface  = (*feed.Generator)(nil)
	_ PipelineInterface   = (*pipeline.Pipeline)(nil)
	_ TriggerInterface    = (*pipeline.Runner)(nil)
	_ RunHistoryInterface = (*database.RunRepository)(nil)
)

type Handler struct {
	store     snapshot.Store
	generator GeneratorInterface
	pipeline  PipelineInterface
	trigger   TriggerInterface
	runs      RunHistoryInterface
	version   string
}
