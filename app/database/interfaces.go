package database

import (
	"context"

	"github.com/lysyi3m/rss-harvest/app/state"
)

type RunRepositoryInterface interface {
	RecordRun(ctx context.Context, run Run) error
	GetLatestRun(ctx context.Context) (*Run, error)
	GetRunCount(ctx context.Context) (int, error)
}

var (
	_ state.Store            = (*FeedStateRepository)(nil)
	_ RunRepositoryInterface = (*RunRepository)(nil)
)
