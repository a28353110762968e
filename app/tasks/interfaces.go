package tasks

import (
	"context"

	"github.com/lysyi3m/rss-harvest/app/source"
)

// SchedulerInterface runs one fetch cycle over the discovered sources.
// Example usage:
//
//	scheduler := NewScheduler(env)
//	report := scheduler.Run(ctx, sources)
//	newState := state.Merge(env.PriorState, report.StateUpdates)
type SchedulerInterface interface {
	Run(ctx context.Context, sources []source.Source) *Report
}
