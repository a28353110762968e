package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Runner repeats pipeline runs on a fixed interval until stopped.
type Runner struct {
	pipeline *Pipeline
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewRunner(p *Pipeline, interval time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		pipeline: p,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Runner) Start() {
	slog.Info("Runner started", "interval", r.interval)

	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the loop and waits for the current run to finish.
func (r *Runner) Stop() {
	slog.Info("Stopping runner")
	r.cancel()
	r.wg.Wait()
	slog.Info("Runner stopped")
}

// Trigger starts a run in the background. It returns false when a run is
// already in progress.
func (r *Runner) Trigger() bool {
	if !r.pipeline.tryAcquire() {
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.pipeline.release()

		if _, err := r.pipeline.run(r.ctx); err != nil {
			slog.Error("Triggered run failed", "error", err)
		}
	}()

	return true
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

func (r *Runner) runOnce() {
	if _, err := r.pipeline.Run(r.ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			slog.Debug("Skipping tick, previous run still in progress")
			return
		}
		slog.Error("Pipeline run failed", "error", err)
	}
}
