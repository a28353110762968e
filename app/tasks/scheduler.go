package tasks

import (
	"cmp"
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/state"
)

var _ SchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	env         *runenv.Env
	workerCount int
	wg          sync.WaitGroup
}

func NewScheduler(env *runenv.Env) *Scheduler {
	return &Scheduler{
		env:         env,
		workerCount: env.Workers,
	}
}

// ShardIndex assigns a source key to one of shards buckets using 32-bit
// FNV-1a, which is stable across processes.
func ShardIndex(key string, shards int) int {
	if shards <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(shards))
}

func shardKey(src source.Source) string {
	return cmp.Or(src.FeedURL, src.Homepage)
}

// WorkList returns every sports source followed by the non-sports sources
// whose shard equals active.
func WorkList(sources []source.Source, shards, active int) []source.Source {
	var sports, sharded []source.Source

	for _, src := range sources {
		if src.IsSports() {
			sports = append(sports, src)
			continue
		}
		if ShardIndex(shardKey(src), shards) == active {
			sharded = append(sharded, src)
		}
	}

	return append(sports, sharded...)
}

// Run fetches the cycle's work list through a fixed pool of workers and
// collects results on the calling goroutine once all workers are done.
func (s *Scheduler) Run(ctx context.Context, sources []source.Source) *Report {
	active := s.env.ActiveShard()
	work := WorkList(sources, s.env.Shards, active)

	slog.Info("Fetch cycle started",
		"discovered", len(sources),
		"work_list", len(work),
		"shard", active,
		"shards", s.env.Shards,
		"workers", s.workerCount)

	taskQueue := make(chan *IngestSourceTask, len(work))
	results := make(chan RunResult, len(work))

	for _, src := range work {
		taskQueue <- NewIngestSourceTask(src, s.env)
	}
	close(taskQueue)

	for i := 0; i < min(s.workerCount, len(work)); i++ {
		s.wg.Add(1)
		go s.worker(ctx, i, taskQueue, results)
	}

	s.wg.Wait()
	close(results)

	report := &Report{
		ActiveShard:  active,
		Shards:       s.env.Shards,
		Discovered:   len(sources),
		WorkList:     work,
		Results:      make([]RunResult, 0, len(work)),
		StateUpdates: make(map[string]state.FetchState),
	}

	for result := range results {
		report.Results = append(report.Results, result)
		if result.State != nil {
			report.StateUpdates[result.Source.Key()] = *result.State
		}
	}

	return report
}

func (s *Scheduler) worker(ctx context.Context, id int, taskQueue <-chan *IngestSourceTask, results chan<- RunResult) {
	defer s.wg.Done()

	for task := range taskQueue {
		s.executeTask(ctx, id, task)
		results <- task.Result()
	}
}

func (s *Scheduler) executeTask(ctx context.Context, workerID int, task TaskInterface) {
	task.Start()

	if err := task.Execute(ctx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "source", task.GetSourceName(), "error", err)
	}
}
