package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/rss-harvest/app/database"
	"github.com/lysyi3m/rss-harvest/app/runenv"
)

var ErrRunInProgress = errors.New("pipeline run already in progress")

// Config names the run inputs. Missing files are treated as empty lists.
type Config struct {
	SeedsFile    string
	OPMLDir      string
	SourcesFile  string
	SettingsFile string
	Options      runenv.Options
}

// Summary is the outcome of one completed run.
type Summary struct {
	RunID       string
	GeneratedAt time.Time
	DayKey      string
	Total       int
	Processed   int
	Discovered  int
	Fetched     int
	NotModified int
	Skipped     int
	Errors      int
	Enriched    int
	ShardIndex  int
	ShardOf     int
	Duration    time.Duration
}

// RunRecorder stores completed runs. It is optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, run database.Run) error
}

var _ RunRecorder = (*database.RunRepository)(nil)
