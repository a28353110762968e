package database

import (
	"time"
)

// Run is one completed pipeline run as recorded in the run history.
type Run struct {
	ID          string
	GeneratedAt time.Time
	Total       int
	Processed   int
	Discovered  int
	Errors      int
	ShardIndex  int
	ShardOf     int
	Duration    time.Duration
}
