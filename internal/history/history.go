// Package history journals scrape outcomes to PostgreSQL. The journal is
// optional observability, not a data path: the pipeline's records live only
// in the TTL cache, and a journal failure never fails a scrape.
package history

import (
	"context"
	"time"
)

// ScrapeRecord is one scrape attempt's outcome.
type ScrapeRecord struct {
	Domain   string
	Terminal string
	Success  bool
	Duration time.Duration
	Error    string
	At       time.Time
}

// Recorder persists scrape outcomes. A real Postgres recorder is used when a
// DSN is configured, the NoOp recorder otherwise.
type Recorder interface {
	Record(ctx context.Context, rec ScrapeRecord) error
	Close()
}

// NoOpRecorder discards every record.
type NoOpRecorder struct{}

// Record does nothing.
func (NoOpRecorder) Record(context.Context, ScrapeRecord) error { return nil }

// Close does nothing.
func (NoOpRecorder) Close() {}
