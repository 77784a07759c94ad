package storage

import (
	"context"
	"errors"

	"inherit/internal/report"
)

// ErrNoRuns is returned when a scope has no archived run.
var ErrNoRuns = errors.New("no archived runs")

// Run is one archived conformance report.
type Run struct {
	ID     string
	Report *report.Report
}

// Store archives conformance reports.
type Store interface {
	RunStore
	Close() error
}

// RunStore defines operations for persisting check runs.
type RunStore interface {
	// SaveRun archives rep and returns the new run ID.
	SaveRun(ctx context.Context, rep *report.Report) (string, error)

	// ListRuns returns the most recent runs of scope, newest first. An empty
	// scope lists every scope. A limit of zero or less means no limit.
	ListRuns(ctx context.Context, scope string, limit int) ([]Run, error)

	// LastRun returns the newest run of scope, or ErrNoRuns.
	LastRun(ctx context.Context, scope string) (*Run, error)
}
