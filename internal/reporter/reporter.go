// Package reporter sends run summaries to external channels.
package reporter

import (
	"context"
	"time"
)

// Failure describes one application that did not go through.
type Failure struct {
	Company  string
	Position string
	URL      string
	Status   string
	Error    string
}

// Summary is the outcome of one application run.
type Summary struct {
	RunID       string
	Total       int
	Success     int
	Failed      int
	Errors      int
	Skipped     int
	SuccessRate float64
	Duration    time.Duration
	Failures    []Failure
}

// Reporter publishes a run summary.
type Reporter interface {
	Report(ctx context.Context, s Summary) error
}
