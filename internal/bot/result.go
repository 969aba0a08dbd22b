package bot

import (
	"time"

	"github.com/spigell/apply-pilot/internal/reporter"
	"github.com/spigell/apply-pilot/internal/store"
)

// Status is the outcome of one application attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// ApplicationResult records what happened to one posting.
type ApplicationResult struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Status    Status    `json:"status"`
	Platform  string    `json:"platform"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	URL       string    `json:"url"`
	AppliedAt time.Time `json:"applied_at"`
	Error     string    `json:"error,omitempty"`
}

func (r ApplicationResult) record() *store.ApplicationRecord {
	return &store.ApplicationRecord{
		ID:        r.ID,
		RunID:     r.RunID,
		Status:    string(r.Status),
		Platform:  r.Platform,
		Company:   r.Company,
		Position:  r.Position,
		URL:       r.URL,
		Error:     r.Error,
		AppliedAt: r.AppliedAt,
	}
}

// Stats aggregates the results of a run. Skipped postings are not attempts.
type Stats struct {
	RunID    string
	Total    int
	Success  int
	Failed   int
	Errors   int
	Skipped  int
	Failures []ApplicationResult
	Started  time.Time
	Finished time.Time
}

func (s *Stats) add(r ApplicationResult) {
	switch r.Status {
	case StatusSkipped:
		s.Skipped++
		return
	case StatusSuccess:
		s.Success++
	case StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, r)
	case StatusError:
		s.Errors++
		s.Failures = append(s.Failures, r)
	}
	s.Total++
}

// SuccessRate is the percentage of attempts that succeeded.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total) * 100
}

// Summary converts the stats for reporting.
func (s Stats) Summary() reporter.Summary {
	summary := reporter.Summary{
		RunID:       s.RunID,
		Total:       s.Total,
		Success:     s.Success,
		Failed:      s.Failed,
		Errors:      s.Errors,
		Skipped:     s.Skipped,
		SuccessRate: s.SuccessRate(),
		Duration:    s.Finished.Sub(s.Started),
	}
	for _, f := range s.Failures {
		summary.Failures = append(summary.Failures, reporter.Failure{
			Company:  f.Company,
			Position: f.Position,
			URL:      f.URL,
			Status:   string(f.Status),
			Error:    f.Error,
		})
	}
	return summary
}
