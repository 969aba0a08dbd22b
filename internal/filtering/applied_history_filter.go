package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/logger"
	"github.com/spigell/apply-pilot/internal/posting"
)

const forceFlagSetMsg = "force flag is set"

// History lists posting URLs already applied to.
type History interface {
	AppliedURLs(ctx context.Context) ([]string, error)
}

type appliedHistoryFilter struct {
	toggle
	deps   *AppliedHistoryDeps
	ignore bool
}

type AppliedHistoryDeps struct {
	History History
	Logger  *zap.Logger
}

type AppliedHistoryConfig struct {
	Ignore bool
}

// NewAppliedHistory creates a filter that removes postings found in the application history.
func NewAppliedHistory(cfg *AppliedHistoryConfig, deps *AppliedHistoryDeps) Filter {
	ignore := false
	if cfg != nil {
		ignore = cfg.Ignore
	}

	return &appliedHistoryFilter{
		deps:   deps,
		ignore: ignore,
	}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Validate() error {
	if f.deps == nil || f.deps.History == nil {
		return errors.New("application history is required")
	}

	f.deps.Logger = logger.WithFields(f.deps.Logger)
	return nil
}

func (f *appliedHistoryFilter) Apply(ctx context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	initial := p.Len()
	if f.ignore {
		f.deps.Logger.Info("ignoring already applied postings", zap.String("reason", forceFlagSetMsg))
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	applied, err := f.deps.History.AppliedURLs(ctx)
	if err != nil {
		return p, Step{}, fmt.Errorf("get application history: %w", err)
	}

	excluded := p.Exclude(posting.PostingURLField, applied)
	if len(excluded) > 0 {
		f.deps.Logger.Info("excluding postings based on application history",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_applied": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
