package filtering

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/logger"
	"github.com/spigell/apply-pilot/internal/matching"
	"github.com/spigell/apply-pilot/internal/posting"
)

type criteriaFilter struct {
	toggle
	engine     *matching.Engine
	criteria   *matching.Criteria
	logger     *zap.Logger
	rejections map[string]int
}

// NewCriteria creates a filter that keeps postings accepted by the matching engine.
func NewCriteria(engine *matching.Engine, criteria *matching.Criteria, log *zap.Logger) Filter {
	return &criteriaFilter{
		engine:   engine,
		criteria: criteria,
		logger:   logger.WithFields(log),
	}
}

func (f *criteriaFilter) Name() string { return "criteria" }

func (f *criteriaFilter) Validate() error {
	if f.engine == nil {
		return errors.New("matching engine is required")
	}
	return nil
}

func (f *criteriaFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	initial := p.Len()
	f.rejections = make(map[string]int)

	dropped := p.Retain(func(item *posting.Posting) bool {
		verdict := f.engine.Evaluate(item, f.criteria)
		if verdict.Matched {
			return true
		}
		f.rejections[verdict.Predicate]++
		f.logger.Debug("posting rejected by criteria",
			append(logger.CommonFields(item.Source, item.Company, item.URL),
				zap.String("predicate", verdict.Predicate),
			)...,
		)
		return false
	})

	return p, Step{Initial: initial, Dropped: len(dropped), Left: p.Len()}, nil
}

func (f *criteriaFilter) Status() Status {
	details := map[string]string{}
	if f.criteria != nil {
		details["keywords"] = strconv.Itoa(len(f.criteria.Keywords))
		details["excluded_keywords"] = strconv.Itoa(len(f.criteria.ExcludedKeywords))
		details["salary_range"] = strconv.FormatBool(f.criteria.SalaryRange != nil)
	}
	// Counts of the first failing predicate from the last run.
	for predicate, n := range f.rejections {
		details["rejected_by_"+predicate] = strconv.Itoa(n)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
