package form

import (
	"context"
	"regexp"

	"go.uber.org/zap"
)

const (
	// PatternConfidence is assigned to every pattern-table match.
	PatternConfidence = 0.9
	// ScorerThreshold is the minimum scorer confidence accepted as a classification.
	ScorerThreshold = 0.7
)

// Score is a purpose guess produced by a Scorer.
type Score struct {
	Purpose    string
	Confidence float64
}

// Scorer is a secondary classifier consulted when no pattern matches a field.
type Scorer interface {
	Score(ctx context.Context, field Field, purposes []string) (Score, error)
}

// Result groups classified fields. A field appears in at most one bucket.
type Result struct {
	Required    []Field
	Optional    []Field
	FileUploads []Field
	Unknown     []Field
	// Duplicates holds fields dropped because another field with the same
	// purpose had a higher or equal confidence.
	Duplicates []Field
}

// RequiredUnknown returns required fields no safe value can be chosen for.
func (r Result) RequiredUnknown() []Field {
	var fields []Field
	for _, f := range r.Unknown {
		if f.Required {
			fields = append(fields, f)
		}
	}
	for _, f := range r.FileUploads {
		if f.Required && !f.IsClassified() {
			fields = append(fields, f)
		}
	}
	return fields
}

// Len returns the number of fields placed into buckets.
func (r Result) Len() int {
	return len(r.Required) + len(r.Optional) + len(r.FileUploads) + len(r.Unknown)
}

type Classifier struct {
	rules     []rule
	required  []*regexp.Regexp
	purposes  []string
	scorer    Scorer
	threshold float64
	logger    *zap.Logger
}

type Option func(*Classifier)

// WithScorer enables the secondary scoring path.
func WithScorer(s Scorer) Option {
	return func(c *Classifier) { c.scorer = s }
}

// WithLogger sets the logger used to report scorer failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequiredIndicators replaces the default required-field expressions.
func WithRequiredIndicators(exprs []*regexp.Regexp) Option {
	return func(c *Classifier) {
		if len(exprs) > 0 {
			c.required = exprs
		}
	}
}

// NewClassifier compiles the pattern table. An empty or invalid table is a configuration error.
func NewClassifier(table []Pattern, opts ...Option) (*Classifier, error) {
	rules, err := compileTable(table)
	if err != nil {
		return nil, err
	}

	required, err := compileAll(DefaultRequiredIndicators())
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		rules:     rules,
		required:  required,
		threshold: ScorerThreshold,
		logger:    zap.NewNop(),
	}
	for _, r := range rules {
		c.purposes = append(c.purposes, r.purpose)
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// CompileIndicators compiles required-indicator expressions taken from configuration.
func CompileIndicators(patterns []string) ([]*regexp.Regexp, error) {
	return compileAll(patterns)
}

// Identify assigns a purpose and confidence to a single field.
func (c *Classifier) Identify(ctx context.Context, f Field) Field {
	text := f.Context()

	f.Required = f.Attrs.Required || matchAny(c.required, text)
	f.Purpose = PurposeUnknown
	f.Confidence = 0

	for _, r := range c.rules {
		if matchAny(r.exprs, text) {
			f.Purpose = r.purpose
			f.Confidence = PatternConfidence
			return f
		}
	}

	if c.scorer == nil {
		return f
	}

	score, err := c.scorer.Score(ctx, f, c.purposes)
	if err != nil {
		c.logger.Warn("field scorer failed",
			zap.String("field", f.Identifier),
			zap.Error(err),
		)
		return f
	}

	if score.Purpose == "" || score.Purpose == PurposeUnknown || score.Confidence < c.threshold {
		c.logger.Debug("field scorer below threshold",
			zap.String("field", f.Identifier),
			zap.String("purpose", score.Purpose),
			zap.Float64("confidence", score.Confidence),
			zap.Float64("threshold", c.threshold),
		)
		return f
	}

	f.Purpose = score.Purpose
	f.Confidence = score.Confidence
	return f
}

// Classify identifies every field and sorts them into buckets, keeping input order.
// File fields always land in FileUploads and are never deduplicated; the
// other fields keep only the highest confidence one per purpose.
func (c *Classifier) Classify(ctx context.Context, fields []Field) Result {
	identified := make([]Field, len(fields))
	best := make(map[string]int)
	for i, f := range fields {
		identified[i] = c.Identify(ctx, f)
		if identified[i].Kind == KindFile || !identified[i].IsClassified() {
			continue
		}
		purpose := identified[i].Purpose
		if j, ok := best[purpose]; !ok || identified[i].Confidence > identified[j].Confidence {
			best[purpose] = i
		}
	}

	var result Result
	for i, f := range identified {
		switch {
		case f.Kind == KindFile:
			result.FileUploads = append(result.FileUploads, f)
		case !f.IsClassified():
			result.Unknown = append(result.Unknown, f)
		case best[f.Purpose] != i:
			result.Duplicates = append(result.Duplicates, f)
		case f.Required:
			result.Required = append(result.Required, f)
		default:
			result.Optional = append(result.Optional, f)
		}
	}

	return result
}
