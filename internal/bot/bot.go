// Package bot runs the application loop: for every posting it opens the page
// through a working proxy, classifies the application form, fills it from the
// candidate profile and submits it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/logger"
	"github.com/spigell/apply-pilot/internal/posting"
	"github.com/spigell/apply-pilot/internal/proxy"
	"github.com/spigell/apply-pilot/internal/reporter"
	"github.com/spigell/apply-pilot/internal/session"
	"github.com/spigell/apply-pilot/internal/store"
	"github.com/spigell/apply-pilot/internal/utils"
)

var (
	// ErrRequiredFieldUnfilled aborts an application when a required field has no safe value.
	ErrRequiredFieldUnfilled = errors.New("required field unfilled")
	// ErrNoApplicationForm is returned when the posting page has no fillable fields.
	ErrNoApplicationForm = errors.New("no application form detected")
	// ErrNoSubmitControl is returned when the form cannot be submitted.
	ErrNoSubmitControl = errors.New("no submit control found")
)

// SessionFactory opens a browser session, routed through proxyURL when it is not empty.
type SessionFactory func(ctx context.Context, proxyURL string) (session.Session, error)

// ProxySource hands out working proxies and takes failure reports back.
type ProxySource interface {
	GetWorkingProxy(ctx context.Context) (proxy.Proxy, error)
	MarkFailed(p proxy.Proxy)
}

// Recorder persists application results.
type Recorder interface {
	Save(ctx context.Context, record *store.ApplicationRecord) error
}

type Bot struct {
	classifier *form.Classifier
	profile    form.Profile
	sessions   SessionFactory

	proxies  ProxySource
	recorder Recorder
	reporter reporter.Reporter
	pause    utils.Pause
	logger   *zap.Logger

	onResult func(ApplicationResult)
	now      func() time.Time
	newID    func() string
}

type Option func(*Bot)

func WithProxies(p ProxySource) Option { return func(b *Bot) { b.proxies = p } }

func WithRecorder(r Recorder) Option { return func(b *Bot) { b.recorder = r } }

func WithReporter(r reporter.Reporter) Option { return func(b *Bot) { b.reporter = r } }

// WithPause sets the delay between consecutive applications.
func WithPause(p utils.Pause) Option { return func(b *Bot) { b.pause = p } }

func WithLogger(l *zap.Logger) Option { return func(b *Bot) { b.logger = logger.WithFields(l) } }

// OnResult registers a callback invoked after every posting, e.g. to advance a progress bar.
func OnResult(fn func(ApplicationResult)) Option { return func(b *Bot) { b.onResult = fn } }

func New(classifier *form.Classifier, profile form.Profile, sessions SessionFactory, opts ...Option) (*Bot, error) {
	if classifier == nil {
		return nil, errors.New("field classifier is required")
	}
	if sessions == nil {
		return nil, errors.New("session factory is required")
	}

	b := &Bot{
		classifier: classifier,
		profile:    profile,
		sessions:   sessions,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Run applies to every posting in order. Individual failures never stop the
// run; only context cancellation does. The summary is reported when a
// reporter is configured.
func (b *Bot) Run(ctx context.Context, postings *posting.Postings) (Stats, error) {
	stats := Stats{RunID: b.newID(), Started: b.now()}
	log := b.logger.With(zap.String("run_id", stats.RunID))

	log.Info("starting application run", zap.Int("postings", postings.Len()))

	var runErr error
	for i, p := range postings.Items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		result := b.Apply(ctx, stats.RunID, p)
		stats.add(result)
		b.persist(ctx, log, result)
		if b.onResult != nil {
			b.onResult(result)
		}

		if result.Status == StatusSkipped || i == len(postings.Items)-1 {
			continue
		}
		if err := b.pause.Wait(ctx); err != nil {
			runErr = err
			break
		}
	}

	stats.Finished = b.now()
	log.Info("application run finished",
		zap.Int("total", stats.Total),
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed),
		zap.Int("errors", stats.Errors),
		zap.Int("skipped", stats.Skipped),
		zap.Float64("success_rate", stats.SuccessRate()),
	)

	if b.reporter != nil {
		// The run context may already be cancelled; the summary is still worth sending.
		if err := b.reporter.Report(context.WithoutCancel(ctx), stats.Summary()); err != nil {
			log.Warn("failed to report run summary", zap.Error(err))
		}
	}

	return stats, runErr
}

func (b *Bot) persist(ctx context.Context, log *zap.Logger, result ApplicationResult) {
	if b.recorder == nil || result.Status == StatusSkipped {
		return
	}
	if err := b.recorder.Save(ctx, result.record()); err != nil {
		log.Warn("failed to store application result", zap.String("url", result.URL), zap.Error(err))
	}
}

// Apply runs a single application and never returns an error: every failure
// is folded into the result status.
func (b *Bot) Apply(ctx context.Context, runID string, p *posting.Posting) ApplicationResult {
	result := ApplicationResult{
		ID:        b.newID(),
		RunID:     runID,
		Platform:  p.Source,
		Company:   p.Company,
		Position:  p.Title,
		URL:       p.URL,
		AppliedAt: b.now(),
	}
	log := logger.WithFields(b.logger, logger.CommonFields(p.Source, p.Company, p.URL)...)

	if !p.IsValid() || p.URL == "" {
		result.Status = StatusSkipped
		result.Error = "posting is missing title, company, location or url"
		log.Info("skipping posting", zap.String("reason", result.Error))
		return result
	}

	err := b.apply(ctx, log, p)
	switch {
	case err == nil:
		result.Status = StatusSuccess
		log.Info("application submitted", zap.String("position", p.Title))
	case errors.Is(err, ErrRequiredFieldUnfilled), errors.Is(err, ErrNoSubmitControl):
		result.Status = StatusFailed
		result.Error = err.Error()
		log.Warn("application not submitted", zap.Error(err))
	default:
		result.Status = StatusError
		result.Error = err.Error()
		log.Error("application failed", zap.Error(err))
	}
	return result
}

func (b *Bot) apply(ctx context.Context, log *zap.Logger, p *posting.Posting) error {
	var (
		egress   proxy.Proxy
		proxyURL string
	)
	if b.proxies != nil {
		var err error
		egress, err = b.proxies.GetWorkingProxy(ctx)
		if err != nil {
			return fmt.Errorf("select proxy: %w", err)
		}
		proxyURL = egress.URL().String()
		log.Debug("using proxy", zap.String("proxy", egress.String()))
	}

	s, err := b.sessions(ctx, proxyURL)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Debug("closing session failed", zap.Error(err))
		}
	}()

	if err := s.Navigate(ctx, p.URL); err != nil {
		if b.proxies != nil {
			b.proxies.MarkFailed(egress)
		}
		return err
	}

	content, err := s.Content(ctx)
	if err != nil {
		return err
	}

	target, err := applicationForm(content)
	if err != nil {
		return err
	}

	result := b.classifier.Classify(ctx, target.Fields)
	if len(result.Unknown) > 0 {
		log.Info("unclassified form fields", zap.Strings("fields", identifiers(result.Unknown)))
	}
	if unknown := result.RequiredUnknown(); len(unknown) > 0 {
		log.Warn("required fields could not be classified", zap.Strings("fields", identifiers(unknown)))
	}

	steps, missing := form.Plan(result, b.profile)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrRequiredFieldUnfilled, identifiers(missing))
	}

	if err := b.fill(ctx, log, s, steps); err != nil {
		return err
	}

	if target.Submit == "" {
		return ErrNoSubmitControl
	}
	submit, err := s.FindElement(ctx, target.Submit)
	if err != nil {
		if errors.Is(err, session.ErrElementNotFound) {
			return fmt.Errorf("%w: %v", ErrNoSubmitControl, err)
		}
		return err
	}
	return s.Click(ctx, submit)
}

// applicationForm picks the form with the most fields on the page.
func applicationForm(content string) (form.Form, error) {
	forms, err := form.ParseHTML(content)
	if err != nil {
		return form.Form{}, err
	}

	var best form.Form
	for _, f := range forms {
		if len(f.Fields) > len(best.Fields) {
			best = f
		}
	}
	if len(best.Fields) == 0 {
		return form.Form{}, ErrNoApplicationForm
	}
	return best, nil
}

func identifiers(fields []form.Field) []string {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.Identifier)
	}
	return ids
}
