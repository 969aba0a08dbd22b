package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/ai"
	"github.com/spigell/apply-pilot/internal/ai/gemini"
	"github.com/spigell/apply-pilot/internal/bot"
	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/proxy"
	"github.com/spigell/apply-pilot/internal/reporter"
	"github.com/spigell/apply-pilot/internal/secrets"
	"github.com/spigell/apply-pilot/internal/session"
	"github.com/spigell/apply-pilot/internal/store"
)

// newClassifier builds the field classifier from the form section. The
// learned scorer is attached only when it is enabled.
func newClassifier(ctx context.Context, cfg *FormConfig, log *zap.Logger) (*form.Classifier, error) {
	if cfg == nil {
		cfg = &FormConfig{}
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = form.DefaultPatterns()
	}

	indicators := cfg.RequiredIndicators
	if len(indicators) == 0 {
		indicators = form.DefaultRequiredIndicators()
	}
	required, err := form.CompileIndicators(indicators)
	if err != nil {
		return nil, fmt.Errorf("form.required-indicators: %w", err)
	}

	opts := []form.Option{
		form.WithLogger(log),
		form.WithRequiredIndicators(required),
	}

	scorer, err := newScorer(ctx, cfg.Scorer, log)
	if err != nil {
		return nil, err
	}
	if scorer != nil {
		opts = append(opts, form.WithScorer(scorer))
	}

	return form.NewClassifier(patterns, opts...)
}

func newScorer(ctx context.Context, cfg *ScorerConfig, log *zap.Logger) (form.Scorer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != ai.ProviderGemini {
		return nil, fmt.Errorf("unsupported scorer provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set form.scorer.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewFieldScorer(generator, log, cfg.MaxLogLength), nil
}

// newPool loads the proxy list. A nil pool means direct connections.
func newPool(cfg *ProxyConfig, log *zap.Logger) (*proxy.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.File) == "" {
		return nil, nil
	}

	return proxy.Load(cfg.File,
		proxy.WithMaxFails(cfg.MaxFails),
		proxy.WithChecker(proxy.NewHTTPChecker(cfg.TestURLs, cfg.Timeout)),
		proxy.WithLogger(log),
	)
}

func newStore(cfg *StoreConfig, log *zap.Logger) (*store.Repository, error) {
	if cfg == nil {
		return nil, nil
	}

	dsn, ok, err := secrets.Optional(secrets.Source{
		Name:  "store dsn",
		Value: cfg.DSN,
		Env:   envPrefix + "_STORE_DSN",
		File:  cfg.DSNFile,
	})
	if err != nil || !ok {
		return nil, err
	}

	return store.Open(dsn, log)
}

func newReporter(cfg *TelegramConfig) (reporter.Reporter, error) {
	if cfg == nil {
		return nil, nil
	}

	token, ok, err := secrets.Optional(secrets.Source{
		Name:  "telegram bot token",
		Value: cfg.Token,
		Env:   "TELEGRAM_BOT_TOKEN",
		File:  cfg.TokenFile,
	})
	if err != nil || !ok {
		return nil, err
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram.chat-id is required when a bot token is set")
	}

	telegram, err := reporter.NewTelegram(token, cfg.ChatID)
	if err != nil {
		return nil, err
	}
	return telegram, nil
}

// sessionFactory opens a fresh browser per application so every posting
// gets its own proxy and cookie jar.
func sessionFactory(opts session.Options, log *zap.Logger) bot.SessionFactory {
	return func(ctx context.Context, proxyURL string) (session.Session, error) {
		o := opts
		o.Proxy = proxyURL

		chrome, err := session.NewChrome(ctx, o, log)
		if err != nil {
			return nil, err
		}
		return chrome, nil
	}
}
