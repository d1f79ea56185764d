package oracle

import (
	"context"
	"fmt"

	"github.com/lshigami/adaptive-survey/config"
	"github.com/rs/zerolog/log"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// New builds the configured provider chain:
// fallback(providers...) -> rate limit -> per-call timeout. Providers without a
// credential are skipped; if none remain the returned Oracle always fails, so
// every consumer degrades instead of the application refusing to start.
// The cleanup func releases provider clients.
func New(ctx context.Context, cfg config.Oracle) (Oracle, func(), error) {
	var (
		providers []Named
		closers   []func() error
	)
	for _, name := range cfg.Providers {
		switch name {
		case ProviderGemini:
			if cfg.GeminiApiKey == "" {
				log.Warn().Msg("GEMINI_API_KEY is not set. Gemini provider disabled.")
				continue
			}
			g, err := NewGemini(ctx, GeminiConfig{
				APIKey:     cfg.GeminiApiKey,
				Model:      modelFor(cfg, name, cfg.GeminiModel),
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			})
			if err != nil {
				return nil, nil, err
			}
			providers = append(providers, Named{Name: name, Oracle: g})
			closers = append(closers, g.Close)
		case ProviderOpenAI:
			if cfg.OpenAIApiKey == "" {
				log.Warn().Msg("OPENAI_API_KEY is not set. OpenAI-compatible provider disabled.")
				continue
			}
			c, err := NewOpenAICompatible(OpenAIConfig{
				APIKey:     cfg.OpenAIApiKey,
				BaseURL:    cfg.OpenAIBaseURL,
				Model:      modelFor(cfg, name, cfg.OpenAIModel),
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			})
			if err != nil {
				return nil, nil, err
			}
			providers = append(providers, Named{Name: name, Oracle: c})
		default:
			return nil, nil, fmt.Errorf("unknown oracle provider %q", name)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Failed to close oracle client")
			}
		}
	}

	if len(providers) == 0 {
		log.Warn().Msg("No oracle provider configured. Question generation, annotation and insights are disabled.")
		return Unavailable("no oracle provider configured"), cleanup, nil
	}

	var o Oracle = NewFallback(providers...)
	o = WithRateLimit(o, cfg.RequestsPerMinute)
	o = WithTimeout(o, cfg.Timeout)
	return o, cleanup, nil
}

// modelFor lets ORACLE_MODEL override the model of the primary provider only.
func modelFor(cfg config.Oracle, name, providerDefault string) string {
	if cfg.Model != "" && len(cfg.Providers) > 0 && cfg.Providers[0] == name {
		return cfg.Model
	}
	return providerDefault
}
