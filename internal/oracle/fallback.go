package oracle

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Named pairs an Oracle with a label used in logs.
type Named struct {
	Name   string
	Oracle Oracle
}

type fallback struct {
	providers []Named
}

// NewFallback tries providers in order and returns the first success.
func NewFallback(providers ...Named) Oracle {
	if len(providers) == 1 {
		return providers[0].Oracle
	}
	return &fallback{providers: providers}
}

func (f *fallback) Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error) {
	if len(f.providers) == 0 {
		return "", &Error{Provider: "fallback", Err: errors.New("no providers configured")}
	}
	var errs []error
	for i, p := range f.providers {
		text, err := p.Oracle.Generate(ctx, prompt, limits)
		if err == nil {
			if i > 0 {
				log.Info().Str("provider", p.Name).Int("index", i).Msg("Oracle fallback provider succeeded")
			}
			return text, nil
		}
		log.Warn().Err(err).Str("provider", p.Name).Msg("Oracle provider failed, trying next")
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", &Error{Provider: "fallback", Err: errors.Join(errs...)}
}
