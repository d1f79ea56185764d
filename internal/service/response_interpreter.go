package service

import (
	"context"

	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle"
	"github.com/rs/zerolog/log"
)

const interpreterSystemPrompt = `You analyze survey responses and extract structured information.
Return ONLY a JSON object with these keys:
- "topics": array of key topics mentioned
- "sentiment": one of "positive", "negative", "neutral"
- "entities": array of named entities (products, people, places, organizations)
- "quantitative_data": object of any numbers or measurable values mentioned, keyed by what they measure`

// ResponseInterpreter turns one free-text answer into an annotation. It
// never fails: oracle and parse problems degrade to a fallback annotation.
type ResponseInterpreter interface {
	Interpret(ctx context.Context, raw string) model.Annotation
}

type responseInterpreter struct {
	oracle oracle.Oracle
	limits oracle.Limits
}

func NewResponseInterpreter(o oracle.Oracle, cfg *config.Config) ResponseInterpreter {
	return &responseInterpreter{
		oracle: o,
		limits: oracle.Limits(cfg.Oracle.Interpret),
	}
}

func (s *responseInterpreter) Interpret(ctx context.Context, raw string) model.Annotation {
	prompt := oracle.Prompt{
		System:     interpreterSystemPrompt,
		User:       "Survey response: " + raw,
		ExpectJSON: true,
	}
	out, err := s.oracle.Generate(ctx, prompt, s.limits)
	if err != nil {
		log.Warn().Err(err).Msg("Interpret: oracle failed, annotation unavailable")
		return model.UnavailableAnnotation(err)
	}

	ann, err := model.StructuredAnnotation([]byte(oracle.StripCodeFence(out)))
	if err != nil {
		log.Warn().Err(err).Msg("Interpret: oracle output is not JSON, keeping raw text")
		return model.RawFallbackAnnotation(out)
	}
	return ann
}
