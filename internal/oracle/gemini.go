package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// Gemini calls Google's Gemini API through the genai client.
type Gemini struct {
	client     *genai.Client
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	log.Info().Str("model", cfg.Model).Int("maxRetries", cfg.MaxRetries).Msg("Gemini client initialized")
	return &Gemini{
		client:     client,
		modelName:  cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error) {
	// GenerativeModel carries per-call settings, so one is built per request.
	model := g.client.GenerativeModel(g.modelName)
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr(limits.Temperature),
		MaxOutputTokens: genai.Ptr(limits.MaxTokens),
	}
	if prompt.ExpectJSON {
		model.ResponseMIMEType = "application/json"
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Int("attempt", attempt+1).Int("maxRetries", g.maxRetries).Msg("Retrying Gemini request")
			if err := sleepCtx(ctx, g.retryDelay); err != nil {
				return "", newError("gemini", err)
			}
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt.User))
		if err != nil {
			lastErr = fmt.Errorf("gemini API error: %w", err)
			log.Error().Err(err).Int("attempt", attempt+1).Msg("Gemini API error")
			continue
		}
		text := responseText(resp)
		if text == "" {
			lastErr = errors.New("empty response from gemini")
			log.Error().Int("attempt", attempt+1).Msg("Empty response from Gemini")
			continue
		}
		return text, nil
	}
	return "", newError("gemini", fmt.Errorf("failed after %d attempts: %w", g.maxRetries+1, lastErr))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
