package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// OpenAICompatible talks to any chat-completions endpoint that follows the
// OpenAI wire format (OpenAI, Groq, OpenRouter, local gateways).
type OpenAICompatible struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAICompatible(cfg OpenAIConfig) (*OpenAICompatible, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	log.Info().Str("baseURL", cfg.BaseURL).Str("model", cfg.Model).Msg("OpenAI-compatible client initialized")
	return &OpenAICompatible{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: cfg.HTTPClient,
	}, nil
}

func (c *OpenAICompatible) Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Temperature: limits.Temperature,
		MaxTokens:   limits.MaxTokens,
	}
	if prompt.System != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: prompt.System})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: prompt.User})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", newError("openai", fmt.Errorf("failed to marshal request: %w", err))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Int("attempt", attempt+1).Int("maxRetries", c.maxRetries).Msg("Retrying chat completion request")
			if err := sleepCtx(ctx, c.retryDelay); err != nil {
				return "", newError("openai", err)
			}
		}

		text, retryable, err := c.do(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Error().Err(err).Int("attempt", attempt+1).Msg("Chat completion request failed")
		if !retryable {
			break
		}
	}
	return "", newError("openai", lastErr)
}

func (c *OpenAICompatible) do(ctx context.Context, payload []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retry, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", true, errors.New("no choices in response")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", true, errors.New("empty completion")
	}
	return content, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
