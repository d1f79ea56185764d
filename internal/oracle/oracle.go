// Package oracle abstracts the external text-generation provider behind a
// narrow interface so consumers can be tested with fixed-response stubs.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrOracle is matched by every error returned from an Oracle.
var ErrOracle = errors.New("oracle failure")

// Prompt is a single system/user exchange.
type Prompt struct {
	System string
	User   string
	// ExpectJSON asks providers that support it for a JSON response body.
	ExpectJSON bool
}

// Limits bounds one call.
type Limits struct {
	MaxTokens   int32
	Temperature float32
}

type Oracle interface {
	Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error)
}

// Error carries the provider name and the underlying cause.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrOracle, e.Err}
}

func newError(provider string, err error) error {
	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	return &Error{Provider: provider, Err: err}
}

// StripCodeFence removes a surrounding ``` or ```json fence from model output.
func StripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	clean = strings.TrimPrefix(clean, "```")
	if nl := strings.IndexByte(clean, '\n'); nl >= 0 && !strings.ContainsAny(clean[:nl], "{[") {
		clean = clean[nl+1:]
	} else {
		clean = strings.TrimPrefix(clean, "json")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

type timeoutOracle struct {
	next    Oracle
	timeout time.Duration
}

// WithTimeout bounds every call with a deadline. A zero timeout returns next
// unchanged.
func WithTimeout(next Oracle, timeout time.Duration) Oracle {
	if timeout <= 0 {
		return next
	}
	return &timeoutOracle{next: next, timeout: timeout}
}

func (o *timeoutOracle) Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	text, err := o.next.Generate(ctx, prompt, limits)
	if err != nil {
		return "", newError("timeout", err)
	}
	return text, nil
}

type unavailable struct {
	reason string
}

// Unavailable returns an Oracle that always fails. It stands in when no
// provider credential is configured.
func Unavailable(reason string) Oracle {
	return &unavailable{reason: reason}
}

func (u *unavailable) Generate(context.Context, Prompt, Limits) (string, error) {
	return "", &Error{Provider: "unavailable", Err: errors.New(u.reason)}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
