// Package oracletest provides deterministic Oracle implementations for tests.
package oracletest

import (
	"context"
	"errors"
	"sync"

	"github.com/lshigami/adaptive-survey/internal/oracle"
)

// Call records one Generate invocation.
type Call struct {
	Prompt oracle.Prompt
	Limits oracle.Limits
}

// Stub answers with Respond and records every call. A nil Respond returns an
// empty string.
type Stub struct {
	Respond func(call Call, n int) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (s *Stub) Generate(ctx context.Context, prompt oracle.Prompt, limits oracle.Limits) (string, error) {
	s.mu.Lock()
	call := Call{Prompt: prompt, Limits: limits}
	s.calls = append(s.calls, call)
	n := len(s.calls)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &oracle.Error{Provider: "stub", Err: err}
	}
	if s.Respond == nil {
		return "", nil
	}
	text, err := s.Respond(call, n)
	if err != nil {
		return "", &oracle.Error{Provider: "stub", Err: err}
	}
	return text, nil
}

// Calls returns a copy of the recorded calls.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Fixed always returns text.
func Fixed(text string) *Stub {
	return &Stub{Respond: func(Call, int) (string, error) { return text, nil }}
}

// Failing always fails with an oracle error.
func Failing(msg string) *Stub {
	return &Stub{Respond: func(Call, int) (string, error) { return "", errors.New(msg) }}
}

// Script returns the given responses in order and fails once they run out.
func Script(responses ...string) *Stub {
	return &Stub{Respond: func(_ Call, n int) (string, error) {
		if n > len(responses) {
			return "", errors.New("script exhausted")
		}
		return responses[n-1], nil
	}}
}
