package oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Oracle
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to at most requestsPerMinute. Zero or negative
// disables limiting.
func WithRateLimit(next Oracle, requestsPerMinute int) Oracle {
	if requestsPerMinute <= 0 {
		return next
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
	}
}

func (r *rateLimited) Generate(ctx context.Context, prompt Prompt, limits Limits) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", newError("rate_limit", err)
	}
	return r.next.Generate(ctx, prompt, limits)
}
