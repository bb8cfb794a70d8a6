package infra

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"jarvis/internal/application"
)

// ThrottledGenerator caps how often the wrapped generator is called, so a
// chatty room cannot burn through the model quota.
type ThrottledGenerator struct {
	next    application.Generator
	limiter *rate.Limiter
}

// NewThrottledGenerator allows perMinute calls per minute with a burst of one.
// A non-positive perMinute returns next unchanged.
func NewThrottledGenerator(next application.Generator, perMinute int) application.Generator {
	if perMinute <= 0 {
		return next
	}
	return &ThrottledGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (t *ThrottledGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for generation slot: %w", err)
	}
	return t.next.Generate(ctx, prompt)
}
