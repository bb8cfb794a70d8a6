package infra_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestWithRetry_EventuallySucceeds(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return infra.Permanent(sentinel)
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return errors.New("still down")
	})

	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := infra.WithRetry(ctx, infra.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}, func() error {
		calls++
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	assert.True(t, infra.IsRetryableHTTPStatus(429))
	assert.True(t, infra.IsRetryableHTTPStatus(503))
	assert.False(t, infra.IsRetryableHTTPStatus(400))
	assert.False(t, infra.IsRetryableHTTPStatus(401))
}

type countingGenerator struct{ calls int }

func (c *countingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	c.calls++
	return "echo: " + prompt, nil
}

func TestThrottledGenerator_PassThroughWhenDisabled(t *testing.T) {
	next := &countingGenerator{}
	assert.Same(t, next, infra.NewThrottledGenerator(next, 0))
}

func TestThrottledGenerator_WaitsForSlot(t *testing.T) {
	next := &countingGenerator{}
	gen := infra.NewThrottledGenerator(next, 1)

	reply, err := gen.Generate(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Equal(t, "echo: hello", reply)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = gen.Generate(ctx, "again")

	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}
