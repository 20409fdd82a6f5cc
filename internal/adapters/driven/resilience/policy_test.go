package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func noSleep(c *Caller) *Caller {
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

func TestPolicyFrom(t *testing.T) {
	p := PolicyFrom(domain.DefaultSettings().Upstream)
	assert.Equal(t, 60*time.Second, p.Timeout)
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.Backoff)
	assert.Zero(t, p.RatePerSecond)
}

func TestDo_Success(t *testing.T) {
	c := NewCaller("test", Policy{MaxAttempts: 3})
	calls := 0
	err := c.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SingleAttemptByDefault(t *testing.T) {
	c := NewCaller("test", Policy{})
	calls := 0
	err := c.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesWithDoublingBackoff(t *testing.T) {
	c := NewCaller("test", Policy{MaxAttempts: 3, Backoff: 10 * time.Millisecond})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	calls := 0
	err := c.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, waits)
}

func TestDo_AttemptTimeoutMapsToUpstreamTimeout(t *testing.T) {
	c := noSleep(NewCaller("test", Policy{Timeout: 10 * time.Millisecond, MaxAttempts: 2}))
	calls := 0
	err := c.Do(context.Background(), "generate", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	assert.NotErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, 2, calls)
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "client timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestDo_NetTimeoutMapsToUpstreamTimeout(t *testing.T) {
	c := NewCaller("test", Policy{})
	err := c.Do(context.Background(), "op", func(context.Context) error { return timeoutErr{} })
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestDo_KeepsClassifiedErrors(t *testing.T) {
	c := NewCaller("test", Policy{})
	inner := errors.Join(domain.ErrModelUnavailable, errors.New("bad shape"))
	err := c.Do(context.Background(), "op", func(context.Context) error { return inner })
	assert.Same(t, inner, err)
}

func TestDo_CallerCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := noSleep(NewCaller("test", Policy{MaxAttempts: 5}))
	calls := 0
	err := c.Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("interrupted")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRateLimiter_NilNeverBlocks(t *testing.T) {
	var r *RateLimiter
	assert.Nil(t, NewRateLimiter(0, 1))
	assert.NoError(t, r.Wait(context.Background()))
	r.Defer(time.Second)
}

func TestRateLimiter_DeferHonoursContext(t *testing.T) {
	r := NewRateLimiter(100, 1)
	r.Defer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

// upstreamErr mimics an HTTP backend error with an opinion on retrying.
type upstreamErr struct {
	retry bool
	delay time.Duration
}

func (e upstreamErr) Error() string { return "upstream" }
func (e upstreamErr) Retryable() bool { return e.retry }
func (e upstreamErr) RetryDelay() time.Duration { return e.delay }

func TestDo_PermanentErrorsAreNotRetried(t *testing.T) {
	c := noSleep(NewCaller("test", Policy{MaxAttempts: 4}))
	calls := 0

	err := c.Do(context.Background(), "generate", func(context.Context) error {
		calls++
		return upstreamErr{retry: false}
	})

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, 1, calls)
}

func TestDo_WaitsAsLongAsBackendAsks(t *testing.T) {
	c := NewCaller("test", Policy{MaxAttempts: 2, Backoff: 10 * time.Millisecond})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	calls := 0

	err := c.Do(context.Background(), "embed", func(context.Context) error {
		calls++
		if calls == 1 {
			return upstreamErr{retry: true, delay: 3 * time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, waits)
}
