// Package resilience wraps model backends with timeouts, bounded retries and
// rate limiting, and maps their failures onto the domain error taxonomy.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Policy is the call policy applied to every upstream request.
type Policy struct {
	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts. Values below 1 mean 1.
	MaxAttempts int

	// Backoff is the wait before the first retry; it doubles per retry.
	Backoff time.Duration

	// RatePerSecond throttles calls. Zero disables throttling.
	RatePerSecond float64
}

// PolicyFrom converts upstream settings into a Policy.
func PolicyFrom(s domain.UpstreamSettings) Policy {
	return Policy{
		Timeout:       s.Timeout,
		MaxAttempts:   s.MaxAttempts,
		Backoff:       s.Backoff,
		RatePerSecond: s.RatePerSecond,
	}
}

// Caller executes upstream operations under a Policy.
type Caller struct {
	name    string
	policy  Policy
	limiter *RateLimiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewCaller creates a Caller. name identifies the backend in logs and errors.
func NewCaller(name string, p Policy) *Caller {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return &Caller{
		name:    name,
		policy:  p,
		limiter: NewRateLimiter(p.RatePerSecond, 1),
		sleep:   sleepCtx,
	}
}

// Do runs fn until it succeeds or attempts are exhausted. Returned errors
// wrap domain.ErrUpstreamTimeout or domain.ErrModelUnavailable, except when
// ctx itself was cancelled, in which case ctx.Err() is returned.
func (c *Caller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := c.policy.Backoff
	var last error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.classify(ctx, op, err)
		}

		err := c.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		last = c.classify(ctx, op, err)
		if errors.Is(ctx.Err(), context.Canceled) || !retryable(err) {
			return last
		}

		if attempt < c.policy.MaxAttempts {
			asked := requestedDelay(err)
			wait := max(backoff, asked)
			// A backend asking for a pause holds off every caller sharing it.
			c.limiter.Defer(asked)
			logger.Debug("%s: %s attempt %d/%d failed, retrying in %s: %v", c.name, op, attempt, c.policy.MaxAttempts, wait, err)
			if err := c.sleep(ctx, wait); err != nil {
				return c.classify(ctx, op, err)
			}
			backoff *= 2
		}
	}
	return last
}

func (c *Caller) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.policy.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()
	return fn(attemptCtx)
}

// classify maps err onto the upstream error taxonomy.
func (c *Caller) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return err
	case isTimeout(err):
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstreamTimeout, c.name, op, err)
	case errors.Is(err, domain.ErrModelUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %s %s: %v", domain.ErrModelUnavailable, c.name, op, err)
	}
}

// retryable is false only for errors that say so, such as a rejected API
// key. Errors without an opinion are retried.
func retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// requestedDelay is the pause a backend asked for, e.g. via Retry-After.
func requestedDelay(err error) time.Duration {
	var d interface{ RetryDelay() time.Duration }
	if errors.As(err, &d) {
		return d.RetryDelay()
	}
	return 0
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
