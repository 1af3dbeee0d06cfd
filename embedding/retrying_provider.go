package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
)

// RetryingProvider wraps a Provider with the module's retry/concurrency
// policy: up to MaxRetries retries after a failed first attempt, with a
// RetryDelay*attempt backoff, and a semaphore bounding MaxConcurrentRequests in flight
// regardless of how many callers (e.g. orchestrator batches) are
// embedding concurrently.
type RetryingProvider struct {
	inner Provider
	cfg   config.Config
	sink  diagnostics.Sink
	sem   chan struct{}
}

// NewRetryingProvider wraps inner with the configured retry/concurrency
// policy.
func NewRetryingProvider(inner Provider, cfg config.Config, sink diagnostics.Sink) *RetryingProvider {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	limit := cfg.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}
	return &RetryingProvider{
		inner: inner,
		cfg:   cfg,
		sink:  sink,
		sem:   make(chan struct{}, limit),
	}
}

func (p *RetryingProvider) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *RetryingProvider) release() { <-p.sem }

// Embed retries every failed attempt, giving up after cfg.MaxRetries
// retries (cfg.MaxRetries+1 attempts in all). Retry N waits RetryDelay*N, matching
// the specified retry budget, via a constant-then-multiplied backoff
// rather than ExponentialBackOff's default jittered curve.
func (p *RetryingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "embedding request did not acquire a slot", err)
	}
	defer p.release()

	attempt := 0
	operation := func() ([]float32, error) {
		vec, err := p.inner.Embed(ctx, text)
		if err != nil {
			attempt++
			delay := p.cfg.RetryDelay * time.Duration(attempt)
			p.sink.Warn("embedding attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err.Error())
			return nil, err
		}
		return vec, nil
	}

	vec, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&fixedStepBackOff{cfg: p.cfg}),
		backoff.WithMaxTries(uint(p.cfg.MaxRetries)+1),
	)
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "embedding failed after retries", err)
	}
	return vec, nil
}

// TestConnection delegates directly, bypassing the retry policy: a
// connection check should fail fast.
func (p *RetryingProvider) TestConnection(ctx context.Context) error {
	return p.inner.TestConnection(ctx)
}

var _ Provider = (*RetryingProvider)(nil)

// fixedStepBackOff implements backoff.BackOff with the spec's exact
// policy (RetryDelay * attempt) instead of backoff.ExponentialBackOff's
// jittered doubling curve.
type fixedStepBackOff struct {
	cfg     config.Config
	attempt int
}

func (b *fixedStepBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.cfg.RetryDelay * time.Duration(b.attempt)
}

func (b *fixedStepBackOff) Reset() { b.attempt = 0 }

var _ backoff.BackOff = (*fixedStepBackOff)(nil)
