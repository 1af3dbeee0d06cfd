package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
)

type flakyProvider struct {
	failuresLeft int32
}

func (f *flakyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if atomic.AddInt32(&f.failuresLeft, -1) >= 0 {
		return nil, errors.New("transient")
	}
	return []float32{1, 2, 3}, nil
}

func (f *flakyProvider) TestConnection(ctx context.Context) error { return nil }

func TestRetryingProvider_RetriesUntilSuccess(t *testing.T) {
	cfg := config.Default()
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 3

	inner := &flakyProvider{failuresLeft: 2}
	p := NewRetryingProvider(inner, cfg, diagnostics.Noop())

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestRetryingProvider_GivesUpAfterMaxRetries(t *testing.T) {
	cfg := config.Default()
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 2

	inner := &flakyProvider{failuresLeft: 100}
	p := NewRetryingProvider(inner, cfg, diagnostics.Noop())

	_, err := p.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestRetryingProvider_BoundsConcurrency(t *testing.T) {
	cfg := config.Default()
	cfg.MaxConcurrentRequests = 2
	cfg.MaxRetries = 0

	var inFlight int32
	var maxSeen int32
	var wg sync.WaitGroup

	inner := &MockProvider{EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return []float32{1}, nil
	}}

	p := NewRetryingProvider(inner, cfg, diagnostics.Noop())
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Embed(context.Background(), "x")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 2)
}
