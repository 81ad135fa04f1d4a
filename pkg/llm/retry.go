package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// RetryConfig tunes RetryingProvider. Zero value falls back to
// DefaultRetryConfig.
type RetryConfig struct {
	CallTimeout time.Duration
	MaxRetries  uint64
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryConfig matches spec.md §4.1 step 8: a 60s per-call timeout and
// up to 3 retries on classified retryable errors (network, 5xx, rate-limit).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		CallTimeout: 60 * time.Second,
		MaxRetries:  3,
		BackoffMin:  300 * time.Millisecond,
		BackoffMax:  2 * time.Second,
	}
}

// RetryingProvider wraps a Provider with the timeout/retry posture every
// turn's LLM call needs, without touching the adapter implementations
// themselves. Non-retryable errors (auth, content filter, 4xx) surface on
// the first attempt per apperr's retryable classification.
type RetryingProvider struct {
	inner  Provider
	cfg    RetryConfig
	logger *slog.Logger
}

// NewRetryingProvider wraps inner with cfg's timeout/retry settings.
func NewRetryingProvider(inner Provider, cfg RetryConfig) *RetryingProvider {
	return &RetryingProvider{inner: inner, cfg: cfg, logger: slog.Default()}
}

func (p *RetryingProvider) Name() string { return p.inner.Name() }

func (p *RetryingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.BackoffMin
	bo.MaxInterval = p.cfg.BackoffMax
	bo.MaxElapsedTime = 0
	retrier := backoff.WithContext(backoff.WithMaxRetries(bo, p.cfg.MaxRetries), callCtx)

	var resp *Response
	op := func() error {
		r, err := p.inner.Generate(callCtx, req)
		if err != nil {
			if !apperr.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			p.logger.Warn("llm call failed, retrying", "provider", p.inner.Name(), "error", err)
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(op, retrier); err != nil {
		return nil, err
	}
	return resp, nil
}
