// Package toolclient wraps a tool server with the resilience every call
// across the RPC boundary needs: a per-call timeout, retry with jittered
// backoff on transient failures, and a circuit breaker per (tool, tenant,
// site) so one misbehaving tenant or tool cannot exhaust retries against a
// healthy one.
package toolclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// Invoker is the server-side contract a Client calls through. *tools.Server
// satisfies it directly; a future gRPC/HTTP stub for an out-of-process tool
// server would satisfy it too.
type Invoker interface {
	Call(ctx context.Context, req tools.CallRequest) (*tools.CallResult, error)
}

// Config tunes the resilience layer. Zero values fall back to Default.
type Config struct {
	CallTimeout        time.Duration
	MaxRetries         uint64
	BackoffMin         time.Duration
	BackoffMax         time.Duration
	BreakerMaxFailures uint32
	BreakerOpenFor     time.Duration
}

// Default mirrors the conservative single-retry, short-backoff posture of
// the orchestrator's upstream MCP client.
func Default() Config {
	return Config{
		CallTimeout:        90 * time.Second,
		MaxRetries:         1,
		BackoffMin:         250 * time.Millisecond,
		BackoffMax:         750 * time.Millisecond,
		BreakerMaxFailures: 5,
		BreakerOpenFor:     30 * time.Second,
	}
}

// Client adds timeout, retry, and per-(tool,tenant,site) circuit breaking
// around an Invoker.
type Client struct {
	inner  Invoker
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*tools.CallResult]
}

// New builds a Client wrapping inner with cfg's resilience settings.
func New(inner Invoker, cfg Config) *Client {
	return &Client{
		inner:    inner,
		cfg:      cfg,
		logger:   slog.Default(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*tools.CallResult]),
	}
}

func breakerKey(toolName, tenantID, siteID string) string {
	return fmt.Sprintf("%s:%s:%s", toolName, tenantID, siteID)
}

func (c *Client) breakerFor(key string) *gobreaker.CircuitBreaker[*tools.CallResult] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[key]; ok {
		return b
	}

	logger := c.logger
	b := gobreaker.NewCircuitBreaker[*tools.CallResult](gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("tool circuit breaker state change", "breaker", name, "from", from, "to", to)
		},
	})
	c.breakers[key] = b
	return b
}

// Call invokes the named tool with a bounded timeout, retrying transient
// failures (per apperr's retryable classification) with jittered backoff,
// all gated by the (tool, tenant, site) circuit breaker.
func (c *Client) Call(ctx context.Context, req tools.CallRequest) (*tools.CallResult, error) {
	key := breakerKey(req.ToolName, req.Context.TenantID, req.Context.SiteID)
	breaker := c.breakerFor(key)

	return breaker.Execute(func() (*tools.CallResult, error) {
		return c.callWithRetry(ctx, req)
	})
}

func (c *Client) callWithRetry(ctx context.Context, req tools.CallRequest) (*tools.CallResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.BackoffMin
	bo.MaxInterval = c.cfg.BackoffMax
	bo.MaxElapsedTime = 0
	retrier := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), callCtx)

	var result *tools.CallResult
	op := func() error {
		res, err := c.inner.Call(callCtx, req)
		if err != nil {
			if !apperr.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.logger.Warn("tool call failed, retrying",
				"tool", req.ToolName, "trace_id", req.Context.TraceID, "error", err)
			return err
		}
		result = res
		return nil
	}

	if err := backoff.Retry(op, retrier); err != nil {
		return nil, err
	}
	return result, nil
}
