package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by the typed Get helpers on a cache miss, distinct
// from a Redis transport error so callers can fall through to their
// source-of-truth lookup without logging noise.
var ErrMiss = errors.New("cache: miss")

// GetJSON reads and unmarshals a JSON value stored at key. Returns ErrMiss on
// a cache miss; any other error is a Redis-level failure the caller should
// treat as a fallback-to-source signal, not a hard failure.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		slog.Warn("cache get failed", "key", key, "error", err)
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("cache value corrupt, discarding", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return ErrMiss
	}
	return nil
}

// SetJSON marshals value and stores it at key with the given TTL. Errors are
// logged and swallowed: a failed cache write must never fail the request
// that produced the value being cached.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
}

// Delete removes a key, used on writes that invalidate a cached read path
// (e.g. policy rollback invalidating runtime config, prompt publish
// invalidating prompt_active).
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache delete failed", "keys", keys, "error", err)
	}
}

// Keys exposes the client's KeyBuilder so callers can construct keys without
// reaching into the Client's internals.
func (c *Client) Keys() KeyBuilder {
	return c.keys
}

// TTL returns the client's configured TTLPolicy.
func (c *Client) TTL() TTLPolicy {
	return c.ttl
}
