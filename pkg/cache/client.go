// Package cache provides the Redis-backed caching layer: keyed lookups for
// hot read paths in the turn pipeline (NPC profiles, prompts, site maps,
// evidence, tool results, runtime config, intent classification) and the
// partitioned ephemeral session memory store.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection plus the key-building and TTL policy used
// throughout the turn pipeline.
type Client struct {
	rdb    *redis.Client
	keys   KeyBuilder
	ttl    TTLPolicy
}

// TTLPolicy holds the per-resource-type expiration durations.
type TTLPolicy struct {
	NPCProfile    int64 // seconds
	PromptActive  int64
	SiteMap       int64
	Evidence      int64
	ToolResult    int64
	RuntimeConfig int64
	IntentCache   int64
}

// NewClient dials Redis from a connection URL and verifies connectivity with
// a ping before returning.
func NewClient(ctx context.Context, redisURL, keyPrefix string, ttl TTLPolicy) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &Client{
		rdb:  rdb,
		keys: KeyBuilder{Prefix: keyPrefix},
		ttl:  ttl,
	}, nil
}

// NewClientFromConn wraps an already-connected redis.Client; used by tests
// against miniredis or a shared pool.
func NewClientFromConn(rdb *redis.Client, keyPrefix string, ttl TTLPolicy) *Client {
	return &Client{rdb: rdb, keys: KeyBuilder{Prefix: keyPrefix}, ttl: ttl}
}

// Close releases the underlying Redis connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity, used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
