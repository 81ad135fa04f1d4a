package models

import "time"

// EmbeddingStatus enumerates the outcome of one embedding-provider call.
type EmbeddingStatus string

const (
	EmbeddingStatusSuccess     EmbeddingStatus = "success"
	EmbeddingStatusFailed      EmbeddingStatus = "failed"
	EmbeddingStatusRateLimited EmbeddingStatus = "rate_limited"
	EmbeddingStatusDedupHit    EmbeddingStatus = "dedup_hit"
)

// EmbeddingUsage is a per-call audit row for vectorization work against
// evidence or content (spec.md §3). ContentHash dedups repeat embedding
// calls against unchanged text; a dedup hit short-circuits the provider call
// and is still recorded for cost accounting.
type EmbeddingUsage struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	SiteID          string          `json:"site_id"`
	ObjectType      string          `json:"object_type"`
	ObjectID        string          `json:"object_id"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	EmbeddingDim    int             `json:"embedding_dim"`
	InputChars      int             `json:"input_chars"`
	EstimatedTokens int             `json:"estimated_tokens"`
	CostEstimate    float64         `json:"cost_estimate"`
	LatencyMs       int64           `json:"latency_ms"`
	Status          EmbeddingStatus `json:"status"`
	ContentHash     string          `json:"content_hash"`
	CreatedAt       time.Time       `json:"created_at"`
}
