package config

import "time"

// TenantConfig describes a tenant identity boundary (spec.md §3). A tenant
// owns one or more sites; every business record carries both ids.
type TenantConfig struct {
	ID    string       `yaml:"id" validate:"required"`
	Name  string       `yaml:"name,omitempty"`
	Sites []SiteConfig `yaml:"sites"`
}

// SiteConfig describes a site within exactly one tenant.
type SiteConfig struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name,omitempty"`
}

// RetrievalConfig holds the retrieval provider's tunable dials (spec.md §4.1
// step 5, §6 reference schema RETRIEVAL_TRGM_WEIGHT/RETRIEVAL_QDRANT_WEIGHT).
type RetrievalConfig struct {
	DefaultStrategy RetrievalStrategyType `yaml:"default_strategy"`
	TrgmWeight      float64               `yaml:"trgm_weight"`
	QdrantWeight    float64               `yaml:"qdrant_weight"`
	TopK            int                   `yaml:"top_k"`
	MinScore        float64               `yaml:"min_score"`
	QdrantURL       string                `yaml:"qdrant_url,omitempty"`
}

// CacheConfig holds cache client settings and per-resource-type TTLs
// (spec.md §5: cache entries namespaced {prefix}:{tenant}:{site}:{resource}:{id}[:suffix]).
type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	Prefix   string `yaml:"prefix"`

	NPCProfileTTL  time.Duration `yaml:"npc_profile_ttl"`
	PromptTTL      time.Duration `yaml:"prompt_ttl"`
	SiteMapTTL     time.Duration `yaml:"site_map_ttl"`
	EvidenceTTL    time.Duration `yaml:"evidence_ttl"`
	ToolResultTTL  time.Duration `yaml:"tool_result_ttl"`
	RuntimeCfgTTL  time.Duration `yaml:"runtime_config_ttl"`
	IntentCacheTTL time.Duration `yaml:"intent_cache_ttl"`

	SessionMaxMessages int           `yaml:"session_max_messages"`
	SessionMaxChars    int           `yaml:"session_max_chars"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
}

// PolicyConfig drives the Evidence-Gate policy loader's hot-reload behavior
// (spec.md §4.3).
type PolicyConfig struct {
	DefaultName     string        `yaml:"default_name"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SeedPath        string        `yaml:"seed_path,omitempty"`
}

// FeedbackConfig drives the feedback workflow's rule-based routing
// (spec.md §4.6).
type FeedbackConfig struct {
	RoutingRulesPath string        `yaml:"routing_rules_path"`
	RoutingCacheTTL  time.Duration `yaml:"routing_cache_ttl"`
	DefaultGroup     string        `yaml:"default_group"`
	DefaultSLAHours  int           `yaml:"default_sla_hours"`
}

// AlertsConfig drives the alert evaluator (spec.md §4.7).
type AlertsConfig struct {
	RulesPath       string        `yaml:"rules_path"`
	EvalInterval    time.Duration `yaml:"eval_interval"`
	WebhookURL      string        `yaml:"webhook_url,omitempty"`
	WebhookTimeout  time.Duration `yaml:"webhook_timeout"`
	NotifySeverityAt []string     `yaml:"notify_severity_at,omitempty"`
}

// ToolClientConfig drives pkg/toolclient's per-tool resilience policy
// (spec.md §4.2: timeout/retries/circuit breaker per tool).
type ToolClientConfig struct {
	DefaultTimeout           time.Duration `yaml:"default_timeout"`
	DefaultMaxRetries        int           `yaml:"default_max_retries"`
	DefaultBreakerThreshold  int           `yaml:"default_breaker_threshold"`
	DefaultBreakerCooldown   time.Duration `yaml:"default_breaker_cooldown"`
	InternalAPIKeyEnv        string        `yaml:"internal_api_key_env"`
}

// RetentionConfig drives pkg/cleanup's background data-retention sweep:
// how long completed conversations and trace ledger rows are kept before
// being purged.
type RetentionConfig struct {
	ConversationRetention time.Duration `yaml:"conversation_retention"`
	TraceRetention        time.Duration `yaml:"trace_retention"`
	SweepInterval         time.Duration `yaml:"sweep_interval"`
}
