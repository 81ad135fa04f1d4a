package config

import "time"

// DefaultRetrievalConfig returns the retrieval dials used when no YAML
// override is present. spec.md §9 Open Questions: hybrid is the default
// strategy.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		DefaultStrategy: RetrievalStrategyHybrid,
		TrgmWeight:      0.4,
		QdrantWeight:    0.6,
		TopK:            5,
		MinScore:        0.3,
	}
}

// DefaultCacheConfig returns cache TTLs matching spec.md §5's reference
// values (NPC profile 5 min, prompt 5 min, site map 10 min, evidence 1 min)
// and session memory caps (N=10 messages, M=4000 chars, TTL=24h).
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Prefix:             "npcorch",
		NPCProfileTTL:      5 * time.Minute,
		PromptTTL:          5 * time.Minute,
		SiteMapTTL:         10 * time.Minute,
		EvidenceTTL:        1 * time.Minute,
		ToolResultTTL:      1 * time.Minute,
		RuntimeCfgTTL:      60 * time.Second,
		IntentCacheTTL:     5 * time.Minute,
		SessionMaxMessages: 10,
		SessionMaxChars:    4000,
		SessionTTL:         24 * time.Hour,
	}
}

// DefaultPolicyConfig returns the Evidence-Gate policy loader's default
// refresh interval (spec.md §4.3: default 60s).
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		DefaultName:     "evidence-gate",
		RefreshInterval: 60 * time.Second,
	}
}

// DefaultFeedbackConfig returns the feedback routing defaults (spec.md §4.6:
// 5-minute TTL hot reload, default group+SLA when no rule matches).
func DefaultFeedbackConfig() *FeedbackConfig {
	return &FeedbackConfig{
		RoutingCacheTTL: 5 * time.Minute,
		DefaultGroup:    "support",
		DefaultSLAHours: 24,
	}
}

// DefaultAlertsConfig returns the alert evaluator's default schedule
// (spec.md §4.7: every 5 minutes).
func DefaultAlertsConfig() *AlertsConfig {
	return &AlertsConfig{
		EvalInterval:     5 * time.Minute,
		WebhookTimeout:   10 * time.Second,
		NotifySeverityAt: []string{"high", "critical"},
	}
}

// DefaultToolClientConfig returns the tool client's default resilience
// policy (spec.md §4.2: 2s-10s timeout, 3 attempts, breaker threshold).
func DefaultToolClientConfig() *ToolClientConfig {
	return &ToolClientConfig{
		DefaultTimeout:          5 * time.Second,
		DefaultMaxRetries:       3,
		DefaultBreakerThreshold: 5,
		DefaultBreakerCooldown:  30 * time.Second,
		InternalAPIKeyEnv:       "INTERNAL_API_KEY",
	}
}

// DefaultRetentionConfig returns the default data-retention sweep: keep
// conversations for 90 days and trace ledger rows for 180 days, swept once
// a day.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		ConversationRetention: 90 * 24 * time.Hour,
		TraceRetention:        180 * 24 * time.Hour,
		SweepInterval:         24 * time.Hour,
	}
}
