package intent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// allowedLabels bounds what the LLM is permitted to answer with; any other
// text collapses to models.IntentUnknown rather than being trusted verbatim.
var allowedLabels = map[string]models.IntentLabel{
	"fact_seeking":       models.IntentFactSeeking,
	"context_preference": models.IntentContextPreference,
	"sensitive":          models.IntentSensitive,
	"greeting":           models.IntentGreeting,
	"unknown":            models.IntentUnknown,
}

// LLMClassifier asks a llm.Provider to label the query, caching the result
// by SHA-256 of (query, persona) with the cache's configured IntentCache
// TTL (spec.md §4.1 step 4: 5-minute TTL). It falls back to a rule
// classifier on timeout or any provider error so a degraded LLM never fails
// the turn.
type LLMClassifier struct {
	provider llm.Provider
	fallback *RuleClassifier
	cache    *cache.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewLLMClassifier wires provider as the primary classifier, c as the
// result cache, and fallback as the degrade-to path. A nil cache disables
// caching (every call reaches the provider); this is used in tests and is
// otherwise a misconfiguration the caller should avoid in production.
func NewLLMClassifier(provider llm.Provider, c *cache.Client, fallback *RuleClassifier) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		fallback: fallback,
		cache:    c,
		timeout:  10 * time.Second,
		logger:   slog.Default(),
	}
}

// Name identifies the classifier for logging and trace persistence.
func (c *LLMClassifier) Name() string { return "llm" }

// Classify checks the cache first, then calls the provider under a bounded
// timeout, falling back to the rule classifier on any error or timeout.
func (c *LLMClassifier) Classify(ctx context.Context, tenantID, siteID, query, persona string) (models.IntentLabel, error) {
	key := c.cacheKey(tenantID, siteID, query, persona)

	if c.cache != nil {
		var cached string
		if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
			if label, ok := allowedLabels[cached]; ok {
				return label, nil
			}
		}
	}

	label, err := c.classifyWithProvider(ctx, query, persona)
	if err != nil {
		c.logger.Warn("llm intent classification failed, falling back to rule classifier",
			"error", err)
		return c.fallback.Classify(ctx, tenantID, siteID, query, persona)
	}

	if c.cache != nil {
		ttl := time.Duration(c.cache.TTLFor(cache.ResourceIntent)) * time.Second
		c.cache.SetJSON(ctx, key, string(label), ttl)
	}
	return label, nil
}

func (c *LLMClassifier) classifyWithProvider(ctx context.Context, query, persona string) (models.IntentLabel, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system := fmt.Sprintf(
		"Classify the user's message into exactly one label: fact_seeking, "+
			"context_preference, sensitive, greeting, or unknown. "+
			"NPC persona: %s. Respond with only the label.", persona)

	resp, err := c.provider.Generate(callCtx, llm.Request{
		System:      system,
		User:        query,
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("intent classification timed out: %w", err)
		}
		return "", err
	}

	raw := strings.ToLower(strings.TrimSpace(resp.Content))
	label, ok := allowedLabels[raw]
	if !ok {
		return models.IntentUnknown, nil
	}
	return label, nil
}

func (c *LLMClassifier) cacheKey(tenantID, siteID, query, persona string) string {
	sum := sha256.Sum256([]byte(query + "\x00" + persona))
	hash := hex.EncodeToString(sum[:])
	return c.cache.Keys().Intent(tenantID, siteID, hash)
}
