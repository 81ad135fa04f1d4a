package intent

import (
	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
)

// StrategyType selects a Classifier variant (spec.md §9 Polymorphism).
type StrategyType string

const (
	StrategyRule StrategyType = "rule"
	StrategyLLM  StrategyType = "llm"
)

// New builds the requested classifier. The rule variant needs no
// dependencies; the llm variant always carries a rule classifier as its
// fallback regardless of which one New returns, so callers can request
// StrategyLLM even when provider is occasionally unavailable.
func New(strategy StrategyType, provider llm.Provider, c *cache.Client) Classifier {
	rule := NewRuleClassifier()
	if strategy == StrategyLLM && provider != nil {
		return NewLLMClassifier(provider, c, rule)
	}
	return rule
}
