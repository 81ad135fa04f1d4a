package intent

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// RuleClassifier classifies by token match over curated keyword lists
// (spec.md §4.1 step 4). It never errors and never calls out of process, so
// it also serves as the LLMClassifier's fallback on timeout or failure.
type RuleClassifier struct {
	historyKeywords    []string
	sensitiveKeywords  []string
	greetingKeywords   []string
	preferenceKeywords []string
}

// defaultHistoryKeywords is the vocabulary both RuleClassifier and
// IsHistoryRelated test against, so that "history-related" stays a single
// definition instead of drifting between the classifier and the gate.
var defaultHistoryKeywords = []string{
	"history", "historical", "ancient", "founded", "founding",
	"war", "battle", "king", "queen", "dynasty", "era", "century",
	"legend", "myth", "origin", "ancestor", "past",
}

// NewRuleClassifier builds a classifier seeded with the default keyword
// lists. Callers needing site-specific vocabulary can construct
// RuleClassifier directly and override the fields.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		historyKeywords: defaultHistoryKeywords,
		sensitiveKeywords: []string{
			"suicide", "self-harm", "kill myself", "weapon", "bomb",
			"explosive", "drug", "narcotic", "hate", "slur", "exploit",
			"password", "credit card", "ssn", "social security",
		},
		greetingKeywords: []string{
			"hello", "hi", "hey", "greetings", "good morning",
			"good afternoon", "good evening", "howdy", "what's up",
		},
		preferenceKeywords: []string{
			"do you like", "favorite", "favourite", "prefer", "opinion",
			"how do you feel", "what do you think",
		},
	}
}

// Name identifies the classifier for logging and trace persistence.
func (c *RuleClassifier) Name() string { return "rule" }

// Classify never returns an error; unmatched queries resolve to
// models.IntentUnknown.
func (c *RuleClassifier) Classify(_ context.Context, _, _, query, _ string) (models.IntentLabel, error) {
	lower := strings.ToLower(query)

	if containsAny(lower, c.sensitiveKeywords) {
		return models.IntentSensitive, nil
	}
	if containsAny(lower, c.greetingKeywords) {
		return models.IntentGreeting, nil
	}
	if containsAny(lower, c.historyKeywords) {
		return models.IntentFactSeeking, nil
	}
	if containsAny(lower, c.preferenceKeywords) {
		return models.IntentContextPreference, nil
	}
	if strings.HasSuffix(strings.TrimSpace(query), "?") {
		return models.IntentFactSeeking, nil
	}
	return models.IntentUnknown, nil
}

// IsHistoryRelated reports whether query matches the history vocabulary,
// independent of whatever intent label the turn ultimately classifies to.
// The Evidence Gate's need_verified test (spec.md §4.1 step 6) is
// "intent_rule.require_verified and query is history-related" — a
// fact-seeking query that only matches the classifier's bare "?" heuristic
// (pkg/intent/rule.go) is not automatically history-related, so this must
// stay a separate check rather than collapsing to IntentFactSeeking.
func IsHistoryRelated(query string) bool {
	return containsAny(strings.ToLower(query), defaultHistoryKeywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
