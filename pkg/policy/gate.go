package policy

import (
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// GateInput is everything the Evidence Gate needs to reach a decision for
// one turn.
type GateInput struct {
	NPCID          string
	SiteID         string
	Intent         models.IntentLabel
	Citations      []models.Citation
	IsHistoryQuery bool
}

// GateDecision is the gate's outcome: the mode to use, which rule produced
// it, and whether any verified citation was required and present.
type GateDecision struct {
	Mode        models.PolicyMode
	AppliedRule models.AppliedRule
}

// Evaluate resolves the applicable rule (per-npc override → per-site
// override → intent match → default, spec.md §4.1 step 6) and applies it to
// the input's citations to reach a mode.
func Evaluate(policy *models.Policy, in GateInput) GateDecision {
	rule, ruleID := resolveRule(policy, in)

	applied := models.AppliedRule{
		RuleID:        ruleID,
		PolicyVersion: policy.Version,
		Intent:        in.Intent,
	}

	if in.Intent == models.IntentSensitive {
		return GateDecision{Mode: models.PolicyModeRefuse, AppliedRule: applied}
	}

	have := countConfident(in.Citations, rule.MinConfidence)
	needVerified := rule.RequireVerified && in.IsHistoryQuery
	hasVerified := anyVerified(in.Citations)

	if have < rule.MinEvidenceCount || (needVerified && !hasVerified) {
		return GateDecision{Mode: models.PolicyModeConservative, AppliedRule: applied}
	}

	return GateDecision{Mode: models.PolicyModeNormal, AppliedRule: applied}
}

// resolveRule implements the lookup order: per-npc override, then per-site
// override, then the intent_rules table, then default_rule.
func resolveRule(policy *models.Policy, in GateInput) (models.IntentRule, string) {
	if in.NPCID != "" {
		if rule, ok := policy.Content.Overrides.PerNPC[in.NPCID]; ok {
			return rule, "override:npc:" + in.NPCID
		}
	}
	if in.SiteID != "" {
		if rule, ok := policy.Content.Overrides.PerSite[in.SiteID]; ok {
			return rule, "override:site:" + in.SiteID
		}
	}
	for _, rule := range policy.Content.IntentRules {
		if rule.Intent == in.Intent {
			return rule, "intent:" + string(in.Intent)
		}
	}
	return policy.Content.DefaultRule, "default"
}

func countConfident(citations []models.Citation, minConfidence float64) int {
	n := 0
	for _, c := range citations {
		if c.Confidence >= minConfidence {
			n++
		}
	}
	return n
}

func anyVerified(citations []models.Citation) bool {
	for _, c := range citations {
		if c.Verified {
			return true
		}
	}
	return false
}
