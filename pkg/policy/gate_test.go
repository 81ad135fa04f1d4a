package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func testPolicy() *models.Policy {
	return &models.Policy{
		Name:    "evidence-gate",
		Version: "v1.2",
		Content: models.PolicyContent{
			IntentRules: []models.IntentRule{
				{Intent: models.IntentFactSeeking, MinEvidenceCount: 2, MinConfidence: 0.5, RequireVerified: true},
				{Intent: models.IntentContextPreference, MinEvidenceCount: 1, MinConfidence: 0.3},
				{Intent: models.IntentGreeting, MinEvidenceCount: 0, MinConfidence: 0},
			},
			DefaultRule: models.IntentRule{MinEvidenceCount: 1, MinConfidence: 0.5},
			Overrides: models.PolicyOverrides{
				PerNPC: map[string]models.IntentRule{
					"ancestor_yan": {Intent: models.IntentFactSeeking, MinEvidenceCount: 1, MinConfidence: 0.5},
				},
			},
		},
	}
}

func TestEvaluate_SensitiveAlwaysRefuses(t *testing.T) {
	d := Evaluate(testPolicy(), GateInput{Intent: models.IntentSensitive})
	assert.Equal(t, models.PolicyModeRefuse, d.Mode)
}

func TestEvaluate_FactSeekingNoEvidence_Conservative(t *testing.T) {
	d := Evaluate(testPolicy(), GateInput{Intent: models.IntentFactSeeking, Citations: nil})
	assert.Equal(t, models.PolicyModeConservative, d.Mode)
	assert.Equal(t, "intent:fact_seeking", d.AppliedRule.RuleID)
}

func TestEvaluate_PerNPCOverride_LowersThreshold(t *testing.T) {
	p := testPolicy()
	citations := []models.Citation{{ID: "e1", Confidence: 0.6, Verified: true}}

	// Default fact_seeking rule requires 2 confident citations — conservative.
	d := Evaluate(p, GateInput{NPCID: "other_npc", Intent: models.IntentFactSeeking, Citations: citations, IsHistoryQuery: true})
	assert.Equal(t, models.PolicyModeConservative, d.Mode)

	// ancestor_yan's override only requires 1 — normal.
	d2 := Evaluate(p, GateInput{NPCID: "ancestor_yan", Intent: models.IntentFactSeeking, Citations: citations, IsHistoryQuery: true})
	assert.Equal(t, models.PolicyModeNormal, d2.Mode)
	assert.Equal(t, "override:npc:ancestor_yan", d2.AppliedRule.RuleID)
}

func TestEvaluate_RequireVerifiedWithoutVerifiedCitation_Conservative(t *testing.T) {
	p := testPolicy()
	citations := []models.Citation{
		{ID: "e1", Confidence: 0.9, Verified: false},
		{ID: "e2", Confidence: 0.9, Verified: false},
	}
	d := Evaluate(p, GateInput{Intent: models.IntentFactSeeking, Citations: citations, IsHistoryQuery: true})
	assert.Equal(t, models.PolicyModeConservative, d.Mode)
}

func TestEvaluate_GreetingAlwaysNormal(t *testing.T) {
	d := Evaluate(testPolicy(), GateInput{Intent: models.IntentGreeting})
	assert.Equal(t, models.PolicyModeNormal, d.Mode)
}

func TestEvaluate_UnknownIntentFallsToDefault(t *testing.T) {
	d := Evaluate(testPolicy(), GateInput{Intent: models.IntentUnknown, Citations: []models.Citation{{Confidence: 0.9}}})
	assert.Equal(t, models.PolicyModeNormal, d.Mode)
	assert.Equal(t, "default", d.AppliedRule.RuleID)
}
