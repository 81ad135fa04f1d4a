package orchestrator

import "github.com/codeready-toolchain/npcorchestrator/pkg/models"

// defaultRefuseTemplate is used when sensitive-intent or validator-failure
// refusal fires and the NPC defines no persona-specific wording of its own.
const defaultRefuseTemplate = "That's not something I can speak to. Is there something else about this place I can help with?"

// defaultConservativeTemplate is used when the Evidence Gate downgrades to
// CONSERVATIVE and the NPC has no fallback_responses configured.
const defaultConservativeTemplate = "I don't have enough to go on to answer that with confidence. Ask me something else, and I'll do my best."

// refuseText picks the NPC's own refusal wording if the profile carries one
// in its persona map under "refuse_template", else the generic template.
func refuseText(profile *models.NPCProfile) string {
	if profile != nil {
		if v, ok := profile.Persona["refuse_template"].(string); ok && v != "" {
			return v
		}
	}
	return defaultRefuseTemplate
}

// conservativeText picks the NPC's first configured fallback response, else
// the generic template (spec.md §9 Open Questions: first-index selection).
func conservativeText(profile *models.NPCProfile) string {
	if profile != nil {
		if fb := profile.FirstFallback(); fb != "" {
			return fb
		}
	}
	return defaultConservativeTemplate
}

// llmFailureText is returned when the LLM call fails after every retry
// (spec.md §4.1 Failure semantics: "return a fallback sentence").
func llmFailureText(profile *models.NPCProfile) string {
	if profile != nil {
		if g := profile.FirstGreeting(); g != "" {
			return g + " I'm having trouble finding the right words just now — try asking again in a moment."
		}
	}
	return "I'm having trouble finding the right words just now — try asking again in a moment."
}
