package orchestrator

import (
	"strings"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// sensitiveOutputKeywords catches sensitive content that slipped past intent
// classification and into the generated answer itself (spec.md §4.1 step 9a).
var sensitiveOutputKeywords = []string{
	"kill yourself", "suicide method", "how to make a weapon", "credit card number",
	"social security number", "password is",
}

// anachronismKeywords flags a historical-mode NPC referencing the modern
// world (spec.md §4.1 step 9c). Checked only when the profile's persona
// marks time_awareness as "historical".
var anachronismKeywords = []string{
	"smartphone", "internet", "television", "automobile", "electricity",
	"the internet", "wi-fi", "computer",
}

// validateOutput scans answer for sensitive keywords, the NPC's own
// forbidden_topics, and (in historical time-awareness mode) anachronism
// keywords. On any violation it returns guardrailPassed=false; the caller
// is responsible for swapping in a refuse template, per spec.md §4.1 step 9:
// "not an error but a mode downgrade".
func validateOutput(answer string, profile *models.NPCProfile) (guardrailPassed bool) {
	lower := strings.ToLower(answer)

	if containsAny(lower, sensitiveOutputKeywords) {
		return false
	}
	if profile != nil && containsAny(lower, profile.ForbiddenTopics) {
		return false
	}
	if profile != nil && isHistoricalMode(profile) && containsAny(lower, anachronismKeywords) {
		return false
	}
	return true
}

func isHistoricalMode(profile *models.NPCProfile) bool {
	v, ok := profile.Persona["time_awareness"].(string)
	return ok && strings.EqualFold(v, "historical")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
