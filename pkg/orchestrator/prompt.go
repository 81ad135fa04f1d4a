package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

const (
	maxCitationsInPrompt  = 5
	maxHistoryMessages    = 8
	maxHistoryCharsTotal  = 4000
)

// personaSummary renders an NPC's persona for intent-classification cache
// keying and prompt context. Falls back to a JSON encoding when the persona
// map carries no "name" field.
func personaSummary(profile *models.NPCProfile) string {
	if profile == nil {
		return ""
	}
	if name, ok := profile.Persona["name"].(string); ok && name != "" {
		return name
	}
	raw, err := json.Marshal(profile.Persona)
	if err != nil {
		return profile.NPCID
	}
	return string(raw)
}

// assembleSystemPrompt composes the NPC prompt content, persona, the
// citations that survived the Evidence Gate, and recent session history
// into the system message sent to the LLM (spec.md §4.1 step 7). Citations
// that did not survive the gate are never passed in here.
func assembleSystemPrompt(prompt *models.NPCPrompt, profile *models.NPCProfile, citations []models.Citation, history []cache.SessionMessage) string {
	var b strings.Builder

	b.WriteString(prompt.Content)
	b.WriteString("\n\n")

	if name, ok := profile.Persona["name"].(string); ok && name != "" {
		fmt.Fprintf(&b, "You are %s.\n", name)
	}
	if len(profile.ForbiddenTopics) > 0 {
		fmt.Fprintf(&b, "Never discuss: %s.\n", strings.Join(profile.ForbiddenTopics, ", "))
	}

	if len(citations) > 0 {
		b.WriteString("\nReference material:\n")
		n := len(citations)
		if n > maxCitationsInPrompt {
			n = maxCitationsInPrompt
		}
		for i, c := range citations[:n] {
			fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, c.Title, c.Excerpt)
		}
		b.WriteString("Only use the reference material above to support factual claims. Cite it by number when you do.\n")
	}

	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		chars := 0
		start := 0
		if len(history) > maxHistoryMessages {
			start = len(history) - maxHistoryMessages
		}
		for _, m := range history[start:] {
			line := fmt.Sprintf("%s: %s\n", m.Role, m.Content)
			if chars+len(line) > maxHistoryCharsTotal {
				break
			}
			b.WriteString(line)
			chars += len(line)
		}
	}

	return b.String()
}

// followupQuestions reads up to two suggested followups out of the
// prompt's meta bundle, used only when the turn answers in NORMAL mode.
func followupQuestions(prompt *models.NPCPrompt) []string {
	if prompt == nil || prompt.Meta == nil {
		return nil
	}
	raw, ok := prompt.Meta["followup_questions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, 2)
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 2 {
			break
		}
	}
	return out
}
