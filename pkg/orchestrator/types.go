// Package orchestrator implements the turn pipeline: the per-request state
// machine that resolves an NPC, assigns runtime config and experiment
// variant, classifies intent, retrieves evidence, runs it through the
// Evidence Gate, assembles a prompt, calls the LLM, validates the output,
// and persists the result (spec.md §4.1).
package orchestrator

import "github.com/codeready-toolchain/npcorchestrator/pkg/models"

// ChatInput is one turn's request. TraceID and SessionID are optional; both
// are generated if the caller omits them.
type ChatInput struct {
	TenantID  string
	SiteID    string
	NPCID     string
	Query     string
	SessionID string
	UserID    string
	TraceID   string
}

// ChatOutput is the turn pipeline's always-present response shape. The
// caller never sees a sub-component's raw error: every failure mode
// degrades into one of these fields instead (spec.md §4.1 Failure
// semantics).
type ChatOutput struct {
	TraceID           string
	SessionID         string
	PolicyMode        models.PolicyMode
	AnswerText        string
	Citations         []models.Citation
	FollowupQuestions []string
	LatencyMs         int64
	Status            models.TraceStatus
}
