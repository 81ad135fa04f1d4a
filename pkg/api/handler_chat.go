package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/orchestrator"
)

// chatRequest is the body of POST /api/v1/chat (spec.md §6).
type chatRequest struct {
	NPCID     string         `json:"npc_id" binding:"required"`
	Message   string         `json:"message" binding:"required"`
	SessionID string         `json:"session_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// postChat runs one turn through the orchestrator (spec.md §4.1). The
// pipeline never returns a raw error for a user-facing failure — every
// failure mode degrades into a ChatOutput field — so this handler only
// maps the narrow set of pre-pipeline errors (e.g. a malformed request).
func (s *Server) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}

	tenantID, siteID := tenantSiteFrom(c)
	out, err := s.deps.Orchestrator.Chat(c.Request.Context(), orchestrator.ChatInput{
		TenantID:  tenantID,
		SiteID:    siteID,
		NPCID:     req.NPCID,
		Query:     req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		TraceID:   traceIDFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trace_id":           out.TraceID,
		"session_id":         out.SessionID,
		"policy_mode":        out.PolicyMode,
		"answer":             out.AnswerText,
		"citations":          out.Citations,
		"followup_questions": out.FollowupQuestions,
		"latency_ms":         out.LatencyMs,
		"status":             out.Status,
	})
}
