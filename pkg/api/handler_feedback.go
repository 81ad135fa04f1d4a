package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/feedback"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

type submitFeedbackRequest struct {
	TraceID  string                  `json:"trace_id,omitempty"`
	NPCID    string                  `json:"npc_id,omitempty"`
	Severity models.FeedbackSeverity `json:"severity" binding:"required"`
	Type     models.FeedbackType     `json:"type" binding:"required"`
	Content  string                  `json:"content" binding:"required"`
}

// submitFeedback handles POST /api/v1/feedback (spec.md §4.6).
func (s *Server) submitFeedback(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	f := &models.UserFeedback{
		TenantID: tenantID,
		SiteID:   siteID,
		TraceID:  req.TraceID,
		NPCID:    req.NPCID,
		Severity: req.Severity,
		Type:     req.Type,
		Content:  req.Content,
	}
	out, err := s.deps.Feedback.Submit(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// listFeedback handles GET /api/v1/feedback (spec.md §6), optionally
// narrowed by status/assignee/group query parameters.
func (s *Server) listFeedback(c *gin.Context) {
	tenantID, siteID := tenantSiteFrom(c)
	filter := feedback.ListFilter{
		Status:   models.FeedbackStatus(c.Query("status")),
		Assignee: c.Query("assignee"),
		Group:    c.Query("group"),
	}
	tickets, err := s.deps.Feedback.List(c.Request.Context(), tenantID, siteID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

type resolveFeedbackRequest struct {
	ContentID  string `json:"content_id,omitempty"`
	EvidenceID string `json:"evidence_id,omitempty"`
}

// resolveFeedback handles POST /api/v1/feedback/:id/resolve (spec.md §4.6).
func (s *Server) resolveFeedback(c *gin.Context) {
	var req resolveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, badRequest(err))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	out, err := s.deps.Feedback.Resolve(c.Request.Context(), tenantID, siteID, c.Param("id"), req.ContentID, req.EvidenceID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type transitionFeedbackRequest struct {
	Status models.FeedbackStatus `json:"status" binding:"required"`
}

// transitionFeedback handles POST /api/v1/feedback/:id/transition
// (spec.md §4.6: forward-only state machine).
func (s *Server) transitionFeedback(c *gin.Context) {
	var req transitionFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	out, err := s.deps.Feedback.Transition(c.Request.Context(), tenantID, siteID, c.Param("id"), req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
