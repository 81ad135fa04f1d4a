package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// postToolsList handles POST /api/v1/tools/list (spec.md §4.2).
func (s *Server) postToolsList(c *gin.Context) {
	var req struct {
		Category       string `json:"category,omitempty"`
		AICallableOnly bool   `json:"ai_callable_only,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, badRequest(err))
		return
	}
	c.JSON(http.StatusOK, s.deps.Tools.List(req.Category, req.AICallableOnly))
}

// postToolsCall handles POST /api/v1/tools/call (spec.md §4.2). The caller
// supplies its own CallContext fields except tenant/site/trace, which are
// always taken from the request's own scope headers.
func (s *Server) postToolsCall(c *gin.Context) {
	var req tools.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}

	tenantID, siteID := tenantSiteFrom(c)
	req.Context.TenantID = tenantID
	req.Context.SiteID = siteID
	req.Context.TraceID = traceIDFrom(c)

	result, err := s.deps.Tools.Call(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
