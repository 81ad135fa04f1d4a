package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// listReleases handles GET /api/v1/releases (spec.md §6).
func (s *Server) listReleases(c *gin.Context) {
	tenantID, siteID := tenantSiteFrom(c)
	releases, err := s.deps.Releases.ListReleases(c.Request.Context(), tenantID, siteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, releases)
}

type createReleaseRequest struct {
	Name    string                `json:"name" binding:"required"`
	Payload models.ReleasePayload `json:"payload" binding:"required"`
}

// createRelease handles POST /api/v1/releases (spec.md §4.4 CreateRelease).
func (s *Server) createRelease(c *gin.Context) {
	var req createReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	rel, err := s.deps.Releases.CreateRelease(c.Request.Context(), tenantID, siteID, req.Name, req.Payload, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// activateRelease handles POST /api/v1/releases/:id/activate (spec.md §4.4).
func (s *Server) activateRelease(c *gin.Context) {
	tenantID, siteID := tenantSiteFrom(c)
	if err := s.deps.Releases.Activate(c.Request.Context(), tenantID, siteID, c.Param("id"), actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated"})
}

// rollbackRelease handles POST /api/v1/releases/:id/rollback (spec.md §4.4).
func (s *Server) rollbackRelease(c *gin.Context) {
	tenantID, siteID := tenantSiteFrom(c)
	if err := s.deps.Releases.Rollback(c.Request.Context(), tenantID, siteID, c.Param("id"), actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rolled_back"})
}

// getRuntimeConfig handles GET /api/v1/runtime/config (spec.md §4.1 step 2,
// §6). npc_id is required: runtime config is resolved per (tenant,site,npc).
func (s *Server) getRuntimeConfig(c *gin.Context) {
	npcID := c.Query("npc_id")
	if npcID == "" {
		respondError(c, badRequest(errMissingNPCID()))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	rc, err := s.deps.Orchestrator.ResolveRuntimeConfig(c.Request.Context(), tenantID, siteID, npcID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rc)
}

// listExperiments handles GET /api/v1/experiments (spec.md §6).
func (s *Server) listExperiments(c *gin.Context) {
	tenantID, siteID := tenantSiteFrom(c)
	experiments, err := s.deps.Releases.ListExperiments(c.Request.Context(), tenantID, siteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, experiments)
}

type createExperimentRequest struct {
	Name   string                  `json:"name" binding:"required"`
	Config models.ExperimentConfig `json:"config" binding:"required"`
}

// createExperiment handles POST /api/v1/experiments (spec.md §4.4, §3
// "Weights sum to 100").
func (s *Server) createExperiment(c *gin.Context) {
	var req createExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	exp, err := s.deps.Releases.CreateExperiment(c.Request.Context(), tenantID, siteID, req.Name, req.Config)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// assignExperiment handles GET /api/v1/experiments/assign?experiment_id=&subject_key=
// (spec.md §4.1 step 3, §5). Exposed for operators to inspect/force an
// assignment outside of a live turn.
func (s *Server) assignExperiment(c *gin.Context) {
	experimentID := c.Query("experiment_id")
	subjectKey := c.Query("subject_key")
	if experimentID == "" || subjectKey == "" {
		respondError(c, badRequest(errMissingAssignParams()))
		return
	}
	tenantID, siteID := tenantSiteFrom(c)
	exp, err := s.deps.Releases.GetExperiment(c.Request.Context(), tenantID, siteID, experimentID)
	if err != nil {
		respondError(c, err)
		return
	}
	assignment, err := s.deps.Releases.Assign(c.Request.Context(), exp, subjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
