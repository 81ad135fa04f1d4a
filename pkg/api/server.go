// Package api exposes the HTTP surface described in spec.md §6: chat,
// the tool RPC plane, the release/experiment control plane, the feedback
// workflow, alert evaluation/silences, and health probes. Routes are
// grouped under /api/v1, following the teacher's gin conventions.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/alerts"
	"github.com/codeready-toolchain/npcorchestrator/pkg/database"
	"github.com/codeready-toolchain/npcorchestrator/pkg/feedback"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/orchestrator"
	"github.com/codeready-toolchain/npcorchestrator/pkg/release"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
	"github.com/codeready-toolchain/npcorchestrator/pkg/trace"
	"github.com/codeready-toolchain/npcorchestrator/pkg/version"
)

// Deps bundles every collaborator the HTTP surface dispatches to.
type Deps struct {
	DB            *database.Client
	Orchestrator  *orchestrator.Orchestrator
	Tools         *tools.Server
	Releases      *release.Service
	Feedback      *feedback.Service
	AlertEvents   *alerts.Repository
	AlertSilences *alerts.SilenceRepository
	Evaluator     *alerts.Evaluator
	AlertRules    []models.AlertRule
	Traces        *trace.Repository
}

// Server wraps a gin.Engine wired against Deps.
type Server struct {
	engine *gin.Engine
	deps   Deps
}

// NewServer builds a Server with every route registered.
func NewServer(deps Deps) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), securityHeaders())

	s := &Server{engine: engine, deps: deps}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler for use by an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/readyz", s.readyz)
	s.engine.GET("/livez", s.livez)

	v1 := s.engine.Group("/api/v1")
	v1.Use(tenantScope())

	v1.POST("/chat", s.postChat)

	v1.POST("/tools/list", s.postToolsList)
	v1.POST("/tools/call", s.postToolsCall)

	v1.GET("/releases", s.listReleases)
	v1.POST("/releases", s.createRelease)
	v1.POST("/releases/:id/activate", s.activateRelease)
	v1.POST("/releases/:id/rollback", s.rollbackRelease)

	v1.GET("/runtime/config", s.getRuntimeConfig)

	v1.GET("/experiments", s.listExperiments)
	v1.POST("/experiments", s.createExperiment)
	v1.GET("/experiments/assign", s.assignExperiment)

	v1.POST("/feedback", s.submitFeedback)
	v1.GET("/feedback", s.listFeedback)
	v1.POST("/feedback/:id/resolve", s.resolveFeedback)
	v1.POST("/feedback/:id/transition", s.transitionFeedback)

	v1.POST("/alerts/evaluate", s.evaluateAlerts(false))
	v1.POST("/alerts/evaluate-persist", s.evaluateAlerts(true))
	v1.GET("/alerts/silences", s.listSilences)
	v1.POST("/alerts/silences", s.createSilence)
	v1.DELETE("/alerts/silences/:id", s.deleteSilence)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Full()})
}

func (s *Server) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if s.deps.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	if _, err := database.Health(ctx, s.deps.DB.DB()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
