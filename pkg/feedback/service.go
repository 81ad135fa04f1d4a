package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// AuditLogger records control-plane actions to the admin audit log.
// Satisfied by pkg/trace.Repository.
type AuditLogger interface {
	LogAdminAction(ctx context.Context, actor, action, targetType, targetID string, payload map[string]any) error
}

// allowedTransitions enumerates every forward edge of the state machine
// (spec.md §4.6: "pending -> reviewing -> accepted|rejected -> resolved ->
// archived"; backward transitions are forbidden).
var allowedTransitions = map[models.FeedbackStatus][]models.FeedbackStatus{
	models.FeedbackStatusPending:   {models.FeedbackStatusReviewing},
	models.FeedbackStatusReviewing: {models.FeedbackStatusAccepted, models.FeedbackStatusRejected},
	models.FeedbackStatusAccepted:  {models.FeedbackStatusResolved},
	models.FeedbackStatusRejected:  {models.FeedbackStatusArchived},
	models.FeedbackStatusResolved:  {models.FeedbackStatusArchived},
}

// timestampColumnFor names the single timestamp column a transition into
// status owns.
func timestampColumnFor(status models.FeedbackStatus) string {
	switch status {
	case models.FeedbackStatusReviewing:
		return "triaged_at"
	case models.FeedbackStatusAccepted, models.FeedbackStatusRejected:
		return "in_progress_at"
	case models.FeedbackStatusArchived:
		return "closed_at"
	default:
		return ""
	}
}

// Service implements the feedback workflow: submission with routing,
// forward-only transitions, and resolution.
type Service struct {
	repo   *Repository
	router *Router
	audit  AuditLogger
}

// NewService builds a Service over its collaborators.
func NewService(repo *Repository, router *Router, audit AuditLogger) *Service {
	return &Service{repo: repo, router: router, audit: audit}
}

// Submit routes and persists a new feedback ticket (spec.md §4.6).
func (s *Service) Submit(ctx context.Context, f *models.UserFeedback) (*models.UserFeedback, error) {
	if f.Content == "" {
		return nil, apperr.New(apperr.CategoryValidation, "feedback content is required")
	}
	if f.Severity == "" {
		return nil, apperr.New(apperr.CategoryValidation, "feedback severity is required")
	}
	if f.Type == "" {
		return nil, apperr.New(apperr.CategoryValidation, "feedback type is required")
	}

	result := s.router.Match(f)
	f.Assignee = result.Assignee
	f.Group = result.Group
	f.Status = models.FeedbackStatusPending
	f.OverdueFlag = false
	dueAt := time.Now().UTC().Add(time.Duration(result.SLAHours) * time.Hour)
	f.SLADueAt = &dueAt

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Transition moves a feedback ticket forward one state-machine step, owned
// by the actor supplied.
func (s *Service) Transition(ctx context.Context, tenantID, siteID, id string, to models.FeedbackStatus, actor string) (*models.UserFeedback, error) {
	current, err := s.repo.GetByID(ctx, tenantID, siteID, id)
	if err != nil {
		return nil, err
	}

	if !isAllowedTransition(current.Status, to) {
		return nil, apperr.New(apperr.CategoryConflict, fmt.Sprintf("cannot transition feedback from %s to %s", current.Status, to))
	}

	now := time.Now().UTC()
	column := timestampColumnFor(to)
	if column == "" {
		return nil, apperr.New(apperr.CategoryInternal, fmt.Sprintf("no timestamp column for status %s", to))
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, siteID, id, to, column, now); err != nil {
		return nil, err
	}

	if s.audit != nil {
		action := models.AuditActionFeedbackStatus
		if to == models.FeedbackStatusReviewing {
			action = models.AuditActionFeedbackTriage
		}
		_ = s.audit.LogAdminAction(ctx, actor, string(action), "feedback", id, map[string]any{"from": current.Status, "to": to})
	}

	return s.repo.GetByID(ctx, tenantID, siteID, id)
}

// Resolve binds a resolution to content and/or evidence and closes the
// ticket. A resolution must name at least one of the two (spec.md §4.6).
// The ticket must already be in the accepted state, per allowedTransitions.
func (s *Service) Resolve(ctx context.Context, tenantID, siteID, id, contentID, evidenceID, actor string) (*models.UserFeedback, error) {
	if contentID == "" && evidenceID == "" {
		return nil, apperr.New(apperr.CategoryValidation, "resolution must bind a content_id or evidence_id")
	}

	current, err := s.repo.GetByID(ctx, tenantID, siteID, id)
	if err != nil {
		return nil, err
	}
	if !isAllowedTransition(current.Status, models.FeedbackStatusResolved) {
		return nil, apperr.New(apperr.CategoryConflict, fmt.Sprintf("cannot resolve feedback from status %s", current.Status))
	}

	now := time.Now().UTC()
	if err := s.repo.Resolve(ctx, tenantID, siteID, id, contentID, evidenceID, now); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.LogAdminAction(ctx, actor, string(models.AuditActionFeedbackResolve), "feedback", id, map[string]any{
			"resolved_by_content_id": contentID, "resolved_by_evidence_id": evidenceID,
		})
	}

	return s.repo.GetByID(ctx, tenantID, siteID, id)
}

// List returns feedback tickets for a tenant/site.
func (s *Service) List(ctx context.Context, tenantID, siteID string, filter ListFilter) ([]*models.UserFeedback, error) {
	return s.repo.List(ctx, tenantID, siteID, filter)
}

func isAllowedTransition(from, to models.FeedbackStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ScanOverdue runs the periodic overdue-flag sweep (spec.md §4.6), meant to
// be invoked from a cron entrypoint. Returns the number of tickets flagged.
func (s *Service) ScanOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, time.Now().UTC())
}
