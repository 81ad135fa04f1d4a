package release

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Service is the release and experiment control plane's entry point: the
// orchestrator and the admin API both call through here rather than the raw
// Repository, so integrity validation and audit logging always run.
type Service struct {
	repo     *Repository
	policies PolicyVersionChecker
	prompts  PromptVersionChecker
	audit    AuditLogger
	logger   *slog.Logger
}

// AuditLogger records control-plane actions to the admin audit log.
// Satisfied by pkg/trace.AdminAuditLogger.
type AuditLogger interface {
	LogAdminAction(ctx context.Context, actor, action, targetType, targetID string, payload map[string]any) error
}

// NewService builds a Service. policies and prompts may be nil, in which
// case their respective payload checks are skipped — useful for tests that
// only exercise the activation/bucketing paths.
func NewService(repo *Repository, policies PolicyVersionChecker, prompts PromptVersionChecker, audit AuditLogger) *Service {
	return &Service{repo: repo, policies: policies, prompts: prompts, audit: audit, logger: slog.Default()}
}

// CreateRelease validates payload's integrity (spec.md §4.4 CreateRelease)
// and inserts a new draft release. Returns a classified validation error
// listing every offence if validation fails.
func (s *Service) CreateRelease(ctx context.Context, tenantID, siteID, name string, payload models.ReleasePayload, createdBy string) (*models.Release, error) {
	if err := s.validatePayload(ctx, tenantID, siteID, payload); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, tenantID, siteID, name, payload, createdBy)
}

// Activate makes releaseID the active release for (tenant,site), archiving
// whatever was previously active, and records the action in the admin audit
// log.
func (s *Service) Activate(ctx context.Context, tenantID, siteID, releaseID, operator string) error {
	if err := s.repo.Activate(ctx, tenantID, siteID, releaseID, operator); err != nil {
		return err
	}
	s.logAudit(ctx, operator, "release.activate", "release", releaseID, map[string]any{"tenant_id": tenantID, "site_id": siteID})
	return nil
}

// Rollback re-validates releaseID's payload integrity, then re-activates it
// exactly like Activate but records the history action as "rollback".
func (s *Service) Rollback(ctx context.Context, tenantID, siteID, releaseID, operator string) error {
	rel, err := s.repo.GetByID(ctx, tenantID, siteID, releaseID)
	if err != nil {
		return err
	}
	if err := s.validatePayload(ctx, tenantID, siteID, rel.Payload); err != nil {
		return err
	}
	if err := s.repo.Rollback(ctx, tenantID, siteID, releaseID, operator); err != nil {
		return err
	}
	s.logAudit(ctx, operator, "release.rollback", "release", releaseID, map[string]any{"tenant_id": tenantID, "site_id": siteID})
	return nil
}

// GetActive is a fast read feeding the runtime-config lookup.
func (s *Service) GetActive(ctx context.Context, tenantID, siteID string) (*models.Release, error) {
	return s.repo.GetActive(ctx, tenantID, siteID)
}

// ListReleases returns every release for a tenant/site (spec.md §6 "GET ...
// /releases").
func (s *Service) ListReleases(ctx context.Context, tenantID, siteID string) ([]*models.Release, error) {
	return s.repo.List(ctx, tenantID, siteID)
}

// GetExperiment loads an experiment definition, feeding the turn pipeline's
// assignment step (spec.md §4.1 step 3).
func (s *Service) GetExperiment(ctx context.Context, tenantID, siteID, id string) (*models.Experiment, error) {
	return s.repo.GetExperiment(ctx, tenantID, siteID, id)
}

// ListExperiments returns every experiment for a tenant/site (spec.md §6
// "GET ... /experiments").
func (s *Service) ListExperiments(ctx context.Context, tenantID, siteID string) ([]*models.Experiment, error) {
	return s.repo.ListExperiments(ctx, tenantID, siteID)
}

// CreateExperiment validates that its variant weights sum to 100 (spec.md
// §4.4 invariant) and inserts a new draft experiment.
func (s *Service) CreateExperiment(ctx context.Context, tenantID, siteID, name string, config models.ExperimentConfig) (*models.Experiment, error) {
	if config.WeightSum() != 100 {
		return nil, apperr.New(apperr.CategoryValidation, fmt.Sprintf("experiment %q variant weights sum to %d, not 100", name, config.WeightSum()))
	}
	return s.repo.CreateExperiment(ctx, tenantID, siteID, name, config)
}

func (s *Service) logAudit(ctx context.Context, actor, action, targetType, targetID string, payload map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogAdminAction(ctx, actor, action, targetType, targetID, payload); err != nil {
		s.logger.Warn("admin audit log write failed", "action", action, "target_id", targetID, "error", err)
	}
}

// Assign resolves the variant for (experimentID, subjectKey), computing and
// persisting a new bucket assignment if none exists yet. The unique
// constraint on (experiment_id, subject_key) makes concurrent first-time
// assignment idempotent: the insert is attempted unconditionally and the
// row that wins is re-read, so every caller converges on one variant
// regardless of which request's insert actually landed (spec.md §4.1 step
// 3, §5).
func (s *Service) Assign(ctx context.Context, experiment *models.Experiment, subjectKey string) (*models.ExperimentAssignment, error) {
	if existing, err := s.repo.GetAssignment(ctx, experiment.ID, subjectKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if experiment.Config.WeightSum() != 100 {
		return nil, apperr.New(apperr.CategoryValidation, fmt.Sprintf("experiment %q variant weights sum to %d, not 100", experiment.ID, experiment.Config.WeightSum()))
	}

	bucket := Bucket(experiment.ID, subjectKey)
	variant, err := AssignVariant(experiment.Config.Variants, bucket)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryValidation, "cannot assign variant", err)
	}

	assignment := &models.ExperimentAssignment{
		ExperimentID:      experiment.ID,
		TenantID:          experiment.TenantID,
		SiteID:            experiment.SiteID,
		SubjectType:       experiment.Config.SubjectType,
		SubjectKey:        subjectKey,
		Variant:           variant.Name,
		BucketHash:        bucket,
		StrategyOverrides: variant.StrategyOverrides,
	}
	return s.repo.InsertAssignmentIfAbsent(ctx, assignment)
}
