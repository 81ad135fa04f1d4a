package release

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/policy"
)

// PolicyVersionChecker is the narrow port onto the policy store a release
// validates policy_version against. Satisfied by pkg/policy.Repository.
type PolicyVersionChecker interface {
	ListVersions(ctx context.Context, tenantID, siteID, name string) ([]*models.Policy, error)
}

// PromptVersionChecker is the narrow port onto NPC prompt storage a release
// validates prompts_active_map against.
type PromptVersionChecker interface {
	PromptVersionExists(ctx context.Context, tenantID, siteID, npcID string, version int) (bool, error)
}

// validatePayload checks a ReleasePayload's integrity per spec.md §4.4
// CreateRelease: policy_version must exist, every referenced NPC prompt
// version must exist, a present experiment_id must exist and be
// non-archived, and retrieval_defaults ranges must be valid. Every
// violation is collected so the caller gets a complete offence list
// instead of failing on the first one.
func (s *Service) validatePayload(ctx context.Context, tenantID, siteID string, payload models.ReleasePayload) error {
	var offences []string

	if payload.PolicyVersion == "" {
		offences = append(offences, "policy_version is required")
	} else if s.policies != nil {
		versions, err := s.policies.ListVersions(ctx, tenantID, siteID, policy.DefaultPolicyName)
		if err != nil {
			return fmt.Errorf("list policy versions: %w", err)
		}
		found := false
		for _, v := range versions {
			if v.Version == payload.PolicyVersion {
				found = true
				break
			}
		}
		if !found {
			offences = append(offences, fmt.Sprintf("policy_version %q does not exist", payload.PolicyVersion))
		}
	}

	if s.prompts != nil {
		for npcID, version := range payload.PromptsActiveMap {
			exists, err := s.prompts.PromptVersionExists(ctx, tenantID, siteID, npcID, version)
			if err != nil {
				return fmt.Errorf("check prompt version for %q: %w", npcID, err)
			}
			if !exists {
				offences = append(offences, fmt.Sprintf("prompt version %d for npc_id %q does not exist", version, npcID))
			}
		}
	}

	if payload.ExperimentID != "" {
		exp, err := s.repo.GetExperiment(ctx, tenantID, siteID, payload.ExperimentID)
		if err != nil {
			if apperr.CategoryOf(err) == apperr.CategoryNotFound {
				offences = append(offences, fmt.Sprintf("experiment_id %q does not exist", payload.ExperimentID))
			} else {
				return fmt.Errorf("get experiment: %w", err)
			}
		} else if exp.Status == models.ExperimentStatusCompleted {
			offences = append(offences, fmt.Sprintf("experiment_id %q is archived/completed and cannot be referenced", payload.ExperimentID))
		}
	}

	if payload.RetrievalDefaults.TopK < 0 {
		offences = append(offences, "retrieval_defaults.top_k must be >= 0")
	}
	if payload.RetrievalDefaults.MinScore < 0 || payload.RetrievalDefaults.MinScore > 1 {
		offences = append(offences, "retrieval_defaults.min_score must be in [0,1]")
	}

	if len(offences) > 0 {
		return apperr.New(apperr.CategoryValidation, "release payload failed integrity validation").WithDetails(offences...)
	}
	return nil
}
