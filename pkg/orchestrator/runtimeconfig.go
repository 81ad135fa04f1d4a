package orchestrator

import (
	"context"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/policy"
)

// ResolveRuntimeConfig exposes resolveRuntimeConfig for the admin API's
// GET /runtime/config read path (spec.md §6).
func (o *Orchestrator) ResolveRuntimeConfig(ctx context.Context, tenantID, siteID, npcID string) (*models.RuntimeConfig, error) {
	return o.resolveRuntimeConfig(ctx, tenantID, siteID, npcID)
}

// resolveRuntimeConfig fetches the active release's runtime bundle for
// (tenant,site,npc), serving from cache when fresh and single-flighting
// concurrent misses so a cold cache under load issues one database lookup,
// not one per waiting request (spec.md §4.1 step 2).
func (o *Orchestrator) resolveRuntimeConfig(ctx context.Context, tenantID, siteID, npcID string) (*models.RuntimeConfig, error) {
	key := o.cache.Keys().RuntimeConfig(tenantID, siteID, npcID)

	var rc models.RuntimeConfig
	if err := o.cache.GetJSON(ctx, key, &rc); err == nil {
		return &rc, nil
	}

	v, err, _ := o.runtimeConfigGroup.Do(key, func() (any, error) {
		built, buildErr := o.buildRuntimeConfig(ctx, tenantID, siteID, npcID)
		if buildErr != nil {
			return nil, buildErr
		}
		o.cache.SetJSON(ctx, key, built, o.runtimeConfigTTL)
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.RuntimeConfig), nil
}

func (o *Orchestrator) buildRuntimeConfig(ctx context.Context, tenantID, siteID, npcID string) (*models.RuntimeConfig, error) {
	rel, err := o.releases.GetActive(ctx, tenantID, siteID)
	if err != nil {
		if apperr.CategoryOf(err) == apperr.CategoryNotFound {
			return &models.RuntimeConfig{
				PolicyVersion: policy.DefaultPolicyName,
			}, nil
		}
		return nil, err
	}

	return &models.RuntimeConfig{
		ReleaseID:         rel.ID,
		ReleaseName:       rel.Name,
		PolicyVersion:     rel.Payload.PolicyVersion,
		PromptVersion:     rel.Payload.PromptsActiveMap[npcID],
		ExperimentID:      rel.Payload.ExperimentID,
		RetrievalDefaults: rel.Payload.RetrievalDefaults,
	}, nil
}

// defaultRuntimeConfigTTL matches spec.md §4.1 step 2's "60s TTL".
const defaultRuntimeConfigTTL = 60 * time.Second
