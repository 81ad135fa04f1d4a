package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// assignExperiment resolves the turn's experiment variant, if the runtime
// config names one (spec.md §4.1 step 3). Any failure here degrades to "no
// experiment" rather than failing the turn: an experiment is an
// optimization, not a correctness requirement.
func (o *Orchestrator) assignExperiment(ctx context.Context, tenantID, siteID, experimentID, sessionID, userID string) (variant string, overrides map[string]any) {
	if experimentID == "" {
		return "", nil
	}

	exp, err := o.releases.GetExperiment(ctx, tenantID, siteID, experimentID)
	if err != nil {
		o.logger.Warn("experiment lookup failed, proceeding without it", "experiment_id", experimentID, "error", err)
		return "", nil
	}
	if exp.Status != models.ExperimentStatusActive {
		return "", nil
	}

	subjectKey := sessionID
	if exp.Config.SubjectType == models.SubjectTypeUserID && userID != "" {
		subjectKey = userID
	}

	assignment, err := o.releases.Assign(ctx, exp, subjectKey)
	if err != nil {
		o.logger.Warn("experiment assignment failed, proceeding without it", "experiment_id", experimentID, "error", err)
		return "", nil
	}
	return assignment.Variant, assignment.StrategyOverrides
}

// applyStrategyOverrides folds an experiment variant's overrides into a
// release's retrieval defaults (spec.md §4.1 step 3: "folded into
// retrieval_defaults and policy parameters").
func applyStrategyOverrides(defaults models.RetrievalDefaults, overrides map[string]any) models.RetrievalDefaults {
	if overrides == nil {
		return defaults
	}
	if v, ok := overrides["top_k"].(float64); ok && v > 0 {
		defaults.TopK = int(v)
	}
	if v, ok := overrides["min_score"].(float64); ok {
		defaults.MinScore = v
	}
	if v, ok := overrides["strategy"].(string); ok && v != "" {
		defaults.Strategy = v
	}
	return defaults
}
