package retrieval

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// HybridStrategy fuses trgm and qdrant scores: min-max normalize each
// strategy's scores independently, then combine with configured weights
// (spec.md §4.1 step 5: "trgm_w·score_trgm + qdrant_w·score_qdrant with
// min-max normalisation per strategy before fusion").
type HybridStrategy struct {
	trgm         *TrgmStrategy
	qdrant       *QdrantStrategy
	trgmWeight   float64
	qdrantWeight float64
}

// NewHybridStrategy builds a Provider that fuses trgm and qdrant scores.
// Weights are read from RETRIEVAL_TRGM_WEIGHT / RETRIEVAL_QDRANT_WEIGHT.
func NewHybridStrategy(trgm *TrgmStrategy, qdrant *QdrantStrategy, trgmWeight, qdrantWeight float64) *HybridStrategy {
	return &HybridStrategy{trgm: trgm, qdrant: qdrant, trgmWeight: trgmWeight, qdrantWeight: qdrantWeight}
}

func (h *HybridStrategy) Retrieve(ctx context.Context, tenantID, siteID, query string, domains []string, topK int, minScore float64) ([]models.Citation, error) {
	// Over-fetch each strategy so fusion has enough candidates to re-rank
	// from, not just each strategy's already-truncated top-K.
	fetchK := topK * 3
	if fetchK < topK {
		fetchK = topK
	}

	trgmScored, err := h.trgm.scoredEvidence(ctx, tenantID, siteID, query, domains, fetchK)
	if err != nil {
		return nil, err
	}
	qdrantScored, err := h.qdrant.scoredEvidence(ctx, tenantID, siteID, query, domains, fetchK)
	if err != nil {
		return nil, err
	}

	fused := fuse(minMaxNormalize(trgmScored), minMaxNormalize(qdrantScored), h.trgmWeight, h.qdrantWeight)
	return toCitations(fused, topK, minScore), nil
}

// fuse combines two independently-normalized score sets by evidence ID,
// weighting each. An evidence row present in only one set is scored using
// that set's normalized score times its weight alone — it is not penalized
// for the strategy it wasn't returned by.
func fuse(a, b []scoredEvidence, weightA, weightB float64) []scoredEvidence {
	byID := make(map[string]*scoredEvidence, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		byID[s.evidence.ID] = &scoredEvidence{evidence: s.evidence, score: s.score * weightA}
		order = append(order, s.evidence.ID)
	}
	for _, s := range b {
		if existing, ok := byID[s.evidence.ID]; ok {
			existing.score += s.score * weightB
			continue
		}
		byID[s.evidence.ID] = &scoredEvidence{evidence: s.evidence, score: s.score * weightB}
		order = append(order, s.evidence.ID)
	}

	out := make([]scoredEvidence, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
