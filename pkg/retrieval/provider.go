// Package retrieval provides the RetrievalProvider capability interface and
// its {trgm, qdrant, hybrid} strategies, consumed by the retrieve_evidence
// tool (pkg/tools.EvidenceRetriever).
package retrieval

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Provider is the capability interface the retrieve_evidence tool depends
// on. Strategies choose their own tie-break; deterministic ordering (id
// ascending on equal score) is each Provider's responsibility.
type Provider interface {
	Retrieve(ctx context.Context, tenantID, siteID, query string, domains []string, topK int, minScore float64) ([]models.Citation, error)
}

// scoredEvidence pairs an Evidence row with a strategy-computed score, used
// internally by every strategy for the final sort/truncate/tie-break step.
type scoredEvidence struct {
	evidence *models.Evidence
	score    float64
}

// toCitations sorts by score descending with id-ascending tie-break, drops
// anything below minScore, and truncates to topK.
func toCitations(scored []scoredEvidence, topK int, minScore float64) []models.Citation {
	sortScored(scored)

	out := make([]models.Citation, 0, topK)
	for _, s := range scored {
		if s.score < minScore {
			continue
		}
		out = append(out, s.evidence.ToChainItem(s.score))
		if len(out) >= topK {
			break
		}
	}
	return out
}

func sortScored(scored []scoredEvidence) {
	// Insertion sort is fine here: topK is small (single-digit to low tens)
	// and this runs once per retrieval call, not in a hot inner loop.
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && less(scored[j], scored[j-1]); j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
}

// less orders by score descending, then id ascending for a deterministic
// tie-break (spec.md §4.1 step 5).
func less(a, b scoredEvidence) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.evidence.ID < b.evidence.ID
}

// minMaxNormalize rescales scores into [0,1] per strategy before fusion
// (spec.md §4.1 step 5's hybrid formula). A strategy returning a single
// score or all-equal scores normalizes to 1.0 for every entry rather than
// dividing by zero.
func minMaxNormalize(scored []scoredEvidence) []scoredEvidence {
	if len(scored) == 0 {
		return scored
	}
	min, max := scored[0].score, scored[0].score
	for _, s := range scored[1:] {
		if s.score < min {
			min = s.score
		}
		if s.score > max {
			max = s.score
		}
	}
	out := make([]scoredEvidence, len(scored))
	spread := max - min
	for i, s := range scored {
		norm := 1.0
		if spread > 0 {
			norm = (s.score - min) / spread
		}
		out[i] = scoredEvidence{evidence: s.evidence, score: norm}
	}
	return out
}
