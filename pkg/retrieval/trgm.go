package retrieval

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// TrigramSearcher is the narrow port onto the evidence store's trigram
// search, satisfied by pkg/database.EvidenceRepository.
type TrigramSearcher interface {
	SearchTrigram(ctx context.Context, tenantID, siteID, query string, domains []string, topK int) ([]*models.Evidence, []float64, error)
}

// TrgmStrategy ranks evidence by Postgres pg_trgm similarity over
// title||excerpt (spec.md §4.1 step 5).
type TrgmStrategy struct {
	repo TrigramSearcher
}

// NewTrgmStrategy builds a Provider backed by trigram similarity search.
func NewTrgmStrategy(repo TrigramSearcher) *TrgmStrategy {
	return &TrgmStrategy{repo: repo}
}

func (s *TrgmStrategy) Retrieve(ctx context.Context, tenantID, siteID, query string, domains []string, topK int, minScore float64) ([]models.Citation, error) {
	scored, err := s.scoredEvidence(ctx, tenantID, siteID, query, domains, topK)
	if err != nil {
		return nil, err
	}
	return toCitations(scored, topK, minScore), nil
}

func (s *TrgmStrategy) scoredEvidence(ctx context.Context, tenantID, siteID, query string, domains []string, topK int) ([]scoredEvidence, error) {
	evidence, scores, err := s.repo.SearchTrigram(ctx, tenantID, siteID, query, domains, topK)
	if err != nil {
		return nil, err
	}
	scored := make([]scoredEvidence, len(evidence))
	for i, e := range evidence {
		scored[i] = scoredEvidence{evidence: e, score: scores[i]}
	}
	return scored, nil
}
