package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

type fakeTrigramSearcher struct {
	evidence []*models.Evidence
	scores   []float64
	err      error
}

func (f *fakeTrigramSearcher) SearchTrigram(ctx context.Context, tenantID, siteID, query string, domains []string, topK int) ([]*models.Evidence, []float64, error) {
	return f.evidence, f.scores, f.err
}

func TestTrgmStrategy_Retrieve_RanksAndFilters(t *testing.T) {
	repo := &fakeTrigramSearcher{
		evidence: []*models.Evidence{ev("a"), ev("b")},
		scores:   []float64{0.9, 0.3},
	}
	s := NewTrgmStrategy(repo)

	out, err := s.Retrieve(context.Background(), "t1", "s1", "founding myth", nil, 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, idsOf(out))
}

func TestTrgmStrategy_Retrieve_PropagatesRepositoryError(t *testing.T) {
	repo := &fakeTrigramSearcher{err: assertError("db down")}
	s := NewTrgmStrategy(repo)

	_, err := s.Retrieve(context.Background(), "t1", "s1", "q", nil, 5, 0)
	assert.Error(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }
