package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func ev(id string) *models.Evidence {
	return &models.Evidence{ID: id, Title: "t-" + id, Excerpt: "e-" + id}
}

func TestToCitations_OrdersByScoreDescendingWithIDTieBreak(t *testing.T) {
	scored := []scoredEvidence{
		{evidence: ev("b"), score: 0.5},
		{evidence: ev("a"), score: 0.5},
		{evidence: ev("c"), score: 0.9},
	}
	out := toCitations(scored, 10, 0)
	assert.Equal(t, []string{"c", "a", "b"}, idsOf(out))
}

func TestToCitations_DropsBelowMinScoreAndTruncatesToTopK(t *testing.T) {
	scored := []scoredEvidence{
		{evidence: ev("a"), score: 0.9},
		{evidence: ev("b"), score: 0.6},
		{evidence: ev("c"), score: 0.1},
	}
	out := toCitations(scored, 1, 0.5)
	assert.Equal(t, []string{"a"}, idsOf(out))
}

func TestMinMaxNormalize_RescalesToZeroOne(t *testing.T) {
	scored := []scoredEvidence{
		{evidence: ev("a"), score: 10},
		{evidence: ev("b"), score: 20},
		{evidence: ev("c"), score: 30},
	}
	norm := minMaxNormalize(scored)
	assert.InDelta(t, 0.0, scoreOf(norm, "a"), 1e-9)
	assert.InDelta(t, 0.5, scoreOf(norm, "b"), 1e-9)
	assert.InDelta(t, 1.0, scoreOf(norm, "c"), 1e-9)
}

func TestMinMaxNormalize_AllEqualScoresNormalizeToOne(t *testing.T) {
	scored := []scoredEvidence{
		{evidence: ev("a"), score: 0.7},
		{evidence: ev("b"), score: 0.7},
	}
	norm := minMaxNormalize(scored)
	assert.InDelta(t, 1.0, scoreOf(norm, "a"), 1e-9)
	assert.InDelta(t, 1.0, scoreOf(norm, "b"), 1e-9)
}

func idsOf(citations []models.Citation) []string {
	out := make([]string, len(citations))
	for i, c := range citations {
		out[i] = c.ID
	}
	return out
}

func scoreOf(scored []scoredEvidence, id string) float64 {
	for _, s := range scored {
		if s.evidence.ID == id {
			return s.score
		}
	}
	return -1
}
