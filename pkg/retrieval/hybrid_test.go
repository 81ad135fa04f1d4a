package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuse_CombinesWeightedNormalizedScores(t *testing.T) {
	a := []scoredEvidence{{evidence: ev("x"), score: 1.0}, {evidence: ev("y"), score: 0.0}}
	b := []scoredEvidence{{evidence: ev("x"), score: 0.0}, {evidence: ev("y"), score: 1.0}}

	fused := fuse(a, b, 0.6, 0.4)
	assert.InDelta(t, 0.6, scoreOf(fused, "x"), 1e-9)
	assert.InDelta(t, 0.4, scoreOf(fused, "y"), 1e-9)
}

func TestFuse_EvidenceOnlyInOneSetKeepsThatSetsWeightedScore(t *testing.T) {
	a := []scoredEvidence{{evidence: ev("x"), score: 1.0}}
	b := []scoredEvidence{{evidence: ev("z"), score: 1.0}}

	fused := fuse(a, b, 0.6, 0.4)
	assert.InDelta(t, 0.6, scoreOf(fused, "x"), 1e-9)
	assert.InDelta(t, 0.4, scoreOf(fused, "z"), 1e-9)
}
