package release

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestBucket_DeterministicForSameInputs(t *testing.T) {
	b1 := Bucket("exp-1", "session-abc")
	b2 := Bucket("exp-1", "session-abc")
	assert.Equal(t, b1, b2)
	assert.GreaterOrEqual(t, b1, 0)
	assert.Less(t, b1, 100)
}

func TestBucket_DiffersAcrossSubjects(t *testing.T) {
	buckets := make(map[int]bool)
	for i := 0; i < 20; i++ {
		b := Bucket("exp-1", "subject-"+strconv.Itoa(i))
		buckets[b] = true
	}
	assert.Greater(t, len(buckets), 1, "20 distinct subjects should not all land in the same bucket")
}

func TestAssignVariant_WalksCumulativeWeight(t *testing.T) {
	variants := []models.ExperimentVariant{
		{Name: "A", Weight: 50},
		{Name: "B", Weight: 50},
	}
	v, err := AssignVariant(variants, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", v.Name)

	v, err = AssignVariant(variants, 49)
	require.NoError(t, err)
	assert.Equal(t, "A", v.Name)

	v, err = AssignVariant(variants, 50)
	require.NoError(t, err)
	assert.Equal(t, "B", v.Name)

	v, err = AssignVariant(variants, 99)
	require.NoError(t, err)
	assert.Equal(t, "B", v.Name)
}

func TestAssignVariant_ThreeWayUnevenSplit(t *testing.T) {
	variants := []models.ExperimentVariant{
		{Name: "control", Weight: 70},
		{Name: "treatment_a", Weight: 20},
		{Name: "treatment_b", Weight: 10},
	}
	v, err := AssignVariant(variants, 69)
	require.NoError(t, err)
	assert.Equal(t, "control", v.Name)

	v, err = AssignVariant(variants, 70)
	require.NoError(t, err)
	assert.Equal(t, "treatment_a", v.Name)

	v, err = AssignVariant(variants, 90)
	require.NoError(t, err)
	assert.Equal(t, "treatment_b", v.Name)
}

func TestAssignVariant_NoVariants_Errors(t *testing.T) {
	_, err := AssignVariant(nil, 10)
	require.Error(t, err)
}
