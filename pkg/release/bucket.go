package release

import (
	"fmt"
	"hash/crc32"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Bucket computes the deterministic [0,99] bucket for a subject within an
// experiment: CRC32(experiment_id + ":" + subject_key) mod 100 (spec.md
// §4.1 step 3, §4.4 "Experiment bucketing").
func Bucket(experimentID, subjectKey string) int {
	sum := crc32.ChecksumIEEE([]byte(experimentID + ":" + subjectKey))
	return int(sum % 100)
}

// AssignVariant walks an experiment's variants in the order they're declared
// by cumulative weight and returns the one bucket falls into. Variants must
// sum to 100 (models.ExperimentConfig.WeightSum); if bucket falls past the
// last cumulative boundary due to a misconfigured sum, the last variant is
// returned rather than panicking.
func AssignVariant(variants []models.ExperimentVariant, bucket int) (models.ExperimentVariant, error) {
	if len(variants) == 0 {
		return models.ExperimentVariant{}, fmt.Errorf("experiment has no variants")
	}
	cumulative := 0
	for _, v := range variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v, nil
		}
	}
	return variants[len(variants)-1], nil
}
