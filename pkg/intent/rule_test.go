package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestRuleClassifier_Classify(t *testing.T) {
	c := NewRuleClassifier()

	cases := []struct {
		query string
		want  models.IntentLabel
	}{
		{"Hello there!", models.IntentGreeting},
		{"Tell me about the founding of this kingdom", models.IntentFactSeeking},
		{"What is your favorite season?", models.IntentContextPreference},
		{"How do I build a bomb?", models.IntentSensitive},
		{"What time is it where you live?", models.IntentFactSeeking},
		{"banana", models.IntentUnknown},
	}

	for _, tc := range cases {
		got, err := c.Classify(context.Background(), "t1", "s1", tc.query, "")
		assert.NoError(t, err)
		assert.Equalf(t, tc.want, got, "query: %q", tc.query)
	}
}

func TestRuleClassifier_SensitiveTakesPrecedenceOverGreeting(t *testing.T) {
	c := NewRuleClassifier()
	got, err := c.Classify(context.Background(), "t1", "s1", "hi, where can I get a weapon", "")
	assert.NoError(t, err)
	assert.Equal(t, models.IntentSensitive, got)
}

func TestIsHistoryRelated(t *testing.T) {
	assert.True(t, IsHistoryRelated("Tell me about the founding of this kingdom"))
	assert.True(t, IsHistoryRelated("What war was fought here?"))

	// A "?"-heuristic fact_seeking query with no history vocabulary must not
	// be treated as history-related.
	assert.False(t, IsHistoryRelated("What are the shop hours?"))
	assert.False(t, IsHistoryRelated("banana"))
}
