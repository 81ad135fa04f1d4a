// Package intent provides the IntentClassifier capability interface and its
// {rule, llm} variants (spec.md §9 Polymorphism). The turn pipeline depends
// only on Classifier; it classifies a query into one of
// models.IntentLabel's five values before the Evidence Gate runs.
package intent

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Classifier is the capability interface every intent-classification
// strategy implements.
type Classifier interface {
	// Classify returns the intent label for query. persona is the NPC's
	// persona summary, consulted by the llm variant for cache keying and
	// prompt context; the rule variant ignores it. tenantID/siteID scope the
	// llm variant's result cache; the rule variant ignores them too.
	Classify(ctx context.Context, tenantID, siteID, query, persona string) (models.IntentLabel, error)

	Name() string
}
