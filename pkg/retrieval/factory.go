package retrieval

import "fmt"

// StrategyType names one of the supported retrieval strategies.
type StrategyType string

const (
	StrategyTrgm   StrategyType = "trgm"
	StrategyQdrant StrategyType = "qdrant"
	StrategyHybrid StrategyType = "hybrid"
)

// Config resolves one retrieval Provider.
type Config struct {
	Strategy         StrategyType
	QdrantBaseURL    string
	QdrantCollection string
	TrgmWeight       float64
	QdrantWeight     float64
}

// New builds the Provider named by cfg.Strategy. trgm is always wired since
// every strategy but a qdrant-only deployment needs it (hybrid requires
// both); qdrant/embedder/evidence lookup are only required when cfg.Strategy
// is qdrant or hybrid.
func New(cfg Config, trgmRepo TrigramSearcher, embedder Embedder, evidenceLookup EvidenceByID) (Provider, error) {
	trgm := NewTrgmStrategy(trgmRepo)

	switch cfg.Strategy {
	case StrategyTrgm, "":
		return trgm, nil
	case StrategyQdrant:
		if embedder == nil || evidenceLookup == nil {
			return nil, fmt.Errorf("qdrant retrieval strategy requires an embedder and evidence lookup")
		}
		return NewQdrantStrategy(cfg.QdrantBaseURL, cfg.QdrantCollection, embedder, evidenceLookup), nil
	case StrategyHybrid:
		if embedder == nil || evidenceLookup == nil {
			return nil, fmt.Errorf("hybrid retrieval strategy requires an embedder and evidence lookup")
		}
		qdrant := NewQdrantStrategy(cfg.QdrantBaseURL, cfg.QdrantCollection, embedder, evidenceLookup)
		return NewHybridStrategy(trgm, qdrant, cfg.TrgmWeight, cfg.QdrantWeight), nil
	default:
		return nil, fmt.Errorf("unknown retrieval strategy %q", cfg.Strategy)
	}
}
