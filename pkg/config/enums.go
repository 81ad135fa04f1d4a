package config

// LLMProviderType defines supported LLM providers (spec.md §9: capability
// interface variants {baidu, openai, qwen, ollama}).
type LLMProviderType string

const (
	LLMProviderTypeBaidu  LLMProviderType = "baidu"
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	LLMProviderTypeQwen   LLMProviderType = "qwen"
	LLMProviderTypeOllama LLMProviderType = "ollama"
)

// IsValid checks if the LLM provider type is valid
func (t LLMProviderType) IsValid() bool {
	switch t {
	case LLMProviderTypeBaidu, LLMProviderTypeOpenAI, LLMProviderTypeQwen, LLMProviderTypeOllama:
		return true
	default:
		return false
	}
}

// RetrievalStrategyType defines supported retrieval strategies (spec.md §4.1
// step 5: {trgm, qdrant, hybrid}).
type RetrievalStrategyType string

const (
	RetrievalStrategyTrgm   RetrievalStrategyType = "trgm"
	RetrievalStrategyQdrant RetrievalStrategyType = "qdrant"
	RetrievalStrategyHybrid RetrievalStrategyType = "hybrid"
)

// IsValid checks if the retrieval strategy is valid
func (s RetrievalStrategyType) IsValid() bool {
	switch s {
	case RetrievalStrategyTrgm, RetrievalStrategyQdrant, RetrievalStrategyHybrid:
		return true
	default:
		return false
	}
}
