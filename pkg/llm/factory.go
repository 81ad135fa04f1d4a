package llm

import "fmt"

// ProviderType names one of the supported backing LLM variants.
type ProviderType string

const (
	ProviderBaidu  ProviderType = "baidu"
	ProviderOpenAI ProviderType = "openai"
	ProviderQwen   ProviderType = "qwen"
	ProviderOllama ProviderType = "ollama"
)

// Config resolves one provider instance. BaseURL and Model may be left
// empty to take each adapter's default; APIKey is ignored by Ollama.
type Config struct {
	Type    ProviderType
	BaseURL string
	APIKey  string
	Model   string
}

// New builds the Provider named by cfg.Type, wrapped with the default
// timeout/retry posture (spec.md §4.1 step 8).
func New(cfg Config) (Provider, error) {
	var base Provider
	switch cfg.Type {
	case ProviderBaidu:
		base = NewBaiduProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		base = NewOpenAIProvider(cfg.APIKey, cfg.Model)
	case ProviderQwen:
		base = NewQwenProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderOllama:
		base = NewOllamaProvider(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider type %q", cfg.Type)
	}
	return NewRetryingProvider(base, DefaultRetryConfig()), nil
}
