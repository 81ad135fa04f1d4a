package config

import "time"

// BuiltinConfig holds the built-in (compiled-in) configuration that ships
// with the binary. User-supplied YAML overrides these by name/id, the same
// override-wins merge the teacher's builtin.go applies to agents/chains/MCP
// servers.
type BuiltinConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

// GetBuiltinConfig returns the compiled-in defaults.
func GetBuiltinConfig() *BuiltinConfig {
	return &BuiltinConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"baidu": {
				Type:               LLMProviderTypeBaidu,
				Model:              "ernie-4.0",
				APIKeyEnv:          "BAIDU_API_KEY",
				Timeout:            60 * time.Second,
				MaxRetries:         3,
				DefaultTemperature: 0.7,
				DefaultMaxTokens:   1024,
			},
			"openai": {
				Type:               LLMProviderTypeOpenAI,
				Model:              "gpt-4o-mini",
				APIKeyEnv:          "OPENAI_API_KEY",
				Timeout:            60 * time.Second,
				MaxRetries:         3,
				DefaultTemperature: 0.7,
				DefaultMaxTokens:   1024,
			},
			"qwen": {
				Type:               LLMProviderTypeQwen,
				Model:              "qwen-turbo",
				APIKeyEnv:          "QWEN_API_KEY",
				Timeout:            60 * time.Second,
				MaxRetries:         3,
				DefaultTemperature: 0.7,
				DefaultMaxTokens:   1024,
			},
			"ollama": {
				Type:               LLMProviderTypeOllama,
				Model:              "llama3",
				BaseURL:            "http://localhost:11434",
				Timeout:            90 * time.Second,
				MaxRetries:         1,
				DefaultTemperature: 0.7,
				DefaultMaxTokens:   1024,
			},
		},
	}
}
