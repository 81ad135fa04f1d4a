package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// OrchestratorYAMLConfig represents the complete npcorchestrator.yaml file structure.
type OrchestratorYAMLConfig struct {
	Tenants    map[string]TenantConfig `yaml:"tenants"`
	Retrieval  *RetrievalConfig        `yaml:"retrieval"`
	Cache      *CacheConfig            `yaml:"cache"`
	Policy     *PolicyConfig           `yaml:"policy"`
	Feedback   *FeedbackConfig         `yaml:"feedback"`
	Alerts     *AlertsConfig           `yaml:"alerts"`
	ToolClient *ToolClientConfig       `yaml:"tool_client"`
	Retention  *RetentionConfig        `yaml:"retention"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configurations
//  5. Apply defaults for any unset sub-configs
//  6. Build in-memory registries
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"tenants", stats.Tenants,
		"sites", stats.Sites,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	orchCfg, err := loader.loadOrchestratorYAML()
	if err != nil {
		return nil, NewLoadError("npcorchestrator.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	builtin := GetBuiltinConfig()

	llmProvidersMerged := mergeLLMProviders(builtin.LLMProviders, llmProviders)
	tenants := mergeTenants(nil, orchCfg.Tenants)

	llmProviderRegistry := NewLLMProviderRegistry(llmProvidersMerged)
	tenantRegistry := NewTenantRegistry(tenants)

	retrievalCfg := DefaultRetrievalConfig()
	if orchCfg.Retrieval != nil {
		if err := mergo.Merge(retrievalCfg, orchCfg.Retrieval, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retrieval config: %w", err)
		}
	}

	cacheCfg := DefaultCacheConfig()
	if orchCfg.Cache != nil {
		if err := mergo.Merge(cacheCfg, orchCfg.Cache, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge cache config: %w", err)
		}
	}

	policyCfg := DefaultPolicyConfig()
	if orchCfg.Policy != nil {
		if err := mergo.Merge(policyCfg, orchCfg.Policy, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge policy config: %w", err)
		}
	}

	feedbackCfg := DefaultFeedbackConfig()
	if orchCfg.Feedback != nil {
		if err := mergo.Merge(feedbackCfg, orchCfg.Feedback, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge feedback config: %w", err)
		}
	}

	alertsCfg := DefaultAlertsConfig()
	if orchCfg.Alerts != nil {
		if err := mergo.Merge(alertsCfg, orchCfg.Alerts, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge alerts config: %w", err)
		}
	}

	toolClientCfg := DefaultToolClientConfig()
	if orchCfg.ToolClient != nil {
		if err := mergo.Merge(toolClientCfg, orchCfg.ToolClient, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge tool client config: %w", err)
		}
	}

	retentionCfg := DefaultRetentionConfig()
	if orchCfg.Retention != nil {
		if err := mergo.Merge(retentionCfg, orchCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		TenantRegistry:      tenantRegistry,
		LLMProviderRegistry: llmProviderRegistry,
		Retrieval:           retrievalCfg,
		Cache:               cacheCfg,
		Policy:              policyCfg,
		Feedback:            feedbackCfg,
		Alerts:              alertsCfg,
		ToolClient:          toolClientCfg,
		Retention:           retentionCfg,
	}, nil
}

func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadOrchestratorYAML() (*OrchestratorYAMLConfig, error) {
	var cfg OrchestratorYAMLConfig
	cfg.Tenants = make(map[string]TenantConfig)

	if err := l.loadYAML("npcorchestrator.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var cfg LLMProvidersYAMLConfig
	cfg.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &cfg); err != nil {
		return nil, err
	}

	return cfg.LLMProviders, nil
}
