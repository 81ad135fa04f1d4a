package config

// Config is the umbrella configuration object that encapsulates all
// registries, defaults, and configuration state. This is the primary object
// returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	TenantRegistry      *TenantRegistry
	LLMProviderRegistry *LLMProviderRegistry

	Retrieval  *RetrievalConfig
	Cache      *CacheConfig
	Policy     *PolicyConfig
	Feedback   *FeedbackConfig
	Alerts     *AlertsConfig
	ToolClient *ToolClientConfig
	Retention  *RetentionConfig
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	Tenants      int
	Sites        int
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	sites := 0
	for _, t := range c.TenantRegistry.GetAll() {
		sites += len(t.Sites)
	}
	return ConfigStats{
		Tenants:      c.TenantRegistry.Len(),
		Sites:        sites,
		LLMProviders: c.LLMProviderRegistry.Len(),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetTenant retrieves a tenant configuration by id.
func (c *Config) GetTenant(id string) (*TenantConfig, error) {
	return c.TenantRegistry.Get(id)
}

// GetSite retrieves a site configuration by (tenant, site) id pair.
func (c *Config) GetSite(tenantID, siteID string) (*SiteConfig, error) {
	return c.TenantRegistry.GetSite(tenantID, siteID)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
