package config

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtinProviders map[string]LLMProviderConfig, userProviders map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig)

	for name, provider := range builtinProviders {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, userProvider := range userProviders {
		providerCopy := userProvider
		result[name] = &providerCopy
	}

	return result
}

// mergeTenants merges tenants loaded from YAML. There is no built-in tenant
// set (tenants are always operator-supplied); this exists so the loader can
// apply the same override-wins shape used elsewhere in this package, and so
// a future built-in demo tenant has a natural home.
func mergeTenants(builtinTenants map[string]TenantConfig, userTenants map[string]TenantConfig) map[string]*TenantConfig {
	result := make(map[string]*TenantConfig)

	for id, t := range builtinTenants {
		tCopy := t
		result[id] = &tCopy
	}

	for id, t := range userTenants {
		tCopy := t
		result[id] = &tCopy
	}

	return result
}
