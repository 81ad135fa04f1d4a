package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRegistry_GetAndGetSite(t *testing.T) {
	reg := NewTenantRegistry(map[string]*TenantConfig{
		"acme": {
			ID:   "acme",
			Name: "Acme Co",
			Sites: []SiteConfig{
				{ID: "main", Name: "Main Site"},
			},
		},
	})

	tenant, err := reg.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", tenant.Name)

	site, err := reg.GetSite("acme", "main")
	require.NoError(t, err)
	assert.Equal(t, "Main Site", site.Name)

	_, err = reg.GetSite("acme", "missing")
	assert.ErrorIs(t, err, ErrSiteNotFound)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestLLMProviderRegistry_Defensive(t *testing.T) {
	builtin := GetBuiltinConfig()
	reg := NewLLMProviderRegistry(mergeLLMProviders(builtin.LLMProviders, nil))

	assert.True(t, reg.Has("openai"))
	assert.Equal(t, 4, reg.Len())

	p, err := reg.Get("ollama")
	require.NoError(t, err)
	assert.Equal(t, LLMProviderTypeOllama, p.Type)
}

func TestValidator_ValidateAll_Defaults(t *testing.T) {
	builtin := GetBuiltinConfig()
	cfg := &Config{
		TenantRegistry:      NewTenantRegistry(mergeTenants(nil, map[string]TenantConfig{"t1": {ID: "t1", Sites: []SiteConfig{{ID: "s1"}}}})),
		LLMProviderRegistry: NewLLMProviderRegistry(mergeLLMProviders(builtin.LLMProviders, nil)),
		Retrieval:           DefaultRetrievalConfig(),
		Cache:               DefaultCacheConfig(),
		Policy:              DefaultPolicyConfig(),
		Feedback:            DefaultFeedbackConfig(),
		Alerts:              DefaultAlertsConfig(),
		ToolClient:          DefaultToolClientConfig(),
	}

	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidator_DuplicateSiteRejected(t *testing.T) {
	cfg := &Config{
		TenantRegistry: NewTenantRegistry(map[string]*TenantConfig{
			"t1": {ID: "t1", Sites: []SiteConfig{{ID: "s1"}, {ID: "s1"}}},
		}),
		LLMProviderRegistry: NewLLMProviderRegistry(nil),
		Retrieval:           DefaultRetrievalConfig(),
		Cache:               DefaultCacheConfig(),
		Policy:              DefaultPolicyConfig(),
		Feedback:            DefaultFeedbackConfig(),
		Alerts:              DefaultAlertsConfig(),
	}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("NPC_TEST_VAR", "value")
	out := ExpandEnv([]byte("key: ${NPC_TEST_VAR}"))
	assert.Equal(t, "key: value", string(out))
}
