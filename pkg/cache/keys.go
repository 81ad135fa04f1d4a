package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ResourceType names a cacheable resource kind. Key format:
// {prefix}:{tenant_id}:{site_id}:{resource_type}:{resource_id}[:suffix]
type ResourceType string

const (
	ResourceNPCProfile    ResourceType = "npc_profile"
	ResourcePromptActive  ResourceType = "prompt"
	ResourceSiteMap       ResourceType = "site_map"
	ResourceEvidence      ResourceType = "evidence"
	ResourceToolResult    ResourceType = "tool"
	ResourceRuntimeConfig ResourceType = "runtime_config"
	ResourceIntent        ResourceType = "intent"
)

// KeyBuilder constructs namespaced Redis keys.
type KeyBuilder struct {
	Prefix string
}

// Build joins the key parts, appending suffix when non-empty.
func (b KeyBuilder) Build(resType ResourceType, tenantID, siteID, resourceID, suffix string) string {
	parts := []string{b.Prefix, tenantID, siteID, string(resType), resourceID}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, ":")
}

// NPCProfile builds the cache key for a site's NPC profile.
func (b KeyBuilder) NPCProfile(tenantID, siteID, npcID string) string {
	return b.Build(ResourceNPCProfile, tenantID, siteID, npcID, "")
}

// PromptActive builds the cache key for an NPC's currently active prompt.
func (b KeyBuilder) PromptActive(tenantID, siteID, npcID string) string {
	return b.Build(ResourcePromptActive, tenantID, siteID, npcID, "active")
}

// SiteMap builds the cache key for a site's content/navigation map.
func (b KeyBuilder) SiteMap(tenantID, siteID string) string {
	return b.Build(ResourceSiteMap, tenantID, siteID, "default", "")
}

// Evidence builds the cache key for a retrieval query's result set, fingerprinted
// by the query text and sorted domain filter so identical queries share a key
// regardless of domain-slice ordering.
func (b KeyBuilder) Evidence(tenantID, siteID, query string, domains []string) string {
	sorted := append([]string(nil), domains...)
	sort.Strings(sorted)
	fingerprint := query + ":" + strings.Join(sorted, ",")
	sum := sha256.Sum256([]byte(fingerprint))
	hash := hex.EncodeToString(sum[:])[:16]
	return b.Build(ResourceEvidence, tenantID, siteID, hash, "")
}

// ToolResult builds the cache key for a tool call's result, fingerprinted by
// the tool name and its argument hash.
func (b KeyBuilder) ToolResult(tenantID, siteID, toolName, argsHash string) string {
	return b.Build(ResourceToolResult, tenantID, siteID, toolName, argsHash)
}

// RuntimeConfig builds the cache key for a (tenant,site,npc)'s resolved
// runtime config bundle.
func (b KeyBuilder) RuntimeConfig(tenantID, siteID, npcID string) string {
	return b.Build(ResourceRuntimeConfig, tenantID, siteID, npcID, "")
}

// Intent builds the cache key for a classified intent result, fingerprinted
// by the input text hash.
func (b KeyBuilder) Intent(tenantID, siteID, textHash string) string {
	return b.Build(ResourceIntent, tenantID, siteID, textHash, "")
}

// TTLFor returns the configured TTL in seconds for a resource type.
func (c *Client) TTLFor(resType ResourceType) int64 {
	switch resType {
	case ResourceNPCProfile:
		return c.ttl.NPCProfile
	case ResourcePromptActive:
		return c.ttl.PromptActive
	case ResourceSiteMap:
		return c.ttl.SiteMap
	case ResourceEvidence:
		return c.ttl.Evidence
	case ResourceToolResult:
		return c.ttl.ToolResult
	case ResourceRuntimeConfig:
		return c.ttl.RuntimeConfig
	case ResourceIntent:
		return c.ttl.IntentCache
	default:
		return 60
	}
}
