// Package models contains the business domain types persisted by this
// service: NPC personas and prompts, evidence and content, policy, release
// and experiment bundles, the trace ledger, conversations, feedback, alerts,
// and embedding usage audit rows (spec.md §3).
package models

import "time"

// NPCProfile is a versioned persona. Invariant: at most one active row per
// (tenant,site,npc_id).
type NPCProfile struct {
	ID                string         `json:"id"`
	TenantID          string         `json:"tenant_id"`
	SiteID            string         `json:"site_id"`
	NPCID             string         `json:"npc_id"`
	Version           int            `json:"version"`
	Active            bool           `json:"active"`
	Persona           map[string]any `json:"persona"`
	KnowledgeDomains  []string       `json:"knowledge_domains"`
	ForbiddenTopics   []string       `json:"forbidden_topics"`
	GreetingTemplates []string       `json:"greeting_templates"`
	FallbackResponses []string       `json:"fallback_responses"`
	MustCiteSources   bool           `json:"must_cite_sources"`
	CreatedAt         time.Time      `json:"created_at"`
}

// FirstFallback returns the first fallback response for reproducible
// template selection (spec.md §9 Open Questions: first-index selection).
func (p *NPCProfile) FirstFallback() string {
	if len(p.FallbackResponses) == 0 {
		return ""
	}
	return p.FallbackResponses[0]
}

// FirstGreeting returns the first greeting template for reproducible
// template selection.
func (p *NPCProfile) FirstGreeting() string {
	if len(p.GreetingTemplates) == 0 {
		return ""
	}
	return p.GreetingTemplates[0]
}

// NPCPrompt is a versioned prompt asset. Same uniqueness invariant as NPCProfile.
type NPCPrompt struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	SiteID    string         `json:"site_id"`
	NPCID     string         `json:"npc_id"`
	Version   int            `json:"version"`
	Active    bool           `json:"active"`
	Content   string         `json:"content"`
	Meta      map[string]any `json:"meta"`
	Policy    map[string]any `json:"policy"`
	CreatedAt time.Time      `json:"created_at"`
}
