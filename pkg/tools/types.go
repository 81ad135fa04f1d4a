package tools

import "github.com/codeready-toolchain/npcorchestrator/pkg/models"

// GetNPCProfileInput is the input of the get_npc_profile tool.
type GetNPCProfileInput struct {
	NPCID string `json:"npc_id" validate:"required"`
}

// GetNPCProfileOutput is the output of the get_npc_profile tool.
type GetNPCProfileOutput struct {
	Profile *models.NPCProfile `json:"profile"`
}

// GetPromptActiveInput is the input of the get_prompt_active tool.
type GetPromptActiveInput struct {
	NPCID string `json:"npc_id" validate:"required"`
}

// GetPromptActiveOutput is the output of the get_prompt_active tool.
type GetPromptActiveOutput struct {
	Prompt *models.NPCPrompt `json:"prompt"`
}

// GetSiteMapInput is the input of the get_site_map tool.
type GetSiteMapInput struct{}

// SiteMapEntry is one point-of-interest or route on the site map.
type SiteMapEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// GetSiteMapOutput is the output of the get_site_map tool.
type GetSiteMapOutput struct {
	Entries []SiteMapEntry `json:"entries"`
}

// SearchContentInput is the input of the search_content tool.
type SearchContentInput struct {
	Query       string   `json:"query" validate:"required"`
	ContentType string   `json:"content_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// SearchContentOutput is the output of the search_content tool.
type SearchContentOutput struct {
	Items []models.Content `json:"items"`
}

// RetrieveEvidenceInput is the input of the retrieve_evidence tool.
type RetrieveEvidenceInput struct {
	Query    string   `json:"query" validate:"required"`
	Domains  []string `json:"domains,omitempty"`
	TopK     int      `json:"top_k" validate:"required,min=1"`
	MinScore float64  `json:"min_score"`
}

// RetrieveEvidenceOutput is the output of the retrieve_evidence tool.
type RetrieveEvidenceOutput struct {
	Citations []models.Citation `json:"citations"`
}

// CreateDraftContentInput is the input of the create_draft_content tool.
type CreateDraftContentInput struct {
	Title       string   `json:"title" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	ContentType string   `json:"content_type" validate:"required"`
	Tags        []string `json:"tags,omitempty"`
}

// CreateDraftContentOutput is the output of the create_draft_content tool.
type CreateDraftContentOutput struct {
	ContentID string `json:"content_id"`
}

// LogUserEventInput is the input of the log_user_event tool.
type LogUserEventInput struct {
	EventType string         `json:"event_type" validate:"required"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// LogUserEventOutput is the output of the log_user_event tool.
type LogUserEventOutput struct {
	Recorded bool `json:"recorded"`
}
