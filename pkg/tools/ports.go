package tools

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// NPCStore is the read-side port onto NPC profiles and prompts, implemented
// by pkg/database.
type NPCStore interface {
	GetActiveProfile(ctx context.Context, tenantID, siteID, npcID string) (*models.NPCProfile, error)
	GetActivePrompt(ctx context.Context, tenantID, siteID, npcID string) (*models.NPCPrompt, error)
}

// SiteMapStore is the port onto a site's points of interest and routes.
type SiteMapStore interface {
	GetSiteMap(ctx context.Context, tenantID, siteID string) ([]SiteMapEntry, error)
}

// ContentStore is the port onto editorial content.
type ContentStore interface {
	Search(ctx context.Context, tenantID, siteID string, in SearchContentInput) ([]models.Content, error)
	CreateDraft(ctx context.Context, tenantID, siteID string, in CreateDraftContentInput) (string, error)
}

// EvidenceRetriever is the port onto the retrieval provider (pkg/retrieval).
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, tenantID, siteID string, in RetrieveEvidenceInput) ([]models.Citation, error)
}

// EventLogger is the port onto the analytics event sink.
type EventLogger interface {
	LogEvent(ctx context.Context, tenantID, siteID string, in LogUserEventInput) error
}
