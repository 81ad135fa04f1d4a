package models

import "time"

// EvidenceSourceType enumerates where a citable unit of evidence came from.
type EvidenceSourceType string

const (
	EvidenceSourceKnowledgeBase EvidenceSourceType = "knowledge_base"
	EvidenceSourceDocument      EvidenceSourceType = "document"
	EvidenceSourceOralHistory   EvidenceSourceType = "oral_history"
	EvidenceSourceArchive       EvidenceSourceType = "archive"
	EvidenceSourceGenealogy     EvidenceSourceType = "genealogy"
	EvidenceSourceInscription   EvidenceSourceType = "inscription"
	EvidenceSourceArtifact      EvidenceSourceType = "artifact"
	EvidenceSourceExternalAPI   EvidenceSourceType = "external_api"
	EvidenceSourceUserInput     EvidenceSourceType = "user_input"
	EvidenceSourceAIGenerated   EvidenceSourceType = "ai_generated"
)

// Evidence is a content-addressed citable unit. Immutable body after
// creation; Verified and the vector_* fields are the only mutable fields.
type Evidence struct {
	ID              string             `json:"id"`
	TenantID        string             `json:"tenant_id"`
	SiteID          string             `json:"site_id"`
	SourceType      EvidenceSourceType `json:"source_type"`
	SourceRef       string             `json:"source_ref"`
	Title           string             `json:"title"`
	Excerpt         string             `json:"excerpt"`
	Confidence      float64            `json:"confidence"`
	Verified        bool               `json:"verified"`
	Tags            []string           `json:"tags"`
	Domains         []string           `json:"domains"`
	VectorUpdatedAt *time.Time         `json:"vector_updated_at,omitempty"`
	VectorHash      string             `json:"vector_hash,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Citation is the shape returned from retrieval and survives into the
// prompt only if it passes the Evidence Gate (spec.md §4.1 steps 5-7).
type Citation struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Verified   bool    `json:"verified"`
}

// ToChainItem renders an Evidence row as a Citation, truncating the excerpt
// the way the source's Evidence.to_chain_item() does (200 chars).
func (e *Evidence) ToChainItem(score float64) Citation {
	excerpt := e.Excerpt
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return Citation{
		ID:         e.ID,
		Title:      e.Title,
		Excerpt:    excerpt,
		Score:      score,
		Confidence: e.Confidence,
		Verified:   e.Verified,
	}
}

// ContentStatus enumerates the editorial lifecycle of Content.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusReview    ContentStatus = "review"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusOffline   ContentStatus = "offline"
)

// Content is an editorial item with full-text search columns and a
// credibility score.
type Content struct {
	ID               string        `json:"id"`
	TenantID         string        `json:"tenant_id"`
	SiteID           string        `json:"site_id"`
	Title            string        `json:"title"`
	Body             string        `json:"body"`
	ContentType      string        `json:"content_type"`
	Tags             []string      `json:"tags"`
	Status           ContentStatus `json:"status"`
	CredibilityScore float64       `json:"credibility_score"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
