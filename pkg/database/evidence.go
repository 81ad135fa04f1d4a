package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// EvidenceRepository stores the citable knowledge base rows trigram and
// hybrid retrieval strategies search over.
type EvidenceRepository struct {
	db *sql.DB
}

// NewEvidenceRepository builds an EvidenceRepository over an already-connected database.
func NewEvidenceRepository(db *sql.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

const evidenceColumns = `id, tenant_id, site_id, source_type, source_ref, title, excerpt,
	confidence, verified, tags, domains, vector_updated_at, vector_hash, created_at`

func scanEvidence(rows *sql.Rows) (*models.Evidence, error) {
	var e models.Evidence
	if err := rows.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.SourceType, &e.SourceRef, &e.Title,
		&e.Excerpt, &e.Confidence, &e.Verified, pq.Array(&e.Tags), pq.Array(&e.Domains),
		&e.VectorUpdatedAt, &e.VectorHash, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// SearchTrigram ranks evidence rows by trigram similarity of query against
// title||excerpt, optionally restricted to domains, returning at most topK.
func (r *EvidenceRepository) SearchTrigram(ctx context.Context, tenantID, siteID, query string, domains []string, topK int) ([]*models.Evidence, []float64, error) {
	args := []any{tenantID, siteID, query}
	domainFilter := ""
	if len(domains) > 0 {
		domainFilter = " AND domains && $4"
		args = append(args, pq.Array(domains))
	}
	args = append(args, topK)
	limitParam := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`SELECT %s, similarity(title || ' ' || excerpt, $3) AS score
		FROM evidence
		WHERE tenant_id = $1 AND site_id = $2%s
		ORDER BY score DESC
		LIMIT %s`, evidenceColumns, domainFilter, limitParam)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("search evidence by trigram: %w", err)
	}
	defer rows.Close()

	var out []*models.Evidence
	var scores []float64
	for rows.Next() {
		var e models.Evidence
		var score float64
		if err := rows.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.SourceType, &e.SourceRef, &e.Title,
			&e.Excerpt, &e.Confidence, &e.Verified, pq.Array(&e.Tags), pq.Array(&e.Domains),
			&e.VectorUpdatedAt, &e.VectorHash, &e.CreatedAt, &score); err != nil {
			return nil, nil, fmt.Errorf("scan evidence row: %w", err)
		}
		out = append(out, &e)
		scores = append(scores, score)
	}
	return out, scores, rows.Err()
}

// GetByID fetches a single evidence row, tenant/site scoped.
func (r *EvidenceRepository) GetByID(ctx context.Context, tenantID, siteID, id string) (*models.Evidence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE tenant_id = $1 AND site_id = $2 AND id = $3`,
		tenantID, siteID, id)
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, apperr.NotFound("evidence", id)
	}
	return scanEvidence(rows)
}

// ContentRepository is the storage-backed implementation of pkg/tools.ContentStore.
type ContentRepository struct {
	db *sql.DB
}

// NewContentRepository builds a ContentRepository over an already-connected database.
func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Search finds published content by keyword, optional type, and optional tags.
func (r *ContentRepository) Search(ctx context.Context, tenantID, siteID string, in tools.SearchContentInput) ([]models.Content, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}

	var b strings.Builder
	b.WriteString(`SELECT id, tenant_id, site_id, title, body, content_type, tags, status,
		credibility_score, created_at, updated_at
		FROM content
		WHERE tenant_id = $1 AND site_id = $2 AND status = 'published'
		AND search_vector @@ plainto_tsquery($3)`)
	args := []any{tenantID, siteID, in.Query}

	if in.ContentType != "" {
		args = append(args, in.ContentType)
		fmt.Fprintf(&b, " AND content_type = $%d", len(args))
	}
	if len(in.Tags) > 0 {
		args = append(args, pq.Array(in.Tags))
		fmt.Fprintf(&b, " AND tags && $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " ORDER BY ts_rank(search_vector, plainto_tsquery($3)) DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	defer rows.Close()

	var out []models.Content
	for rows.Next() {
		var c models.Content
		if err := rows.Scan(&c.ID, &c.TenantID, &c.SiteID, &c.Title, &c.Body, &c.ContentType,
			pq.Array(&c.Tags), &c.Status, &c.CredibilityScore, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateDraft inserts a new draft content row and returns its id.
func (r *ContentRepository) CreateDraft(ctx context.Context, tenantID, siteID string, in tools.CreateDraftContentInput) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content (id, tenant_id, site_id, title, body, content_type, tags, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,'draft')`,
		id, tenantID, siteID, in.Title, in.Body, in.ContentType, pq.Array(in.Tags))
	if err != nil {
		return "", fmt.Errorf("create draft content: %w", err)
	}
	return id, nil
}
