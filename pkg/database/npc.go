package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// NPCRepository is the storage-backed implementation of pkg/tools.NPCStore
// and the admin-facing persona/prompt CRUD surface.
type NPCRepository struct {
	db *sql.DB
}

// NewNPCRepository builds an NPCRepository over an already-connected database.
func NewNPCRepository(db *sql.DB) *NPCRepository {
	return &NPCRepository{db: db}
}

const npcProfileColumns = `id, tenant_id, site_id, npc_id, version, active, persona,
	knowledge_domains, forbidden_topics, greeting_templates, fallback_responses,
	must_cite_sources, created_at`

func scanNPCProfile(row *sql.Row) (*models.NPCProfile, error) {
	var p models.NPCProfile
	var personaRaw, greetingRaw, fallbackRaw []byte
	err := row.Scan(&p.ID, &p.TenantID, &p.SiteID, &p.NPCID, &p.Version, &p.Active,
		&personaRaw, pq.Array(&p.KnowledgeDomains), pq.Array(&p.ForbiddenTopics),
		&greetingRaw, &fallbackRaw, &p.MustCiteSources, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(personaRaw, &p.Persona); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}
	if err := json.Unmarshal(greetingRaw, &p.GreetingTemplates); err != nil {
		return nil, fmt.Errorf("decode greeting templates: %w", err)
	}
	if err := json.Unmarshal(fallbackRaw, &p.FallbackResponses); err != nil {
		return nil, fmt.Errorf("decode fallback responses: %w", err)
	}
	return &p, nil
}

// GetActiveProfile returns the single active persona row for npcID, or a
// not_found error if none exists.
func (r *NPCRepository) GetActiveProfile(ctx context.Context, tenantID, siteID, npcID string) (*models.NPCProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+npcProfileColumns+` FROM npc_profiles
		 WHERE tenant_id = $1 AND site_id = $2 AND npc_id = $3 AND active`,
		tenantID, siteID, npcID)
	p, err := scanNPCProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("npc_profile", npcID)
		}
		return nil, fmt.Errorf("get active npc profile: %w", err)
	}
	return p, nil
}

// CreateProfileVersion inserts a new persona version, optionally deactivating
// the current active version and activating this one in the same transaction.
func (r *NPCRepository) CreateProfileVersion(ctx context.Context, p *models.NPCProfile, setActive bool) (*models.NPCProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if setActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE npc_profiles SET active = false WHERE tenant_id = $1 AND site_id = $2 AND npc_id = $3 AND active`,
			p.TenantID, p.SiteID, p.NPCID); err != nil {
			return nil, fmt.Errorf("deactivate current profile: %w", err)
		}
	}

	persona, err := json.Marshal(p.Persona)
	if err != nil {
		return nil, fmt.Errorf("encode persona: %w", err)
	}
	greeting, err := json.Marshal(p.GreetingTemplates)
	if err != nil {
		return nil, fmt.Errorf("encode greeting templates: %w", err)
	}
	fallback, err := json.Marshal(p.FallbackResponses)
	if err != nil {
		return nil, fmt.Errorf("encode fallback responses: %w", err)
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO npc_profiles (id, tenant_id, site_id, npc_id, version, active, persona,
			knowledge_domains, forbidden_topics, greeting_templates, fallback_responses, must_cite_sources)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		id, p.TenantID, p.SiteID, p.NPCID, p.Version, setActive, persona,
		pq.Array(p.KnowledgeDomains), pq.Array(p.ForbiddenTopics), greeting, fallback, p.MustCiteSources)
	if err != nil {
		return nil, fmt.Errorf("insert npc profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	p.ID = id
	p.Active = setActive
	return p, nil
}

const npcPromptColumns = `id, tenant_id, site_id, npc_id, version, active, content, meta, policy, created_at`

func scanNPCPrompt(row *sql.Row) (*models.NPCPrompt, error) {
	var p models.NPCPrompt
	var metaRaw, policyRaw []byte
	err := row.Scan(&p.ID, &p.TenantID, &p.SiteID, &p.NPCID, &p.Version, &p.Active,
		&p.Content, &metaRaw, &policyRaw, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaRaw, &p.Meta); err != nil {
		return nil, fmt.Errorf("decode prompt meta: %w", err)
	}
	if err := json.Unmarshal(policyRaw, &p.Policy); err != nil {
		return nil, fmt.Errorf("decode prompt policy: %w", err)
	}
	return &p, nil
}

// GetActivePrompt returns the single active prompt row for npcID.
func (r *NPCRepository) GetActivePrompt(ctx context.Context, tenantID, siteID, npcID string) (*models.NPCPrompt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+npcPromptColumns+` FROM npc_prompts
		 WHERE tenant_id = $1 AND site_id = $2 AND npc_id = $3 AND active`,
		tenantID, siteID, npcID)
	p, err := scanNPCPrompt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("npc_prompt", npcID)
		}
		return nil, fmt.Errorf("get active npc prompt: %w", err)
	}
	return p, nil
}

// CreatePromptVersion inserts a new prompt version, same activation semantics
// as CreateProfileVersion.
func (r *NPCRepository) CreatePromptVersion(ctx context.Context, p *models.NPCPrompt, setActive bool) (*models.NPCPrompt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if setActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE npc_prompts SET active = false WHERE tenant_id = $1 AND site_id = $2 AND npc_id = $3 AND active`,
			p.TenantID, p.SiteID, p.NPCID); err != nil {
			return nil, fmt.Errorf("deactivate current prompt: %w", err)
		}
	}

	meta, err := json.Marshal(p.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode prompt meta: %w", err)
	}
	policy, err := json.Marshal(p.Policy)
	if err != nil {
		return nil, fmt.Errorf("encode prompt policy: %w", err)
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO npc_prompts (id, tenant_id, site_id, npc_id, version, active, content, meta, policy)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		id, p.TenantID, p.SiteID, p.NPCID, p.Version, setActive, p.Content, meta, policy)
	if err != nil {
		return nil, fmt.Errorf("insert npc prompt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	p.ID = id
	p.Active = setActive
	return p, nil
}

// PromptVersionExists reports whether the given (npc_id, version) pair has
// ever been created, regardless of whether it is the active version —
// satisfies pkg/release's PromptVersionChecker for release payload
// integrity validation.
func (r *NPCRepository) PromptVersionExists(ctx context.Context, tenantID, siteID, npcID string, version int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM npc_prompts WHERE tenant_id = $1 AND site_id = $2 AND npc_id = $3 AND version = $4)`,
		tenantID, siteID, npcID, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prompt version exists: %w", err)
	}
	return exists, nil
}
