package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Repository is the source-of-truth store for Evidence-Gate policy
// versions. The active row per name is the database; Loader layers a TTL
// cache on top of it.
type Repository struct {
	db *sql.DB
}

// NewRepository builds a Repository over an already-connected database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const policyColumns = `id, tenant_id, site_id, name, version, is_active, content, created_at`

func scanPolicy(row *sql.Row) (*models.Policy, error) {
	var (
		p           models.Policy
		contentJSON []byte
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.SiteID, &p.Name, &p.Version, &p.IsActive, &contentJSON, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contentJSON, &p.Content); err != nil {
		return nil, fmt.Errorf("unmarshal policy content: %w", err)
	}
	return &p, nil
}

// GetActive returns the currently active version of the named policy.
func (r *Repository) GetActive(ctx context.Context, tenantID, siteID, name string) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM evidence_gate_policies
		WHERE tenant_id = $1 AND site_id = $2 AND name = $3 AND is_active = true`
	row := r.db.QueryRowContext(ctx, query, tenantID, siteID, name)
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("policy", name)
		}
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return p, nil
}

// ListVersions returns every version of the named policy, most recent first.
func (r *Repository) ListVersions(ctx context.Context, tenantID, siteID, name string) ([]*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM evidence_gate_policies
		WHERE tenant_id = $1 AND site_id = $2 AND name = $3 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID, name)
	if err != nil {
		return nil, fmt.Errorf("list policy versions: %w", err)
	}
	defer rows.Close()

	var out []*models.Policy
	for rows.Next() {
		var (
			p           models.Policy
			contentJSON []byte
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.SiteID, &p.Name, &p.Version, &p.IsActive, &contentJSON, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		if err := json.Unmarshal(contentJSON, &p.Content); err != nil {
			return nil, fmt.Errorf("unmarshal policy content: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy rows: %w", err)
	}
	return out, nil
}

// CreateVersion inserts a new policy version. When setActive is true, any
// currently active version of the same name is deactivated first, inside the
// same transaction, preserving the "at most one active per name" invariant.
func (r *Repository) CreateVersion(ctx context.Context, tenantID, siteID, name, version string, content models.PolicyContent, setActive bool) (*models.Policy, error) {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal policy content: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if setActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE evidence_gate_policies SET is_active = false WHERE tenant_id = $1 AND site_id = $2 AND name = $3 AND is_active = true`,
			tenantID, siteID, name,
		); err != nil {
			return nil, fmt.Errorf("deactivate previous policy: %w", err)
		}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	query := `INSERT INTO evidence_gate_policies (id, tenant_id, site_id, name, version, is_active, content, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := tx.ExecContext(ctx, query, id, tenantID, siteID, name, version, setActive, contentJSON, now); err != nil {
		return nil, fmt.Errorf("insert policy version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit policy version: %w", err)
	}

	return &models.Policy{
		ID: id, TenantID: tenantID, SiteID: siteID, Name: name, Version: version,
		IsActive: setActive, Content: content, CreatedAt: now,
	}, nil
}

// SetActiveVersion activates an existing version (used for rollback),
// deactivating the current active row of the same name first.
func (r *Repository) SetActiveVersion(ctx context.Context, tenantID, siteID, name, version string) (*models.Policy, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM evidence_gate_policies WHERE tenant_id=$1 AND site_id=$2 AND name=$3 AND version=$4`,
		tenantID, siteID, name, version,
	)
	target, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("policy version", version)
		}
		return nil, fmt.Errorf("find target policy version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE evidence_gate_policies SET is_active = false WHERE tenant_id=$1 AND site_id=$2 AND name=$3 AND is_active = true`,
		tenantID, siteID, name,
	); err != nil {
		return nil, fmt.Errorf("deactivate current policy: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE evidence_gate_policies SET is_active = true WHERE id = $1`, target.ID,
	); err != nil {
		return nil, fmt.Errorf("activate target policy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit policy activation: %w", err)
	}

	target.IsActive = true
	return target, nil
}
