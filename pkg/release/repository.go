// Package release implements the release and experiment control plane:
// atomic release activation with previous-active archival, release
// integrity validation, and deterministic A/B bucketing.
package release

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Repository is the storage layer for releases, release history, experiments,
// and experiment assignments.
type Repository struct {
	db *sql.DB
}

// NewRepository builds a Repository over an already-connected database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const releaseColumns = `id, tenant_id, site_id, name, status, payload, created_by,
	created_at, activated_at, archived_at`

func scanRelease(row *sql.Row) (*models.Release, error) {
	var r models.Release
	var payloadRaw []byte
	if err := row.Scan(&r.ID, &r.TenantID, &r.SiteID, &r.Name, &r.Status, &payloadRaw,
		&r.CreatedBy, &r.CreatedAt, &r.ActivatedAt, &r.ArchivedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadRaw, &r.Payload); err != nil {
		return nil, fmt.Errorf("decode release payload: %w", err)
	}
	return &r, nil
}

func scanReleaseFromRows(rows *sql.Rows) (*models.Release, error) {
	var r models.Release
	var payloadRaw []byte
	if err := rows.Scan(&r.ID, &r.TenantID, &r.SiteID, &r.Name, &r.Status, &payloadRaw,
		&r.CreatedBy, &r.CreatedAt, &r.ActivatedAt, &r.ArchivedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadRaw, &r.Payload); err != nil {
		return nil, fmt.Errorf("decode release payload: %w", err)
	}
	return &r, nil
}

// GetByID fetches one release by id, tenant/site scoped.
func (r *Repository) GetByID(ctx context.Context, tenantID, siteID, id string) (*models.Release, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE tenant_id = $1 AND site_id = $2 AND id = $3`,
		tenantID, siteID, id)
	rel, err := scanRelease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("release", id)
		}
		return nil, fmt.Errorf("get release: %w", err)
	}
	return rel, nil
}

// GetActive returns the single active release for (tenant,site), or nil with
// no error if there is none — callers fall back to "active policy, no
// experiment" per spec.md §4.1 step 2.
func (r *Repository) GetActive(ctx context.Context, tenantID, siteID string) (*models.Release, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE tenant_id = $1 AND site_id = $2 AND status = 'active'`,
		tenantID, siteID)
	rel, err := scanRelease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active release: %w", err)
	}
	return rel, nil
}

// List returns every release for (tenant,site), most recent first.
func (r *Repository) List(ctx context.Context, tenantID, siteID string) ([]*models.Release, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE tenant_id = $1 AND site_id = $2 ORDER BY created_at DESC`,
		tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer rows.Close()

	var out []*models.Release
	for rows.Next() {
		rel, err := scanReleaseFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan release row: %w", err)
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// Create inserts a new release in draft status.
func (r *Repository) Create(ctx context.Context, tenantID, siteID, name string, payload models.ReleasePayload, createdBy string) (*models.Release, error) {
	payloadRaw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode release payload: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO releases (id, tenant_id, site_id, name, status, payload, created_by)
		 VALUES ($1,$2,$3,$4,'draft',$5,$6)`,
		id, tenantID, siteID, name, payloadRaw, createdBy)
	if err != nil {
		return nil, fmt.Errorf("insert release: %w", err)
	}
	return &models.Release{
		ID: id, TenantID: tenantID, SiteID: siteID, Name: name,
		Status: models.ReleaseStatusDraft, Payload: payload, CreatedBy: createdBy,
	}, nil
}

// activateTx archives the current active release (if any) and activates
// target within tx, appending a ReleaseHistory row. Shared by Activate and
// Rollback, whose only difference is the history action recorded.
func (r *Repository) activateTx(ctx context.Context, tx *sql.Tx, tenantID, siteID, targetID, operator string, action models.ReleaseHistoryAction) error {
	var previousID sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM releases WHERE tenant_id = $1 AND site_id = $2 AND status = 'active' FOR UPDATE`,
		tenantID, siteID).Scan(&previousID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock active release: %w", err)
	}

	if previousID.Valid && previousID.String != targetID {
		if _, err := tx.ExecContext(ctx,
			`UPDATE releases SET status = 'archived', archived_at = now() WHERE id = $1`,
			previousID.String); err != nil {
			return fmt.Errorf("archive previous release: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE releases SET status = 'active', activated_at = now(), archived_at = NULL
		 WHERE id = $1 AND tenant_id = $2 AND site_id = $3`,
		targetID, tenantID, siteID)
	if err != nil {
		return fmt.Errorf("activate release: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check activate rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("release", targetID)
	}

	hist := models.ReleaseHistory{
		ID: uuid.NewString(), ReleaseID: targetID, TenantID: tenantID, SiteID: siteID,
		Action: action, Operator: operator,
	}
	if previousID.Valid {
		hist.PreviousReleaseID = previousID.String
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO release_history (id, release_id, tenant_id, site_id, action, previous_release_id, operator)
		 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7)`,
		hist.ID, hist.ReleaseID, hist.TenantID, hist.SiteID, hist.Action, hist.PreviousReleaseID, hist.Operator); err != nil {
		return fmt.Errorf("insert release history: %w", err)
	}
	return nil
}

// Activate atomically archives the previous active release (if any) and
// activates targetID, row-locking the previous active release so concurrent
// Activate calls on the same (tenant,site) serialize (spec.md §5: "Release
// activation is serialised per (tenant,site)... linearised by a row-level
// lock").
func (r *Repository) Activate(ctx context.Context, tenantID, siteID, targetID, operator string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.activateTx(ctx, tx, tenantID, siteID, targetID, operator, models.ReleaseActionActivate); err != nil {
		return err
	}
	return tx.Commit()
}

// Rollback re-activates targetID the same way Activate does, recording the
// history action as "rollback" instead of "activate". Integrity
// re-validation is the caller's responsibility (Service.Rollback).
func (r *Repository) Rollback(ctx context.Context, tenantID, siteID, targetID, operator string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.activateTx(ctx, tx, tenantID, siteID, targetID, operator, models.ReleaseActionRollback); err != nil {
		return err
	}
	return tx.Commit()
}
