// Package tenant resolves and validates the tenant/site scope that every
// business record and every cross-package call carries. No business query
// anywhere in this module runs without a validated (tenant_id, site_id)
// pair.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// Scope is a validated tenant/site pair, the unit every repository call is
// parameterized on.
type Scope struct {
	TenantID string
	SiteID   string
}

// Site describes one row of the sites table.
type Site struct {
	TenantID string
	SiteID   string
	Name     string
}

// Resolver validates that a site belongs to the tenant claimed for it,
// backed by the tenants/sites tables — the database, not the static YAML
// config, is the source of truth for which (tenant,site) pairs currently
// exist, since sites can be provisioned without a binary restart.
type Resolver struct {
	db *sql.DB
}

// NewResolver builds a Resolver over an already-connected database.
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve validates that siteID belongs to tenantID and returns the scope.
// Returns a not_found classified error if the pair doesn't exist, enforcing
// "no cross-tenant reads" at the boundary every handler and tool call
// passes through.
func (r *Resolver) Resolve(ctx context.Context, tenantID, siteID string) (Scope, error) {
	if tenantID == "" || siteID == "" {
		return Scope{}, apperr.New(apperr.CategoryValidation, "tenant_id and site_id are both required")
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sites WHERE tenant_id = $1 AND id = $2)`,
		tenantID, siteID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scope{}, apperr.NotFound("site", siteID)
		}
		return Scope{}, fmt.Errorf("resolve tenant scope: %w", err)
	}
	if !exists {
		return Scope{}, apperr.NotFound("site", siteID)
	}

	return Scope{TenantID: tenantID, SiteID: siteID}, nil
}

// GetSite returns the full site row for a validated scope.
func (r *Resolver) GetSite(ctx context.Context, tenantID, siteID string) (*Site, error) {
	var s Site
	err := r.db.QueryRowContext(ctx,
		`SELECT tenant_id, id, name FROM sites WHERE tenant_id = $1 AND id = $2`,
		tenantID, siteID,
	).Scan(&s.TenantID, &s.SiteID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("site", siteID)
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &s, nil
}

// ListSites returns every site owned by tenantID.
func (r *Resolver) ListSites(ctx context.Context, tenantID string) ([]Site, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tenant_id, id, name FROM sites WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.TenantID, &s.SiteID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan site row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
