package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// SiteMapRepository is the storage-backed implementation of pkg/tools.SiteMapStore.
type SiteMapRepository struct {
	db *sql.DB
}

// NewSiteMapRepository builds a SiteMapRepository over an already-connected database.
func NewSiteMapRepository(db *sql.DB) *SiteMapRepository {
	return &SiteMapRepository{db: db}
}

// GetSiteMap returns a site's points of interest and routes, ordered the way
// they were authored.
func (r *SiteMapRepository) GetSiteMap(ctx context.Context, tenantID, siteID string) ([]tools.SiteMapEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id, name, kind FROM site_map_entries
		 WHERE tenant_id = $1 AND site_id = $2 ORDER BY position, entry_id`,
		tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("get site map: %w", err)
	}
	defer rows.Close()

	var out []tools.SiteMapEntry
	for rows.Next() {
		var e tools.SiteMapEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Kind); err != nil {
			return nil, fmt.Errorf("scan site map entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
