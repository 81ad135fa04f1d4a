package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// SilenceRepository manages alert silence windows (spec.md §4.7: "silence
// rules suppress notification for matching alerts within a time window").
type SilenceRepository struct {
	db *sql.DB
}

// NewSilenceRepository builds a SilenceRepository over an already-connected
// database.
func NewSilenceRepository(db *sql.DB) *SilenceRepository {
	return &SilenceRepository{db: db}
}

func scanSilence(rows *sql.Rows) (*models.AlertSilence, error) {
	var s models.AlertSilence
	var siteID, alertCode, severity sql.NullString
	if err := rows.Scan(&s.ID, &s.TenantID, &siteID, &alertCode, &severity, &s.StartsAt, &s.EndsAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Matcher = models.AlertSilenceMatcher{
		SiteID:    siteID.String,
		AlertCode: alertCode.String,
		Severity:  models.AlertSeverity(severity.String),
	}
	return &s, nil
}

// Create inserts a new silence window.
func (r *SilenceRepository) Create(ctx context.Context, s *models.AlertSilence) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO alert_silences (id, tenant_id, site_id, alert_code, severity, starts_at, ends_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.TenantID, nullableString(s.Matcher.SiteID), nullableString(s.Matcher.AlertCode),
		nullableString(string(s.Matcher.Severity)), s.StartsAt, s.EndsAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert silence: %w", err)
	}
	return nil
}

// List returns every silence window for a tenant, most recent first.
func (r *SilenceRepository) List(ctx context.Context, tenantID string) ([]*models.AlertSilence, error) {
	query := `SELECT id, tenant_id, site_id, alert_code, severity, starts_at, ends_at, created_at
		FROM alert_silences WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list alert silences: %w", err)
	}
	defer rows.Close()

	var out []*models.AlertSilence
	for rows.Next() {
		s, err := scanSilence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert silence row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert silence rows: %w", err)
	}
	return out, nil
}

// ActiveForTenant returns the silence windows covering `at`, used by the
// evaluator to suppress notification without a per-rule query.
func (r *SilenceRepository) ActiveForTenant(ctx context.Context, tenantID string, at time.Time) ([]*models.AlertSilence, error) {
	query := `SELECT id, tenant_id, site_id, alert_code, severity, starts_at, ends_at, created_at
		FROM alert_silences WHERE tenant_id = $1 AND starts_at <= $2 AND ends_at > $2`
	rows, err := r.db.QueryContext(ctx, query, tenantID, at)
	if err != nil {
		return nil, fmt.Errorf("list active alert silences: %w", err)
	}
	defer rows.Close()

	var out []*models.AlertSilence
	for rows.Next() {
		s, err := scanSilence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert silence row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert silence rows: %w", err)
	}
	return out, nil
}

// Delete removes a silence window, scoped to its owning tenant.
func (r *SilenceRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alert_silences WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete alert silence: %w", err)
	}
	return checkRowsAffected(res, "alert_silence", id)
}
