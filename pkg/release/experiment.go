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

const experimentColumns = `id, tenant_id, site_id, name, status, config, start_at, end_at, created_at, updated_at`

func scanExperiment(row *sql.Row) (*models.Experiment, error) {
	var e models.Experiment
	var configRaw []byte
	if err := row.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.Name, &e.Status, &configRaw,
		&e.StartAt, &e.EndAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configRaw, &e.Config); err != nil {
		return nil, fmt.Errorf("decode experiment config: %w", err)
	}
	return &e, nil
}

// GetExperiment fetches one experiment by id, tenant/site scoped.
func (r *Repository) GetExperiment(ctx context.Context, tenantID, siteID, id string) (*models.Experiment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE tenant_id = $1 AND site_id = $2 AND id = $3`,
		tenantID, siteID, id)
	exp, err := scanExperiment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("experiment", id)
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return exp, nil
}

// CreateExperiment inserts a new experiment in draft status. Callers
// validate WeightSum()==100 before calling.
func (r *Repository) CreateExperiment(ctx context.Context, tenantID, siteID, name string, config models.ExperimentConfig) (*models.Experiment, error) {
	configRaw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encode experiment config: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO experiments (id, tenant_id, site_id, name, status, config) VALUES ($1,$2,$3,$4,'draft',$5)`,
		id, tenantID, siteID, name, configRaw)
	if err != nil {
		return nil, fmt.Errorf("insert experiment: %w", err)
	}
	return &models.Experiment{ID: id, TenantID: tenantID, SiteID: siteID, Name: name, Status: models.ExperimentStatusDraft, Config: config}, nil
}

// ListExperiments returns every experiment for a tenant/site, most recently
// created first.
func (r *Repository) ListExperiments(ctx context.Context, tenantID, siteID string) ([]*models.Experiment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE tenant_id = $1 AND site_id = $2 ORDER BY created_at DESC`,
		tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []*models.Experiment
	for rows.Next() {
		var e models.Experiment
		var configRaw []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.Name, &e.Status, &configRaw,
			&e.StartAt, &e.EndAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan experiment row: %w", err)
		}
		if err := json.Unmarshal(configRaw, &e.Config); err != nil {
			return nil, fmt.Errorf("decode experiment config: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiment rows: %w", err)
	}
	return out, nil
}

// GetAssignment returns the existing assignment for (experimentID,
// subjectKey), or nil with no error if none exists yet.
func (r *Repository) GetAssignment(ctx context.Context, experimentID, subjectKey string) (*models.ExperimentAssignment, error) {
	return r.scanAssignmentRow(r.db.QueryRowContext(ctx,
		`SELECT id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant,
			bucket_hash, strategy_overrides, assigned_at
		 FROM experiment_assignments WHERE experiment_id = $1 AND subject_key = $2`,
		experimentID, subjectKey))
}

func (r *Repository) scanAssignmentRow(row *sql.Row) (*models.ExperimentAssignment, error) {
	var a models.ExperimentAssignment
	var overridesRaw []byte
	err := row.Scan(&a.ID, &a.ExperimentID, &a.TenantID, &a.SiteID, &a.SubjectType, &a.SubjectKey,
		&a.Variant, &a.BucketHash, &overridesRaw, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get experiment assignment: %w", err)
	}
	if len(overridesRaw) > 0 {
		if err := json.Unmarshal(overridesRaw, &a.StrategyOverrides); err != nil {
			return nil, fmt.Errorf("decode strategy overrides: %w", err)
		}
	}
	return &a, nil
}

// InsertAssignmentIfAbsent persists a, doing nothing if a row already exists
// for (experiment_id, subject_key) — the unique constraint makes this
// idempotent under concurrent first-assignment races (spec.md §5: "INSERT
// ... ON CONFLICT DO NOTHING followed by a re-read"). Returns the row that
// is now current, which may belong to a concurrent winner rather than a.
func (r *Repository) InsertAssignmentIfAbsent(ctx context.Context, a *models.ExperimentAssignment) (*models.ExperimentAssignment, error) {
	overridesRaw, err := json.Marshal(a.StrategyOverrides)
	if err != nil {
		return nil, fmt.Errorf("encode strategy overrides: %w", err)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO experiment_assignments
			(id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant, bucket_hash, strategy_overrides)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (experiment_id, subject_key) DO NOTHING`,
		a.ID, a.ExperimentID, a.TenantID, a.SiteID, a.SubjectType, a.SubjectKey, a.Variant, a.BucketHash, overridesRaw)
	if err != nil {
		return nil, fmt.Errorf("insert experiment assignment: %w", err)
	}

	existing, err := r.GetAssignment(ctx, a.ExperimentID, a.SubjectKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("experiment assignment vanished after insert for subject %q", a.SubjectKey)
	}
	return existing, nil
}
