package release

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestService_Assign_IdempotentAcrossRepeatedCalls(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	svc := NewService(repo, nil, nil, nil)

	exp := &models.Experiment{
		ID: "exp-1", TenantID: "t1", SiteID: "s1",
		Config: models.ExperimentConfig{
			SubjectType: models.SubjectTypeSessionID,
			Variants: []models.ExperimentVariant{
				{Name: "A", Weight: 50},
				{Name: "B", Weight: 50},
			},
		},
	}

	assignmentCols := []string{"id", "experiment_id", "tenant_id", "site_id", "subject_type",
		"subject_key", "variant", "bucket_hash", "strategy_overrides", "assigned_at"}

	// First call: no existing assignment, insert succeeds, re-read finds it.
	mock.ExpectQuery(`SELECT id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant,\s*bucket_hash, strategy_overrides, assigned_at\s*FROM experiment_assignments`).
		WithArgs("exp-1", "session-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols))
	mock.ExpectExec(`INSERT INTO experiment_assignments`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant,\s*bucket_hash, strategy_overrides, assigned_at\s*FROM experiment_assignments`).
		WithArgs("exp-1", "session-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(
			"a1", "exp-1", "t1", "s1", "session_id", "session-1", "A", 10, []byte(`{}`), nowPlaceholder()))

	first, err := svc.Assign(context.Background(), exp, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "A", first.Variant)

	// Second call: existing assignment found immediately, no insert.
	mock.ExpectQuery(`SELECT id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant,\s*bucket_hash, strategy_overrides, assigned_at\s*FROM experiment_assignments`).
		WithArgs("exp-1", "session-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(
			"a1", "exp-1", "t1", "s1", "session_id", "session-1", "A", 10, []byte(`{}`), nowPlaceholder()))

	second, err := svc.Assign(context.Background(), exp, "session-1")
	require.NoError(t, err)
	assert.Equal(t, first.Variant, second.Variant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Assign_RejectsMisconfiguredWeights(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	svc := NewService(repo, nil, nil, nil)

	exp := &models.Experiment{
		ID: "exp-bad", TenantID: "t1", SiteID: "s1",
		Config: models.ExperimentConfig{
			Variants: []models.ExperimentVariant{{Name: "A", Weight: 60}, {Name: "B", Weight: 60}},
		},
	}

	assignmentCols := []string{"id", "experiment_id", "tenant_id", "site_id", "subject_type",
		"subject_key", "variant", "bucket_hash", "strategy_overrides", "assigned_at"}
	mock.ExpectQuery(`SELECT id, experiment_id, tenant_id, site_id, subject_type, subject_key, variant,\s*bucket_hash, strategy_overrides, assigned_at\s*FROM experiment_assignments`).
		WithArgs("exp-bad", "session-2").
		WillReturnRows(sqlmock.NewRows(assignmentCols))

	_, err = svc.Assign(context.Background(), exp, "session-2")
	require.Error(t, err)
}

func nowPlaceholder() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}
