package alerts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

type fakeMetricSource struct {
	value float64
	err   error
}

func (f *fakeMetricSource) Evaluate(ctx context.Context, tenantID, siteID string, rule models.AlertRule) (float64, error) {
	return f.value, f.err
}

type fakeNotifier struct {
	calls []*models.AlertEvent
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, event *models.AlertEvent) error {
	f.calls = append(f.calls, event)
	return f.err
}

func TestCompare(t *testing.T) {
	assert.True(t, compare(5, models.AlertConditionGT, 3))
	assert.False(t, compare(2, models.AlertConditionGT, 3))
	assert.True(t, compare(2, models.AlertConditionLE, 2))
	assert.True(t, compare(1, models.AlertConditionLT, 2))
	assert.False(t, compare(1, models.AlertConditionGE, 2))
}

func TestDedupKey_StableAndDistinct(t *testing.T) {
	a := dedupKey("t1", "s1", "turn_failure_rate")
	b := dedupKey("t1", "s1", "turn_failure_rate")
	c := dedupKey("t1", "s2", "turn_failure_rate")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEvaluator_Run_NewlyFiringHighSeverityNotifies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	silences := NewSilenceRepository(db)
	metrics := &fakeMetricSource{value: 0.9}
	notifier := &fakeNotifier{}
	eval := NewEvaluator(repo, silences, metrics, notifier)

	rule := models.AlertRule{Code: "turn-failures", Severity: models.AlertSeverityHigh, Window: "5m",
		Expr: ExprTurnFailureRate, Threshold: 0.5, Condition: models.AlertConditionGT}
	site := Site{TenantID: "t1", SiteID: "s1"}

	// Lease acquisition issues its own connection/lock query; mock loosely.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`pg_try_advisory_lock`).WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(`SELECT .* FROM alert_events WHERE tenant_id = \$1 AND site_id = \$2 AND dedup_key = \$3 AND status = \$4`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO alert_events`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT .* FROM alert_silences WHERE tenant_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "site_id", "alert_code", "severity", "starts_at", "ends_at", "created_at"}))
	mock.ExpectExec(`UPDATE alert_events SET webhook_sent`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`pg_advisory_unlock`).WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))
	mock.ExpectQuery(`SELECT .* FROM alert_events WHERE tenant_id = \$1 AND site_id = \$2 AND status = \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "site_id", "dedup_key", "alert_code", "severity", "status",
			"first_seen_at", "last_seen_at", "resolved_at", "context", "webhook_sent", "webhook_sent_at"}))

	eval.Run(context.Background(), []Site{site}, []models.AlertRule{rule})

	assert.Len(t, notifier.calls, 1)
}

func TestEvaluator_Run_BelowThresholdDoesNotFire(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	repo := NewRepository(db)
	silences := NewSilenceRepository(db)
	metrics := &fakeMetricSource{value: 0.1}
	notifier := &fakeNotifier{}
	eval := NewEvaluator(repo, silences, metrics, notifier)

	rule := models.AlertRule{Code: "turn-failures", Severity: models.AlertSeverityHigh, Window: "5m",
		Expr: ExprTurnFailureRate, Threshold: 0.5, Condition: models.AlertConditionGT}
	site := Site{TenantID: "t1", SiteID: "s1"}

	mock.ExpectQuery(`pg_try_advisory_lock`).WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(`pg_advisory_unlock`).WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))
	mock.ExpectQuery(`SELECT .* FROM alert_events WHERE tenant_id = \$1 AND site_id = \$2 AND status = \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "site_id", "dedup_key", "alert_code", "severity", "status",
			"first_seen_at", "last_seen_at", "resolved_at", "context", "webhook_sent", "webhook_sent_at"}))

	eval.Run(context.Background(), []Site{site}, []models.AlertRule{rule})

	assert.Empty(t, notifier.calls)
}
