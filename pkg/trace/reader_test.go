package trace

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

var traceColumnNames = []string{
	"trace_id", "tenant_id", "site_id", "session_id", "user_id", "npc_id", "request_type",
	"request_input", "tool_calls", "evidence_ids", "evidence_chain", "policy_mode", "policy_reason",
	"applied_rule_id", "policy_version", "response_output", "latency_ms", "tokens", "cost",
	"guardrail_passed", "release_id", "experiment_id", "experiment_variant", "strategy_snapshot",
	"started_at", "completed_at", "status",
}

func TestRepository_GetByTraceID_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(500 * time.Millisecond)
	rows := sqlmock.NewRows(traceColumnNames).AddRow(
		"tr1", "t1", "s1", "sess-1", "u1", "ancestor_yan", "chat",
		[]byte(`{"query":"hi"}`), []byte(`[]`), "{}", []byte(`[]`), "normal", "ok",
		"default", "v1", "Welcome, traveler.", int64(500), 42, 0.002,
		true, nil, nil, nil, []byte(`{}`),
		started, completed, "completed")

	mock.ExpectQuery(`SELECT .* FROM trace_ledger`).
		WithArgs("t1", "s1", "tr1").
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.GetByTraceID(context.Background(), "t1", "s1", "tr1")
	require.NoError(t, err)
	assert.Equal(t, "tr1", got.TraceID)
	assert.Equal(t, "Welcome, traveler.", got.ResponseOutput)
	require.NotNil(t, got.LatencyMs)
	assert.Equal(t, int64(500), *got.LatencyMs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByTraceID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM trace_ledger`).
		WithArgs("t1", "s1", "missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	_, err = repo.GetByTraceID(context.Background(), "t1", "s1", "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryNotFound, apperr.CategoryOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListAuditLog_FiltersByAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "actor", "action", "target_type", "target_id", "payload", "created_at"}).
		AddRow("a1", "admin@example.com", "release.activate", "release", "rel-1", []byte(`{}`), time.Now())

	mock.ExpectQuery(`SELECT .* FROM admin_audit_log WHERE action = \$1`).
		WithArgs("release.activate").
		WillReturnRows(rows)

	repo := NewRepository(db)
	out, err := repo.ListAuditLog(context.Background(), "release.activate", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "release.activate", string(out[0].Action))
	require.NoError(t, mock.ExpectationsWereMet())
}
