package trace

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestRepository_InsertTrace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	trace := NewTrace("", "t1", "s1", "sess-1", "u1", "ancestor_yan", time.Now())
	trace.ResponseOutput = "Welcome, traveler."
	trace.Status = models.TraceStatusCompleted

	mock.ExpectExec(`INSERT INTO trace_ledger`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertTrace(context.Background(), trace))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertToolCallAudit_GeneratesIDWhenAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	audit := &models.ToolCallAudit{
		TraceID: "tr1", TenantID: "t1", SiteID: "s1",
		ToolName: "retrieve_evidence", Status: "ok", LatencyMs: 12,
	}

	mock.ExpectExec(`INSERT INTO tool_call_audit`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertToolCallAudit(context.Background(), audit))
	assert.NotEmpty(t, audit.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LogAdminAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	mock.ExpectExec(`INSERT INTO admin_audit_log`).WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.LogAdminAction(context.Background(), "admin@example.com", "release.activate",
		"release", "rel-1", map[string]any{"tenant_id": "t1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
