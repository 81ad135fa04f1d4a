package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestConversationRepository_GetOrCreateConversation_ExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "tenant_id", "site_id", "session_id", "npc_id", "user_id", "created_at"}
	mock.ExpectQuery(`SELECT .* FROM conversations`).
		WithArgs("t1", "s1", "sess-1", "ancestor_yan").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "t1", "s1", "sess-1", "ancestor_yan", "u1", time.Now()))

	repo := NewConversationRepository(db)
	conv, err := repo.GetOrCreateConversation(context.Background(), "t1", "s1", "sess-1", "ancestor_yan", "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_GetOrCreateConversation_CreatesOnMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "tenant_id", "site_id", "session_id", "npc_id", "user_id", "created_at"}
	mock.ExpectQuery(`SELECT .* FROM conversations`).
		WithArgs("t1", "s1", "sess-1", "ancestor_yan").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO conversations`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT .* FROM conversations`).
		WithArgs("t1", "s1", "sess-1", "ancestor_yan").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "t1", "s1", "sess-1", "ancestor_yan", "u1", time.Now()))

	repo := NewConversationRepository(db)
	conv, err := repo.GetOrCreateConversation(context.Background(), "t1", "s1", "sess-1", "ancestor_yan", "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_InsertMessage_GeneratesIDWhenAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO messages`).WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewConversationRepository(db)
	msg := &models.Message{ConversationID: "c1", Role: models.MessageRoleUser, Content: "hello"}
	require.NoError(t, repo.InsertMessage(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_WithSessionLock_AcquiresAndCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewConversationRepository(db)
	err = repo.WithSessionLock(context.Background(), "t1", "s1", "sess-1", func(ctx context.Context, tx *sql.Tx) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
