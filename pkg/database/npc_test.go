package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func TestNPCRepository_GetActiveProfile_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "tenant_id", "site_id", "npc_id", "version", "active", "persona",
		"knowledge_domains", "forbidden_topics", "greeting_templates", "fallback_responses",
		"must_cite_sources", "created_at"}
	rows := sqlmock.NewRows(cols).AddRow(
		"p1", "t1", "s1", "ancestor_yan", 3, true, []byte(`{"name":"Ancestor Yan"}`),
		"{history,genealogy}", "{}",
		[]byte(`["Welcome, traveler."]`), []byte(`["I cannot recall that."]`),
		true, time.Now())

	mock.ExpectQuery(`SELECT .* FROM npc_profiles`).
		WithArgs("t1", "s1", "ancestor_yan").
		WillReturnRows(rows)

	repo := NewNPCRepository(db)
	profile, err := repo.GetActiveProfile(context.Background(), "t1", "s1", "ancestor_yan")
	require.NoError(t, err)
	assert.Equal(t, "ancestor_yan", profile.NPCID)
	assert.True(t, profile.Active)
	assert.Equal(t, "Welcome, traveler.", profile.FirstGreeting())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNPCRepository_GetActiveProfile_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM npc_profiles`).
		WithArgs("t1", "s1", "missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewNPCRepository(db)
	_, err = repo.GetActiveProfile(context.Background(), "t1", "s1", "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryNotFound, apperr.CategoryOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNPCRepository_CreateProfileVersion_DeactivatesThenInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE npc_profiles SET active = false`).
		WithArgs("t1", "s1", "ancestor_yan").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO npc_profiles`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewNPCRepository(db)
	p := &models.NPCProfile{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Version: 4,
		Persona: map[string]any{"name": "Ancestor Yan"},
	}
	out, err := repo.CreateProfileVersion(context.Background(), p, true)
	require.NoError(t, err)
	assert.True(t, out.Active)
	assert.NotEmpty(t, out.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
