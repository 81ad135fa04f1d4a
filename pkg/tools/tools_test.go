package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

type fakeNPCStore struct{}

func (fakeNPCStore) GetActiveProfile(_ context.Context, tenantID, siteID, npcID string) (*models.NPCProfile, error) {
	if npcID == "missing" {
		return nil, apperr.NotFound("npc_profile", npcID)
	}
	return &models.NPCProfile{TenantID: tenantID, SiteID: siteID, NPCID: npcID}, nil
}

func (fakeNPCStore) GetActivePrompt(_ context.Context, tenantID, siteID, npcID string) (*models.NPCPrompt, error) {
	return &models.NPCPrompt{TenantID: tenantID, SiteID: siteID, NPCID: npcID}, nil
}

type fakeSiteMapStore struct{}

func (fakeSiteMapStore) GetSiteMap(_ context.Context, tenantID, siteID string) ([]SiteMapEntry, error) {
	return []SiteMapEntry{{ID: "poi-1", Name: "Gate", Kind: "poi"}}, nil
}

type fakeContentStore struct{}

func (fakeContentStore) Search(_ context.Context, tenantID, siteID string, in SearchContentInput) ([]models.Content, error) {
	return nil, nil
}

func (fakeContentStore) CreateDraft(_ context.Context, tenantID, siteID string, in CreateDraftContentInput) (string, error) {
	return "content-123", nil
}

type fakeEvidenceRetriever struct{}

func (fakeEvidenceRetriever) Retrieve(_ context.Context, tenantID, siteID string, in RetrieveEvidenceInput) ([]models.Citation, error) {
	return nil, nil
}

type fakeEventLogger struct{ calls int }

func (f *fakeEventLogger) LogEvent(_ context.Context, tenantID, siteID string, in LogUserEventInput) error {
	f.calls++
	return nil
}

func testServer() (*Server, *fakeEventLogger) {
	events := &fakeEventLogger{}
	reg := NewBuiltinRegistry(Stores{
		NPC:      fakeNPCStore{},
		SiteMap:  fakeSiteMapStore{},
		Content:  fakeContentStore{},
		Evidence: fakeEvidenceRetriever{},
		Events:   events,
	})
	return NewServer(reg), events
}

func TestRegistry_ListMetadata_HasSevenBuiltins(t *testing.T) {
	srv, _ := testServer()
	result := srv.List("", false)
	assert.Len(t, result.Tools, 7)
}

func TestRegistry_ListMetadata_FiltersByCategory(t *testing.T) {
	srv, _ := testServer()
	result := srv.List("content", false)
	for _, m := range result.Tools {
		assert.Equal(t, "content", m.Category)
	}
	assert.Len(t, result.Tools, 2) // search_content, create_draft_content
}

func TestRegistry_ListMetadata_FiltersByAICallable(t *testing.T) {
	srv, _ := testServer()
	result := srv.List("", true)
	for _, m := range result.Tools {
		assert.True(t, m.AICallable)
	}
}

func TestServer_Call_GetNPCProfile_Success(t *testing.T) {
	srv, _ := testServer()
	in, err := json.Marshal(GetNPCProfileInput{NPCID: "ancestor_yan"})
	require.NoError(t, err)

	res, err := srv.Call(context.Background(), CallRequest{
		ToolName: "get_npc_profile",
		Input:    in,
		Context:  CallContext{TenantID: "t1", SiteID: "s1", TraceID: "tr1", UserID: "u1"},
	})
	require.NoError(t, err)
	out := res.Output.(*GetNPCProfileOutput)
	assert.Equal(t, "ancestor_yan", out.Profile.NPCID)
	assert.Equal(t, "ok", res.Audit.Status)
	assert.Equal(t, "tr1", res.Audit.TraceID)
}

func TestServer_Call_MissingContext_ValidationError(t *testing.T) {
	srv, _ := testServer()
	_, err := srv.Call(context.Background(), CallRequest{
		ToolName: "get_npc_profile",
		Input:    []byte(`{"npc_id":"x"}`),
		Context:  CallContext{TenantID: "t1"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))
}

func TestServer_Call_UnknownTool_NotFound(t *testing.T) {
	srv, _ := testServer()
	_, err := srv.Call(context.Background(), CallRequest{
		ToolName: "no_such_tool",
		Context:  CallContext{TenantID: "t1", SiteID: "s1", TraceID: "tr1", UserID: "u1"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryNotFound, apperr.CategoryOf(err))
}

func TestServer_Call_MissingRequiredInput_ValidationError(t *testing.T) {
	srv, _ := testServer()
	_, err := srv.Call(context.Background(), CallRequest{
		ToolName: "search_content",
		Input:    []byte(`{}`),
		Context:  CallContext{TenantID: "t1", SiteID: "s1", TraceID: "tr1", UserID: "u1"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))
}

func TestServer_Call_HandlerError_PropagatesCategory(t *testing.T) {
	srv, _ := testServer()
	in, err := json.Marshal(GetNPCProfileInput{NPCID: "missing"})
	require.NoError(t, err)

	_, err = srv.Call(context.Background(), CallRequest{
		ToolName: "get_npc_profile",
		Input:    in,
		Context:  CallContext{TenantID: "t1", SiteID: "s1", TraceID: "tr1", UserID: "u1"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryNotFound, apperr.CategoryOf(err))
}

func TestServer_Call_LogUserEvent_ReachesEventLogger(t *testing.T) {
	srv, events := testServer()
	in, err := json.Marshal(LogUserEventInput{EventType: "turn_completed"})
	require.NoError(t, err)

	res, err := srv.Call(context.Background(), CallRequest{
		ToolName: "log_user_event",
		Input:    in,
		Context:  CallContext{TenantID: "t1", SiteID: "s1", TraceID: "tr1", UserID: "u1"},
	})
	require.NoError(t, err)
	assert.True(t, res.Output.(*LogUserEventOutput).Recorded)
	assert.Equal(t, 1, events.calls)
}
