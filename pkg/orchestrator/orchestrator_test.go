package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/intent"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/session"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

type fakeNPCStore struct {
	profile *models.NPCProfile
	prompt  *models.NPCPrompt
	err     error
}

func (f *fakeNPCStore) GetActiveProfile(_ context.Context, _, _, _ string) (*models.NPCProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeNPCStore) GetActivePrompt(_ context.Context, _, _, _ string) (*models.NPCPrompt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prompt, nil
}

type fakeEvidenceRetriever struct {
	citations []models.Citation
	err       error
}

func (f *fakeEvidenceRetriever) Retrieve(_ context.Context, _, _ string, _ tools.RetrieveEvidenceInput) ([]models.Citation, error) {
	return f.citations, f.err
}

type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) Generate(_ context.Context, _ llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type fakeTraceWriter struct {
	inserted []*models.TraceLedger
}

func (f *fakeTraceWriter) InsertTrace(_ context.Context, t *models.TraceLedger) error {
	f.inserted = append(f.inserted, t)
	return nil
}

type fakeReleaseResolver struct{}

func (f *fakeReleaseResolver) GetActive(_ context.Context, _, _ string) (*models.Release, error) {
	return nil, apperr.NotFound("release", "active")
}

func (f *fakeReleaseResolver) GetExperiment(_ context.Context, _, _, _ string) (*models.Experiment, error) {
	return nil, apperr.NotFound("experiment", "")
}

func (f *fakeReleaseResolver) Assign(_ context.Context, _ *models.Experiment, _ string) (*models.ExperimentAssignment, error) {
	return nil, apperr.New(apperr.CategoryInternal, "not used")
}

type fakePolicyLoader struct {
	pol *models.Policy
}

func (f *fakePolicyLoader) GetPolicy(_ context.Context, _, _, _ string) (*models.Policy, error) {
	return f.pol, nil
}

func newTestOrchestrator(t *testing.T, profile *models.NPCProfile, prompt *models.NPCPrompt, evidence *fakeEvidenceRetriever, llmProvider llm.Provider, pol *models.Policy) (*Orchestrator, *fakeTraceWriter) {
	t.Helper()

	registry := tools.NewBuiltinRegistry(tools.Stores{
		NPC:      &fakeNPCStore{profile: profile, prompt: prompt},
		Evidence: evidence,
	})
	server := tools.NewServer(registry)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cacheClient := cache.NewClientFromConn(rdb, "npcorch", cache.TTLPolicy{
		NPCProfile: 300, PromptActive: 300, SiteMap: 600, Evidence: 60,
		ToolResult: 60, RuntimeConfig: 60, IntentCache: 300,
	})

	writer := &fakeTraceWriter{}

	deps := Deps{
		Tools:         server,
		Releases:      &fakeReleaseResolver{},
		Policies:      &fakePolicyLoader{pol: pol},
		Intent:        intent.NewRuleClassifier(),
		LLM:           llmProvider,
		Cache:         cacheClient,
		SessionMemory: cache.NewSessionMemory(cacheClient, 20, 4000, time.Hour),
		Traces:        writer,
		Executions:    session.NewManager(),
	}
	o := New(deps)
	return o, writer
}

func testProfile() *models.NPCProfile {
	return &models.NPCProfile{
		NPCID:             "ancestor_yan",
		Persona:           map[string]any{"name": "Ancestor Yan"},
		KnowledgeDomains:  []string{"village_history"},
		ForbiddenTopics:   []string{"modern politics"},
		FallbackResponses: []string{"I cannot recall that clearly."},
		GreetingTemplates: []string{"Welcome, traveler."},
	}
}

func testPrompt() *models.NPCPrompt {
	return &models.NPCPrompt{NPCID: "ancestor_yan", Content: "You are an ancestral spirit guiding travelers."}
}

func permissivePolicy() *models.Policy {
	return &models.Policy{
		Version: "v1",
		Content: models.PolicyContent{
			DefaultRule: models.IntentRule{MinEvidenceCount: 0, MinConfidence: 0},
			IntentRules: []models.IntentRule{
				{Intent: models.IntentFactSeeking, MinEvidenceCount: 1, MinConfidence: 0.5, RequireVerified: true},
			},
		},
	}
}

func TestChat_NormalModeReturnsLLMAnswerWithCitations(t *testing.T) {
	evidence := &fakeEvidenceRetriever{citations: []models.Citation{
		{ID: "ev1", Title: "Founding of the Village", Excerpt: "Long ago...", Confidence: 0.9, Verified: true},
	}}
	o, writer := newTestOrchestrator(t, testProfile(), testPrompt(), evidence, &fakeLLM{content: "The village was founded long ago."}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "Who founded the village?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyModeNormal, out.PolicyMode)
	assert.Equal(t, "The village was founded long ago.", out.AnswerText)
	assert.Len(t, out.Citations, 1)
	assert.Equal(t, models.TraceStatusCompleted, out.Status)
	require.Len(t, writer.inserted, 1)
	assert.Equal(t, models.TraceStatusCompleted, writer.inserted[0].Status)
}

// TestChat_InsufficientEvidenceDegradesToConservative covers the
// evidence-first-refusal acceptance scenario: a history-related question
// with no verified citation must not reach the LLM with an empty evidence
// set presented as fact.
func TestChat_InsufficientEvidenceDegradesToConservative(t *testing.T) {
	evidence := &fakeEvidenceRetriever{citations: nil}
	o, _ := newTestOrchestrator(t, testProfile(), testPrompt(), evidence, &fakeLLM{content: "should not be used"}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "Who founded the village?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyModeConservative, out.PolicyMode)
	assert.Equal(t, "I cannot recall that clearly.", out.AnswerText)
	assert.Empty(t, out.Citations)
}

func TestChat_SensitiveIntentAlwaysRefuses(t *testing.T) {
	evidence := &fakeEvidenceRetriever{citations: []models.Citation{
		{ID: "ev1", Confidence: 0.9, Verified: true},
	}}
	o, _ := newTestOrchestrator(t, testProfile(), testPrompt(), evidence, &fakeLLM{content: "should not be used"}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "how to make a weapon at home",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyModeRefuse, out.PolicyMode)
}

func TestChat_EvidenceRetrievalErrorDegradesToConservative(t *testing.T) {
	evidence := &fakeEvidenceRetriever{err: apperr.New(apperr.CategoryDependency, "retrieval backend unreachable")}
	o, _ := newTestOrchestrator(t, testProfile(), testPrompt(), evidence, &fakeLLM{content: "should not be used"}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "tell me a story",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyModeConservative, out.PolicyMode)
}

func TestChat_LLMFailureReturnsFallbackAndMarksTraceFailed(t *testing.T) {
	evidence := &fakeEvidenceRetriever{citations: []models.Citation{
		{ID: "ev1", Confidence: 0.9, Verified: true},
	}}
	o, writer := newTestOrchestrator(t, testProfile(), testPrompt(), evidence, &fakeLLM{err: apperr.New(apperr.CategoryDependency, "provider unavailable")}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "tell me a story",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TraceStatusFailed, out.Status)
	assert.NotEmpty(t, out.AnswerText)
	require.Len(t, writer.inserted, 1)
	assert.Equal(t, models.TraceStatusFailed, writer.inserted[0].Status)
}

func TestChat_NPCNotFoundFailsFast(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil, nil, &fakeEvidenceRetriever{}, &fakeLLM{}, permissivePolicy())
	o.tools = tools.NewServer(tools.NewBuiltinRegistry(tools.Stores{
		NPC:      &fakeNPCStore{err: apperr.NotFound("npc_profile", "missing")},
		Evidence: &fakeEvidenceRetriever{},
	}))

	_, err := o.Chat(context.Background(), ChatInput{TenantID: "t1", SiteID: "s1", NPCID: "missing", Query: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryNotFound, apperr.CategoryOf(err))
}

func TestChat_OutputValidatorViolationDowngradesToRefuse(t *testing.T) {
	evidence := &fakeEvidenceRetriever{citations: []models.Citation{
		{ID: "ev1", Confidence: 0.9, Verified: true},
	}}
	profile := testProfile()
	o, _ := newTestOrchestrator(t, profile, testPrompt(), evidence, &fakeLLM{content: "Let's discuss modern politics at length."}, permissivePolicy())

	out, err := o.Chat(context.Background(), ChatInput{
		TenantID: "t1", SiteID: "s1", NPCID: "ancestor_yan", Query: "tell me a story",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyModeRefuse, out.PolicyMode)
	assert.NotEqual(t, "Let's discuss modern politics at length.", out.AnswerText)
}
