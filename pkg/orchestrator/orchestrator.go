package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/database"
	"github.com/codeready-toolchain/npcorchestrator/pkg/intent"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/policy"
	"github.com/codeready-toolchain/npcorchestrator/pkg/session"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
	"github.com/codeready-toolchain/npcorchestrator/pkg/trace"
)

// PolicyLoader is the narrow port onto the Evidence Gate's policy document,
// satisfied by *pkg/policy.Loader.
type PolicyLoader interface {
	GetPolicy(ctx context.Context, tenantID, siteID, name string) (*models.Policy, error)
}

// ReleaseResolver is the narrow port onto the release/experiment control
// plane the turn pipeline reads from, satisfied by *pkg/release.Service.
type ReleaseResolver interface {
	GetActive(ctx context.Context, tenantID, siteID string) (*models.Release, error)
	GetExperiment(ctx context.Context, tenantID, siteID, id string) (*models.Experiment, error)
	Assign(ctx context.Context, experiment *models.Experiment, subjectKey string) (*models.ExperimentAssignment, error)
}

// Deps bundles every collaborator the turn pipeline depends on. Every field
// but Conversations and Executions is required; those two may be nil in
// tests that don't exercise durable persistence or cancellation tracking.
type Deps struct {
	Tools         *tools.Server
	Releases      ReleaseResolver
	Policies      PolicyLoader
	Intent        intent.Classifier
	LLM           llm.Provider
	Cache         *cache.Client
	SessionMemory *cache.SessionMemory
	Conversations *database.ConversationRepository
	Traces        trace.Writer
	Executions    *session.Manager
}

// Orchestrator runs the turn pipeline described in spec.md §4.1: Resolve,
// Runtime Config, Experiment Assignment, Intent Classification, Retrieve
// Evidence, Evidence Gate, Prompt Assembly, LLM Call, Output Validator,
// Persist, Respond.
type Orchestrator struct {
	tools            *tools.Server
	releases         ReleaseResolver
	policies         PolicyLoader
	intentClassifier intent.Classifier
	llmProvider      llm.Provider
	cache            *cache.Client
	sessionMemory    *cache.SessionMemory
	conversations    *database.ConversationRepository
	traces           trace.Writer
	executions       *session.Manager
	logger           *slog.Logger

	runtimeConfigGroup singleflight.Group
	runtimeConfigTTL   time.Duration
}

// New builds an Orchestrator over deps.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		tools:            deps.Tools,
		releases:         deps.Releases,
		policies:         deps.Policies,
		intentClassifier: deps.Intent,
		llmProvider:      deps.LLM,
		cache:            deps.Cache,
		sessionMemory:    deps.SessionMemory,
		conversations:    deps.Conversations,
		traces:           deps.Traces,
		executions:       deps.Executions,
		logger:           slog.Default(),
		runtimeConfigTTL: defaultRuntimeConfigTTL,
	}
}

// Chat runs one turn of the pipeline end to end. It never returns a raw
// sub-component error for a resolvable failure: evidence, policy, and LLM
// failures all degrade into ChatOutput fields instead (spec.md §4.1 Failure
// semantics). Resolve-step NOT_FOUND is the one fail-fast exception.
func (o *Orchestrator) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	traceID := in.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var exec *session.TurnExecution
	turnCtx := ctx
	if o.executions != nil {
		exec = o.executions.Start(traceID, sessionID)
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithCancel(ctx)
		exec.SetCancelFunc(cancel)
		defer cancel()
		defer o.executions.Finish(traceID)
		exec.SetStatus(session.ExecutionProcessing)
	}

	startedAt := time.Now()
	ledger := trace.NewTrace(traceID, in.TenantID, in.SiteID, sessionID, in.UserID, in.NPCID, startedAt)
	ledger.RequestInput = map[string]any{"query": in.Query}

	cctx := tools.CallContext{
		TenantID:  in.TenantID,
		SiteID:    in.SiteID,
		TraceID:   traceID,
		UserID:    in.UserID,
		SessionID: sessionID,
		NPCID:     in.NPCID,
	}

	// Step 1: Resolve.
	profile, prompt, err := o.resolveNPC(turnCtx, cctx, in.NPCID)
	if err != nil {
		if exec != nil {
			exec.Fail(err.Error())
		}
		return nil, err
	}

	// Step 2: Runtime Config.
	rc, err := o.resolveRuntimeConfig(turnCtx, in.TenantID, in.SiteID, in.NPCID)
	if err != nil {
		o.logger.Warn("runtime config resolution failed, using policy default", "tenant_id", in.TenantID, "site_id", in.SiteID, "npc_id", in.NPCID, "error", err)
		rc = &models.RuntimeConfig{PolicyVersion: policy.DefaultPolicyName}
	}
	ledger.ReleaseID = rc.ReleaseID

	// Step 3: Experiment Assignment.
	variant, overrides := o.assignExperiment(turnCtx, in.TenantID, in.SiteID, rc.ExperimentID, sessionID, in.UserID)
	retrieval := applyStrategyOverrides(rc.RetrievalDefaults, overrides)
	if variant != "" {
		ledger.ExperimentID = rc.ExperimentID
		ledger.ExperimentVariant = variant
	}

	// Step 4: Intent Classification.
	intentLabel, err := o.intentClassifier.Classify(turnCtx, in.TenantID, in.SiteID, in.Query, personaSummary(profile))
	if err != nil {
		intentLabel = models.IntentUnknown
	}

	if timedOut(turnCtx) {
		return o.respondTimeout(ledger, exec, traceID, sessionID)
	}

	// Step 5: Retrieve Evidence.
	citations, retrievalDegraded := o.retrieveEvidence(turnCtx, cctx, in.Query, profile.KnowledgeDomains, retrieval, ledger)

	if timedOut(turnCtx) {
		return o.respondTimeout(ledger, exec, traceID, sessionID)
	}

	// Step 6: Evidence Gate.
	decision := o.evaluateGate(turnCtx, in.TenantID, in.SiteID, in.NPCID, in.Query, intentLabel, citations, retrievalDegraded)
	ledger.PolicyMode = decision.Mode
	ledger.AppliedRuleID = decision.AppliedRule.RuleID
	ledger.PolicyVersion = decision.AppliedRule.PolicyVersion

	var selectedCitations []models.Citation
	if decision.Mode == models.PolicyModeNormal {
		selectedCitations = citations
	}

	// Steps 7-9: Prompt Assembly, LLM Call, Output Validator.
	answerText, followups, guardrailPassed, llmFailed := o.generateAnswer(turnCtx, in, sessionID, prompt, profile, selectedCitations, &decision)
	ledger.PolicyMode = decision.Mode
	ledger.GuardrailPassed = guardrailPassed
	ledger.EvidenceChain = selectedCitations
	ids := make([]string, 0, len(selectedCitations))
	for _, c := range selectedCitations {
		ids = append(ids, c.ID)
	}
	ledger.EvidenceIDs = ids
	ledger.ResponseOutput = answerText

	if timedOut(turnCtx) {
		return o.respondTimeout(ledger, exec, traceID, sessionID)
	}

	// Step 10: Persist.
	completedAt := time.Now()
	if llmFailed {
		ledger.MarkFailed(completedAt, "llm generation failed after retries")
	} else {
		ledger.MarkSuccess(answerText, completedAt, 0, 0)
	}
	o.persistTurn(turnCtx, in, sessionID, traceID, answerText, selectedCitations)

	if err := o.traces.InsertTrace(turnCtx, ledger); err != nil {
		o.logger.Warn("trace ledger write failed", "trace_id", traceID, "error", err)
	}
	if exec != nil {
		if llmFailed {
			exec.Fail("llm generation failed after retries")
		} else {
			exec.SetStatus(session.ExecutionCompleted)
		}
	}

	// Step 11: Respond.
	return &ChatOutput{
		TraceID:           traceID,
		SessionID:         sessionID,
		PolicyMode:        decision.Mode,
		AnswerText:        answerText,
		Citations:         selectedCitations,
		FollowupQuestions: followups,
		LatencyMs:         *ledger.LatencyMs,
		Status:            ledger.Status,
	}, nil
}

func (o *Orchestrator) respondTimeout(ledger *models.TraceLedger, exec *session.TurnExecution, traceID, sessionID string) (*ChatOutput, error) {
	trace.MarkTimeout(ledger, time.Now())
	trace.PersistBestEffort(o.traces, ledger)
	if exec != nil {
		exec.TimedOut()
	}
	return &ChatOutput{
		TraceID:    traceID,
		SessionID:  sessionID,
		PolicyMode: ledger.PolicyMode,
		AnswerText: llmFailureText(nil),
		LatencyMs:  *ledger.LatencyMs,
		Status:     models.TraceStatusTimeout,
	}, nil
}

func timedOut(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (o *Orchestrator) resolveNPC(ctx context.Context, cctx tools.CallContext, npcID string) (*models.NPCProfile, *models.NPCPrompt, error) {
	profileResult, err := callTool(ctx, o.tools, cctx, "get_npc_profile", &tools.GetNPCProfileInput{NPCID: npcID})
	if err != nil {
		return nil, nil, err
	}
	profileOut, ok := profileResult.Output.(*tools.GetNPCProfileOutput)
	if !ok || profileOut.Profile == nil {
		return nil, nil, apperr.NotFound("npc_profile", npcID)
	}

	promptResult, err := callTool(ctx, o.tools, cctx, "get_prompt_active", &tools.GetPromptActiveInput{NPCID: npcID})
	if err != nil {
		return nil, nil, err
	}
	promptOut, ok := promptResult.Output.(*tools.GetPromptActiveOutput)
	if !ok || promptOut.Prompt == nil {
		return nil, nil, apperr.NotFound("npc_prompt", npcID)
	}

	return profileOut.Profile, promptOut.Prompt, nil
}

func (o *Orchestrator) retrieveEvidence(ctx context.Context, cctx tools.CallContext, query string, domains []string, retrieval models.RetrievalDefaults, ledger *models.TraceLedger) ([]models.Citation, bool) {
	topK := retrieval.TopK
	if topK <= 0 {
		topK = 5
	}
	result, err := callTool(ctx, o.tools, cctx, "retrieve_evidence", &tools.RetrieveEvidenceInput{
		Query:    query,
		Domains:  domains,
		TopK:     topK,
		MinScore: retrieval.MinScore,
	})
	if result != nil {
		ledger.ToolCalls = append(ledger.ToolCalls, models.ToolCallRecord{
			ToolName:  "retrieve_evidence",
			Status:    result.Audit.Status,
			LatencyMs: result.Audit.LatencyMs,
			Error:     errString(err),
		})
		o.recordToolCallAudit(ctx, result.Audit, cctx.TenantID, cctx.SiteID, cctx.TraceID)
	}
	if err != nil {
		o.logger.Warn("evidence retrieval failed, degrading to conservative", "trace_id", cctx.TraceID, "error", err)
		return nil, true
	}
	out, ok := result.Output.(*tools.RetrieveEvidenceOutput)
	if !ok {
		return nil, true
	}
	return out.Citations, false
}

func (o *Orchestrator) evaluateGate(ctx context.Context, tenantID, siteID, npcID, query string, intentLabel models.IntentLabel, citations []models.Citation, retrievalDegraded bool) policy.GateDecision {
	policyDoc, err := o.policies.GetPolicy(ctx, tenantID, siteID, policy.DefaultPolicyName)
	if err != nil {
		o.logger.Warn("policy lookup failed, defaulting to conservative", "tenant_id", tenantID, "site_id", siteID, "error", err)
		return policy.GateDecision{Mode: models.PolicyModeConservative, AppliedRule: models.AppliedRule{RuleID: "policy_unavailable", Intent: intentLabel}}
	}

	decision := policy.Evaluate(policyDoc, policy.GateInput{
		NPCID:          npcID,
		SiteID:         siteID,
		Intent:         intentLabel,
		Citations:      citations,
		IsHistoryQuery: intent.IsHistoryRelated(query),
	})
	if retrievalDegraded && decision.Mode == models.PolicyModeNormal {
		decision.Mode = models.PolicyModeConservative
	}
	return decision
}

func (o *Orchestrator) generateAnswer(ctx context.Context, in ChatInput, sessionID string, prompt *models.NPCPrompt, profile *models.NPCProfile, citations []models.Citation, decision *policy.GateDecision) (answer string, followups []string, guardrailPassed bool, llmFailed bool) {
	switch decision.Mode {
	case models.PolicyModeRefuse:
		return refuseText(profile), nil, true, false
	case models.PolicyModeConservative:
		return conservativeText(profile), nil, true, false
	}

	var history []cache.SessionMessage
	if o.sessionMemory != nil {
		history = o.sessionMemory.History(ctx, in.TenantID, in.SiteID, sessionID, maxHistoryMessages)
	}
	systemPrompt := assembleSystemPrompt(prompt, profile, citations, history)

	resp, err := o.llmProvider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		User:        in.Query,
		Temperature: 0.7,
		MaxTokens:   600,
	})
	if err != nil {
		o.logger.Warn("llm generation failed after retries", "trace_id", in.TraceID, "error", err)
		return llmFailureText(profile), nil, true, true
	}

	if !validateOutput(resp.Content, profile) {
		decision.Mode = models.PolicyModeRefuse
		return refuseText(profile), nil, false, false
	}

	return resp.Content, followupQuestions(prompt), true, false
}

func (o *Orchestrator) persistTurn(ctx context.Context, in ChatInput, sessionID, traceID, answerText string, citations []models.Citation) {
	if o.sessionMemory != nil {
		o.sessionMemory.Append(ctx, in.TenantID, in.SiteID, sessionID, cache.SessionMessage{Role: models.MessageRoleUser, Content: in.Query})
		o.sessionMemory.Append(ctx, in.TenantID, in.SiteID, sessionID, cache.SessionMessage{Role: models.MessageRoleAssistant, Content: answerText})
	}

	if o.conversations == nil {
		return
	}

	evidenceIDs := make([]string, 0, len(citations))
	for _, c := range citations {
		evidenceIDs = append(evidenceIDs, c.ID)
	}

	err := o.conversations.WithSessionLock(ctx, in.TenantID, in.SiteID, sessionID, func(lockCtx context.Context, _ *sql.Tx) error {
		conv, err := o.conversations.GetOrCreateConversation(lockCtx, in.TenantID, in.SiteID, sessionID, in.NPCID, in.UserID)
		if err != nil {
			return err
		}
		if err := o.conversations.InsertMessage(lockCtx, &models.Message{ConversationID: conv.ID, Role: models.MessageRoleUser, Content: in.Query, TraceID: traceID}); err != nil {
			return err
		}
		return o.conversations.InsertMessage(lockCtx, &models.Message{ConversationID: conv.ID, Role: models.MessageRoleAssistant, Content: answerText, EvidenceIDs: evidenceIDs, TraceID: traceID})
	})
	if err != nil {
		o.logger.Warn("durable conversation persistence failed", "session_id", sessionID, "trace_id", traceID, "error", err)
	}
}

func (o *Orchestrator) recordToolCallAudit(ctx context.Context, audit tools.CallAudit, tenantID, siteID, traceID string) {
	repo, ok := o.traces.(interface {
		InsertToolCallAudit(ctx context.Context, a *models.ToolCallAudit) error
	})
	if !ok {
		return
	}
	err := repo.InsertToolCallAudit(ctx, &models.ToolCallAudit{
		TraceID:            traceID,
		TenantID:           tenantID,
		SiteID:             siteID,
		ToolName:           audit.ToolName,
		Status:             audit.Status,
		LatencyMs:          audit.LatencyMs,
		RequestPayloadHash: audit.RequestPayloadHash,
	})
	if err != nil {
		o.logger.Warn("tool call audit write failed", "tool", audit.ToolName, "error", err)
	}
}

func callTool(ctx context.Context, server *tools.Server, cctx tools.CallContext, name string, input any) (*tools.CallResult, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "encode tool input", err)
	}
	return server.Call(ctx, tools.CallRequest{ToolName: name, Input: raw, Context: cctx})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
