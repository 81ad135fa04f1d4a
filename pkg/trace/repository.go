// Package trace persists the append-only Trace Ledger and the separate
// control-plane Admin Audit Log (spec.md §3, §4.5), plus per-call tool
// invocation audit rows (spec.md §4.2).
package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/codeready-toolchain/npcorchestrator/pkg/masking"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Repository is the storage-backed writer for all three trace-domain
// tables. Reads are admin-facing (ListTraces, ListAuditLog) and scoped by
// tenant/site like every other repository in this module.
type Repository struct {
	db        *sql.DB
	sanitizer *masking.Sanitizer
}

// NewRepository builds a Repository over an already-connected database. Every
// row it writes passes through a Sanitizer first: request input, tool call
// records, evidence chains, and response text are all NPC/evidence content
// an author could have pasted a stray credential into, and this ledger is
// the one place every tenant's admin surface can query (spec.md §4.5).
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, sanitizer: masking.NewSanitizer()}
}

// InsertTrace appends one trace ledger row. Rows are never updated in
// place; a correction is a new row whose StrategySnapshot references the
// original trace_id.
func (r *Repository) InsertTrace(ctx context.Context, t *models.TraceLedger) error {
	requestInput, err := json.Marshal(t.RequestInput)
	if err != nil {
		return fmt.Errorf("encode request_input: %w", err)
	}
	toolCalls, err := json.Marshal(t.ToolCalls)
	if err != nil {
		return fmt.Errorf("encode tool_calls: %w", err)
	}
	evidenceChain, err := json.Marshal(t.EvidenceChain)
	if err != nil {
		return fmt.Errorf("encode evidence_chain: %w", err)
	}
	var strategySnapshot []byte
	if t.StrategySnapshot != nil {
		strategySnapshot, err = json.Marshal(t.StrategySnapshot)
		if err != nil {
			return fmt.Errorf("encode strategy_snapshot: %w", err)
		}
	}

	requestInput = []byte(r.sanitizer.Sanitize(string(requestInput)))
	toolCalls = []byte(r.sanitizer.Sanitize(string(toolCalls)))
	evidenceChain = []byte(r.sanitizer.Sanitize(string(evidenceChain)))
	responseOutput := r.sanitizer.Sanitize(t.ResponseOutput)

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO trace_ledger (
			trace_id, tenant_id, site_id, session_id, user_id, npc_id, request_type,
			request_input, tool_calls, evidence_ids, evidence_chain, policy_mode,
			policy_reason, applied_rule_id, policy_version, response_output,
			latency_ms, tokens, cost, guardrail_passed, release_id, experiment_id,
			experiment_variant, strategy_snapshot, started_at, completed_at, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27)`,
		t.TraceID, t.TenantID, t.SiteID, t.SessionID, nullable(t.UserID), nullable(t.NPCID),
		t.RequestType, requestInput, toolCalls, pq.Array(t.EvidenceIDs), evidenceChain,
		t.PolicyMode, t.PolicyReason, nullable(t.AppliedRuleID), nullable(t.PolicyVersion),
		responseOutput, t.LatencyMs, t.Tokens, t.Cost, t.GuardrailPassed,
		nullable(t.ReleaseID), nullable(t.ExperimentID), nullable(t.ExperimentVariant),
		strategySnapshot, t.StartedAt, t.CompletedAt, t.Status)
	if err != nil {
		return fmt.Errorf("insert trace ledger row: %w", err)
	}
	return nil
}

// InsertToolCallAudit records one tool invocation's audit summary.
func (r *Repository) InsertToolCallAudit(ctx context.Context, a *models.ToolCallAudit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tool_call_audit (
			id, trace_id, tenant_id, site_id, tool_name, status, latency_ms,
			request_payload_hash, error, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())`,
		a.ID, nullable(a.TraceID), a.TenantID, a.SiteID, a.ToolName, a.Status,
		a.LatencyMs, a.RequestPayloadHash, nullable(a.Error))
	if err != nil {
		return fmt.Errorf("insert tool call audit row: %w", err)
	}
	return nil
}

// LogAdminAction records a control-plane action. Satisfies
// pkg/release.AuditLogger and every other admin-surface audit dependency.
func (r *Repository) LogAdminAction(ctx context.Context, actor, action, targetType, targetID string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	raw = []byte(r.sanitizer.Sanitize(string(raw)))
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO admin_audit_log (id, actor, action, target_type, target_id, payload, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,now())`,
		uuid.NewString(), actor, action, targetType, targetID, raw)
	if err != nil {
		return fmt.Errorf("insert admin audit row: %w", err)
	}
	return nil
}

// PurgeTracesOlderThan deletes completed trace ledger rows older than
// olderThan, across every tenant. Used by the retention cron (pkg/cleanup)
// — the ledger is append-only and otherwise grows without bound. In-progress
// traces (completed_at IS NULL) are never purged.
func (r *Repository) PurgeTracesOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM trace_ledger WHERE completed_at IS NOT NULL AND completed_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("purge stale traces: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
