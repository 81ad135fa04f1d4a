package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

const traceColumns = `trace_id, tenant_id, site_id, session_id, user_id, npc_id, request_type,
	request_input, tool_calls, evidence_ids, evidence_chain, policy_mode, policy_reason,
	applied_rule_id, policy_version, response_output, latency_ms, tokens, cost,
	guardrail_passed, release_id, experiment_id, experiment_variant, strategy_snapshot,
	started_at, completed_at, status`

func scanTrace(row interface {
	Scan(dest ...any) error
}) (*models.TraceLedger, error) {
	var t models.TraceLedger
	var userID, npcID, appliedRuleID, policyVersion, releaseID, experimentID, experimentVariant sql.NullString
	var requestInput, toolCalls, evidenceChain, strategySnapshot []byte

	err := row.Scan(&t.TraceID, &t.TenantID, &t.SiteID, &t.SessionID, &userID, &npcID,
		&t.RequestType, &requestInput, &toolCalls, pq.Array(&t.EvidenceIDs), &evidenceChain,
		&t.PolicyMode, &t.PolicyReason, &appliedRuleID, &policyVersion, &t.ResponseOutput,
		&t.LatencyMs, &t.Tokens, &t.Cost, &t.GuardrailPassed, &releaseID, &experimentID,
		&experimentVariant, &strategySnapshot, &t.StartedAt, &t.CompletedAt, &t.Status)
	if err != nil {
		return nil, err
	}

	t.UserID, t.NPCID = userID.String, npcID.String
	t.AppliedRuleID, t.PolicyVersion = appliedRuleID.String, policyVersion.String
	t.ReleaseID, t.ExperimentID, t.ExperimentVariant = releaseID.String, experimentID.String, experimentVariant.String

	if err := json.Unmarshal(requestInput, &t.RequestInput); err != nil {
		return nil, fmt.Errorf("decode request_input: %w", err)
	}
	if err := json.Unmarshal(toolCalls, &t.ToolCalls); err != nil {
		return nil, fmt.Errorf("decode tool_calls: %w", err)
	}
	if err := json.Unmarshal(evidenceChain, &t.EvidenceChain); err != nil {
		return nil, fmt.Errorf("decode evidence_chain: %w", err)
	}
	if len(strategySnapshot) > 0 {
		if err := json.Unmarshal(strategySnapshot, &t.StrategySnapshot); err != nil {
			return nil, fmt.Errorf("decode strategy_snapshot: %w", err)
		}
	}
	return &t, nil
}

// GetByTraceID returns the full record for replay (spec.md §4.5 contract).
func (r *Repository) GetByTraceID(ctx context.Context, tenantID, siteID, traceID string) (*models.TraceLedger, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+traceColumns+` FROM trace_ledger WHERE tenant_id = $1 AND site_id = $2 AND trace_id = $3`,
		tenantID, siteID, traceID)
	t, err := scanTrace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("trace", traceID)
		}
		return nil, fmt.Errorf("get trace by id: %w", err)
	}
	return t, nil
}

// ListBySession returns a session's trace rows ordered oldest first, for
// conversation replay and admin inspection.
func (r *Repository) ListBySession(ctx context.Context, tenantID, siteID, sessionID string, limit int) ([]*models.TraceLedger, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+traceColumns+` FROM trace_ledger
		 WHERE tenant_id = $1 AND site_id = $2 AND session_id = $3
		 ORDER BY started_at ASC LIMIT $4`,
		tenantID, siteID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list traces by session: %w", err)
	}
	defer rows.Close()

	var out []*models.TraceLedger
	for rows.Next() {
		t, err := scanTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListAuditLog returns admin audit rows newest-first, optionally filtered by
// action.
func (r *Repository) ListAuditLog(ctx context.Context, action string, limit int) ([]*models.AdminAuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, actor, action, target_type, target_id, payload, created_at FROM admin_audit_log`
	args := []any{}
	if action != "" {
		query += ` WHERE action = $1`
		args = append(args, action)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admin audit log: %w", err)
	}
	defer rows.Close()

	var out []*models.AdminAuditLog
	for rows.Next() {
		var a models.AdminAuditLog
		var payload []byte
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.TargetType, &a.TargetID, &payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin audit row: %w", err)
		}
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
