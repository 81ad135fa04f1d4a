package models

import "time"

// TraceStatus enumerates a turn's outcome, recorded on the trace ledger row.
type TraceStatus string

const (
	TraceStatusInProgress TraceStatus = "in_progress"
	TraceStatusCompleted  TraceStatus = "completed"
	TraceStatusFailed     TraceStatus = "failed"
	TraceStatusTimeout    TraceStatus = "timeout"
)

// ToolCallRecord is one entry in a trace's tool_calls list.
type ToolCallRecord struct {
	ToolName   string  `json:"tool_name"`
	Status     string  `json:"status"`
	LatencyMs  int64   `json:"latency_ms"`
	Error      string  `json:"error,omitempty"`
}

// TraceLedger is one append-only row per turn (spec.md §3, §4.5). Append-only
// after CompletedAt is set; corrections are new rows referencing the old by
// trace_id in StrategySnapshot metadata.
type TraceLedger struct {
	TraceID           string           `json:"trace_id"`
	TenantID          string           `json:"tenant_id"`
	SiteID            string           `json:"site_id"`
	SessionID         string           `json:"session_id"`
	UserID            string           `json:"user_id,omitempty"`
	NPCID             string           `json:"npc_id,omitempty"`
	RequestType       string           `json:"request_type"`
	RequestInput      map[string]any   `json:"request_input"`
	ToolCalls         []ToolCallRecord `json:"tool_calls"`
	EvidenceIDs       []string         `json:"evidence_ids"`
	EvidenceChain     []Citation       `json:"evidence_chain"`
	PolicyMode        PolicyMode       `json:"policy_mode"`
	PolicyReason      string           `json:"policy_reason"`
	AppliedRuleID     string           `json:"applied_rule_id,omitempty"`
	PolicyVersion     string           `json:"policy_version,omitempty"`
	ResponseOutput    string           `json:"response_output"`
	LatencyMs         *int64           `json:"latency_ms,omitempty"`
	Tokens            *int             `json:"tokens,omitempty"`
	Cost              *float64         `json:"cost,omitempty"`
	GuardrailPassed   bool             `json:"guardrail_passed"`
	ReleaseID         string           `json:"release_id,omitempty"`
	ExperimentID      string           `json:"experiment_id,omitempty"`
	ExperimentVariant string           `json:"experiment_variant,omitempty"`
	StrategySnapshot  map[string]any   `json:"strategy_snapshot,omitempty"`
	StartedAt         time.Time        `json:"started_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	Status            TraceStatus      `json:"status"`
}

// MarkSuccess completes a trace row with the LLM's response and usage.
func (t *TraceLedger) MarkSuccess(responseOutput string, completedAt time.Time, tokens int, cost float64) {
	latency := completedAt.Sub(t.StartedAt).Milliseconds()
	t.ResponseOutput = responseOutput
	t.CompletedAt = &completedAt
	t.LatencyMs = &latency
	t.Tokens = &tokens
	t.Cost = &cost
	t.Status = TraceStatusCompleted
}

// MarkFailed completes a trace row after an unrecoverable failure.
func (t *TraceLedger) MarkFailed(completedAt time.Time, reason string) {
	latency := completedAt.Sub(t.StartedAt).Milliseconds()
	t.CompletedAt = &completedAt
	t.LatencyMs = &latency
	t.PolicyReason = reason
	t.Status = TraceStatusFailed
}

// AdminAuditAction names a control-plane action recorded in the admin audit log.
type AdminAuditAction string

const (
	AuditActionPolicyCreate       AdminAuditAction = "policy.create"
	AuditActionPolicyRollback     AdminAuditAction = "policy.rollback"
	AuditActionReleaseActivate    AdminAuditAction = "release.activate"
	AuditActionReleaseRollback    AdminAuditAction = "release.rollback"
	AuditActionFeedbackTriage     AdminAuditAction = "feedback.triage"
	AuditActionFeedbackStatus     AdminAuditAction = "feedback.status_update"
	AuditActionFeedbackResolve    AdminAuditAction = "feedback.resolve"
)

// AdminAuditTargetType names what kind of entity an admin audit row targets.
type AdminAuditTargetType string

const (
	AuditTargetPolicy   AdminAuditTargetType = "policy"
	AuditTargetRelease  AdminAuditTargetType = "release"
	AuditTargetFeedback AdminAuditTargetType = "feedback"
)

// AdminAuditLog is a separate append-only log for control-plane actions
// (spec.md §4.5).
type AdminAuditLog struct {
	ID         string                `json:"id"`
	Actor      string                `json:"actor"`
	Action     AdminAuditAction      `json:"action"`
	TargetType AdminAuditTargetType  `json:"target_type"`
	TargetID   string                `json:"target_id"`
	Payload    map[string]any        `json:"payload"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ToolCallAudit is one row per tools/call invocation (spec.md §4.2).
type ToolCallAudit struct {
	ID                 string    `json:"id"`
	TraceID            string    `json:"trace_id,omitempty"`
	TenantID           string    `json:"tenant_id"`
	SiteID             string    `json:"site_id"`
	ToolName           string    `json:"tool_name"`
	Status             string    `json:"status"`
	LatencyMs          int64     `json:"latency_ms"`
	RequestPayloadHash string    `json:"request_payload_hash"`
	Error              string    `json:"error,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
