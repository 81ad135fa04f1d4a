package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// NewTrace starts a trace ledger row for one turn (spec.md §4.1 step 1). If
// traceID is empty a new one is generated, matching the Resolve step's
// "generate trace_id if caller omitted one" rule.
func NewTrace(traceID, tenantID, siteID, sessionID, userID, npcID string, startedAt time.Time) *models.TraceLedger {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return &models.TraceLedger{
		TraceID:         traceID,
		TenantID:        tenantID,
		SiteID:          siteID,
		SessionID:       sessionID,
		UserID:          userID,
		NPCID:           npcID,
		RequestType:     "chat",
		RequestInput:    map[string]any{},
		ToolCalls:       []models.ToolCallRecord{},
		EvidenceIDs:     []string{},
		EvidenceChain:   []models.Citation{},
		GuardrailPassed: true,
		StartedAt:       startedAt,
		Status:          models.TraceStatusInProgress,
	}
}

// Writer is the narrow persistence port the orchestrator depends on,
// satisfied by *Repository.
type Writer interface {
	InsertTrace(ctx context.Context, t *models.TraceLedger) error
}

// PersistBestEffort writes t on a fresh background context so a caller
// timeout does not also abort the write, logging rather than propagating any
// failure. Used for the cancellation side channel (spec.md §4.1
// Cancellation: "a truncated trace is persisted on a best-effort side
// channel") and is safe to call from a deferred goroutine.
func PersistBestEffort(w Writer, t *models.TraceLedger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.InsertTrace(ctx, t); err != nil {
			slog.Warn("best-effort trace persistence failed",
				"trace_id", t.TraceID, "status", t.Status, "error", err)
		}
	}()
}

// MarkTimeout completes t as a timed-out turn: a truncated trace with
// whatever fields the pipeline had populated before the deadline fired.
func MarkTimeout(t *models.TraceLedger, completedAt time.Time) {
	latency := completedAt.Sub(t.StartedAt).Milliseconds()
	t.CompletedAt = &completedAt
	t.LatencyMs = &latency
	t.Status = models.TraceStatusTimeout
}
