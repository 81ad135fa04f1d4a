package alerts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// MetricSource computes the current value of a rule's expression over its
// window, scoped to a tenant/site (spec.md §4.7 step 1: "compute
// current_value"). rule.Expr names one of a fixed vocabulary of metrics;
// rule.Window is a time.ParseDuration string such as "5m" or "1h".
type MetricSource interface {
	Evaluate(ctx context.Context, tenantID, siteID string, rule models.AlertRule) (float64, error)
}

// Named expressions a TraceMetricSource can evaluate. spec.md §4.7 leaves
// expr as a bare string rather than a PromQL-style grammar, so this package
// recognizes a small fixed vocabulary computed directly off trace_ledger
// instead of parsing a general expression language (see DESIGN.md).
const (
	ExprTurnFailureRate     = "turn_failure_rate"
	ExprAvgLatencyMs        = "avg_latency_ms"
	ExprGuardrailRefuseRate = "guardrail_refuse_rate"
	ExprTurnCount           = "turn_count"
)

// TraceMetricSource evaluates named metrics as aggregate queries over
// trace_ledger, windowed to "now - rule.Window" (spec.md §4.5 trace ledger).
type TraceMetricSource struct {
	db *sql.DB
}

// NewTraceMetricSource builds a TraceMetricSource over an already-connected
// database.
func NewTraceMetricSource(db *sql.DB) *TraceMetricSource {
	return &TraceMetricSource{db: db}
}

// Evaluate computes rule.Expr's current value over the trailing rule.Window.
func (m *TraceMetricSource) Evaluate(ctx context.Context, tenantID, siteID string, rule models.AlertRule) (float64, error) {
	switch rule.Expr {
	case ExprTurnCount:
		return m.scalar(ctx, `SELECT COUNT(*) FROM trace_ledger
			WHERE tenant_id = $1 AND site_id = $2 AND started_at > now() - $3::interval`, tenantID, siteID, rule.Window)
	case ExprTurnFailureRate:
		return m.rate(ctx, tenantID, siteID, rule.Window, `status = 'failed' OR status = 'timeout'`)
	case ExprGuardrailRefuseRate:
		return m.rate(ctx, tenantID, siteID, rule.Window, `guardrail_passed = false`)
	case ExprAvgLatencyMs:
		return m.scalar(ctx, `SELECT COALESCE(AVG(latency_ms), 0) FROM trace_ledger
			WHERE tenant_id = $1 AND site_id = $2 AND started_at > now() - $3::interval AND latency_ms IS NOT NULL`,
			tenantID, siteID, rule.Window)
	default:
		return 0, apperr.New(apperr.CategoryValidation, fmt.Sprintf("unrecognized alert expression %q", rule.Expr))
	}
}

func (m *TraceMetricSource) scalar(ctx context.Context, query string, args ...any) (float64, error) {
	var v float64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, fmt.Errorf("evaluate metric: %w", err)
	}
	return v, nil
}

func (m *TraceMetricSource) rate(ctx context.Context, tenantID, siteID, window, matchExpr string) (float64, error) {
	query := fmt.Sprintf(`SELECT
			COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0)::float / GREATEST(COUNT(*), 1)
		FROM trace_ledger WHERE tenant_id = $1 AND site_id = $2 AND started_at > now() - $3::interval`, matchExpr)
	return m.scalar(ctx, query, tenantID, siteID, window)
}
