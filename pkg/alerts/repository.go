// Package alerts implements declarative alert evaluation (spec.md §4.7):
// a YAML rule set compared against a metric source on a schedule, with
// dedup-by-key firing rows, silence windows, and webhook fanout for newly
// firing high/critical alerts.
package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Repository is the durable store for alert events.
type Repository struct {
	db *sql.DB
}

// NewRepository builds a Repository over an already-connected database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const alertEventColumns = `id, tenant_id, site_id, dedup_key, alert_code, severity, status,
	first_seen_at, last_seen_at, resolved_at, context, webhook_sent, webhook_sent_at`

func scanAlertEvent(row *sql.Row) (*models.AlertEvent, error) {
	var e models.AlertEvent
	var contextJSON []byte
	if err := row.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.DedupKey, &e.AlertCode, &e.Severity, &e.Status,
		&e.FirstSeenAt, &e.LastSeenAt, &e.ResolvedAt, &contextJSON, &e.WebhookSent, &e.WebhookSentAt); err != nil {
		return nil, err
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
			return nil, fmt.Errorf("unmarshal alert context: %w", err)
		}
	}
	return &e, nil
}

func scanAlertEventFromRows(rows *sql.Rows) (*models.AlertEvent, error) {
	var e models.AlertEvent
	var contextJSON []byte
	if err := rows.Scan(&e.ID, &e.TenantID, &e.SiteID, &e.DedupKey, &e.AlertCode, &e.Severity, &e.Status,
		&e.FirstSeenAt, &e.LastSeenAt, &e.ResolvedAt, &contextJSON, &e.WebhookSent, &e.WebhookSentAt); err != nil {
		return nil, err
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
			return nil, fmt.Errorf("unmarshal alert context: %w", err)
		}
	}
	return &e, nil
}

// GetFiring returns the currently-firing row for a dedup key, if any.
func (r *Repository) GetFiring(ctx context.Context, tenantID, siteID, dedupKey string) (*models.AlertEvent, error) {
	query := `SELECT ` + alertEventColumns + ` FROM alert_events
		WHERE tenant_id = $1 AND site_id = $2 AND dedup_key = $3 AND status = $4`
	row := r.db.QueryRowContext(ctx, query, tenantID, siteID, dedupKey, models.AlertStatusFiring)
	e, err := scanAlertEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("alert_event", dedupKey)
		}
		return nil, fmt.Errorf("get firing alert: %w", err)
	}
	return e, nil
}

// ListFiring returns every currently-firing event for a tenant/site.
func (r *Repository) ListFiring(ctx context.Context, tenantID, siteID string) ([]*models.AlertEvent, error) {
	query := `SELECT ` + alertEventColumns + ` FROM alert_events WHERE tenant_id = $1 AND site_id = $2 AND status = $3`
	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID, models.AlertStatusFiring)
	if err != nil {
		return nil, fmt.Errorf("list firing alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.AlertEvent
	for rows.Next() {
		e, err := scanAlertEventFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert event row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert event rows: %w", err)
	}
	return out, nil
}

// Insert creates a new firing row (spec.md §4.7 step 3).
func (r *Repository) Insert(ctx context.Context, e *models.AlertEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	contextJSON, err := json.Marshal(e.Context)
	if err != nil {
		return fmt.Errorf("marshal alert context: %w", err)
	}
	query := `INSERT INTO alert_events
		(id, tenant_id, site_id, dedup_key, alert_code, severity, status, first_seen_at, last_seen_at, context)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = r.db.ExecContext(ctx, query, e.ID, e.TenantID, e.SiteID, e.DedupKey, e.AlertCode, e.Severity,
		e.Status, e.FirstSeenAt, e.LastSeenAt, contextJSON)
	if err != nil {
		return fmt.Errorf("insert alert event: %w", err)
	}
	return nil
}

// UpdateSeen refreshes last_seen_at and context for an already-firing row
// (spec.md §4.7 step 2: "update last_seen_at and current_value").
func (r *Repository) UpdateSeen(ctx context.Context, tenantID, siteID, dedupKey string, at time.Time, ctxData map[string]any) error {
	contextJSON, err := json.Marshal(ctxData)
	if err != nil {
		return fmt.Errorf("marshal alert context: %w", err)
	}
	query := `UPDATE alert_events SET last_seen_at = $1, context = $2
		WHERE tenant_id = $3 AND site_id = $4 AND dedup_key = $5 AND status = $6`
	_, err = r.db.ExecContext(ctx, query, at, contextJSON, tenantID, siteID, dedupKey, models.AlertStatusFiring)
	if err != nil {
		return fmt.Errorf("update alert event: %w", err)
	}
	return nil
}

// MarkWebhookSent records that the newly-firing notification went out.
func (r *Repository) MarkWebhookSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE alert_events SET webhook_sent = true, webhook_sent_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("mark webhook sent: %w", err)
	}
	return nil
}

// ResolveFiring transitions a no-longer-matching firing row to resolved
// (spec.md §4.7: "a rule previously firing that no longer matches
// transitions to resolved, resolved_at=now").
func (r *Repository) ResolveFiring(ctx context.Context, tenantID, siteID, dedupKey string, at time.Time) error {
	query := `UPDATE alert_events SET status = $1, resolved_at = $2
		WHERE tenant_id = $3 AND site_id = $4 AND dedup_key = $5 AND status = $6`
	_, err := r.db.ExecContext(ctx, query, models.AlertStatusResolved, at, tenantID, siteID, dedupKey, models.AlertStatusFiring)
	if err != nil {
		return fmt.Errorf("resolve alert event: %w", err)
	}
	return nil
}

// TryAcquireLease attempts a non-blocking, process-wide lease on
// (tenant,site,rule_code) so alert evaluation runs single-instance per rule
// (spec.md §5: "a lease (row-level or distributed lock) prevents double
// writes"). The session-level Postgres advisory lock is held on a single
// checked-out connection; call the returned release func to drop it.
// acquired is false (release is a no-op) if another instance holds it.
func (r *Repository) TryAcquireLease(ctx context.Context, tenantID, siteID, ruleCode string) (release func(), acquired bool, err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("checkout lease connection: %w", err)
	}

	key := tenantID + ":" + siteID + ":" + ruleCode
	var ok bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Close()
		return func() {}, false, nil
	}

	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, key)
		conn.Close()
	}, true, nil
}
