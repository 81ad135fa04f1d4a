// Package feedback implements the correction-intake workflow (spec.md
// §4.6): submission with rule-based routing and an SLA deadline, a
// forward-only state machine, resolution binding back to content or
// evidence, and a periodic overdue scan.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Repository is the durable store for feedback tickets.
type Repository struct {
	db *sql.DB
}

// NewRepository builds a Repository over an already-connected database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const feedbackColumns = `id, tenant_id, site_id, trace_id, npc_id, severity, feedback_type, content, status,
	assignee, feedback_group, sla_due_at, overdue_flag, triaged_at, in_progress_at, closed_at,
	resolved_by_content_id, resolved_by_evidence_id, created_at`

func scanFeedback(row *sql.Row) (*models.UserFeedback, error) {
	var f models.UserFeedback
	if err := row.Scan(&f.ID, &f.TenantID, &f.SiteID, &nullString{&f.TraceID}, &nullString{&f.NPCID}, &f.Severity, &f.Type,
		&f.Content, &f.Status, &nullString{&f.Assignee}, &nullString{&f.Group}, &f.SLADueAt,
		&f.OverdueFlag, &f.TriagedAt, &f.InProgressAt, &f.ClosedAt,
		&nullString{&f.ResolvedByContentID}, &nullString{&f.ResolvedByEvidenceID}, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFeedbackFromRows(rows *sql.Rows) (*models.UserFeedback, error) {
	var f models.UserFeedback
	if err := rows.Scan(&f.ID, &f.TenantID, &f.SiteID, &nullString{&f.TraceID}, &nullString{&f.NPCID}, &f.Severity, &f.Type,
		&f.Content, &f.Status, &nullString{&f.Assignee}, &nullString{&f.Group}, &f.SLADueAt,
		&f.OverdueFlag, &f.TriagedAt, &f.InProgressAt, &f.ClosedAt,
		&nullString{&f.ResolvedByContentID}, &nullString{&f.ResolvedByEvidenceID}, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// nullString scans a possibly-NULL text column directly into a string
// field, leaving it empty on NULL.
type nullString struct {
	dest *string
}

func (n *nullString) Scan(src any) error {
	if src == nil {
		*n.dest = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*n.dest = v
	case []byte:
		*n.dest = string(v)
	default:
		return fmt.Errorf("unsupported scan source %T for nullString", src)
	}
	return nil
}

// Create inserts a new feedback ticket, already routed (status, assignee,
// group, sla_due_at populated by the caller).
func (r *Repository) Create(ctx context.Context, f *models.UserFeedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO user_feedback
		(id, tenant_id, site_id, trace_id, npc_id, severity, feedback_type, content, status, assignee, feedback_group,
		 sla_due_at, overdue_flag, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.TenantID, f.SiteID, nullableString(f.TraceID), nullableString(f.NPCID),
		f.Severity, f.Type, f.Content, f.Status, nullableString(f.Assignee), nullableString(f.Group),
		f.SLADueAt, f.OverdueFlag, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetByID fetches one feedback ticket scoped to a tenant/site.
func (r *Repository) GetByID(ctx context.Context, tenantID, siteID, id string) (*models.UserFeedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM user_feedback WHERE id = $1 AND tenant_id = $2 AND site_id = $3`
	row := r.db.QueryRowContext(ctx, query, id, tenantID, siteID)
	f, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("feedback", id)
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return f, nil
}

// ListFilter narrows List to a status and/or assignee/group.
type ListFilter struct {
	Status   models.FeedbackStatus
	Assignee string
	Group    string
}

// List returns feedback tickets for a tenant/site, most recent first,
// optionally narrowed by ListFilter.
func (r *Repository) List(ctx context.Context, tenantID, siteID string, filter ListFilter) ([]*models.UserFeedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM user_feedback WHERE tenant_id = $1 AND site_id = $2`
	args := []any{tenantID, siteID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Assignee != "" {
		args = append(args, filter.Assignee)
		query += fmt.Sprintf(` AND assignee = $%d`, len(args))
	}
	if filter.Group != "" {
		args = append(args, filter.Group)
		query += fmt.Sprintf(` AND feedback_group = $%d`, len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []*models.UserFeedback
	for rows.Next() {
		f, err := scanFeedbackFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return out, nil
}

// UpdateStatus persists a state-machine transition's new status and the
// timestamp column that transition owns (triaged_at/in_progress_at/closed_at).
// timestampColumn is never caller-supplied free text: it is one of the
// fixed constants timestampColumnFor returns.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, siteID, id string, status models.FeedbackStatus, timestampColumn string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE user_feedback SET status = $1, %s = $2 WHERE id = $3 AND tenant_id = $4 AND site_id = $5`, timestampColumn)
	res, err := r.db.ExecContext(ctx, query, status, at, id, tenantID, siteID)
	if err != nil {
		return fmt.Errorf("update feedback status: %w", err)
	}
	return checkRowsAffected(res, "feedback", id)
}

// Resolve binds a resolution to content and/or evidence and transitions to
// resolved, all in one statement.
func (r *Repository) Resolve(ctx context.Context, tenantID, siteID, id, contentID, evidenceID string, at time.Time) error {
	query := `UPDATE user_feedback SET status = $1, resolved_by_content_id = $2, resolved_by_evidence_id = $3, closed_at = $4
		WHERE id = $5 AND tenant_id = $6 AND site_id = $7`
	res, err := r.db.ExecContext(ctx, query, models.FeedbackStatusResolved, nullableString(contentID), nullableString(evidenceID), at, id, tenantID, siteID)
	if err != nil {
		return fmt.Errorf("resolve feedback: %w", err)
	}
	return checkRowsAffected(res, "feedback", id)
}

// MarkOverdue flags every ticket past its SLA deadline that is still open
// and not already flagged (spec.md §4.6 overdue scan), returning the count
// updated.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE user_feedback SET overdue_flag = true
		WHERE status NOT IN ($1, $2) AND sla_due_at IS NOT NULL AND sla_due_at < $3 AND overdue_flag = false`
	res, err := r.db.ExecContext(ctx, query, models.FeedbackStatusResolved, models.FeedbackStatusArchived, now)
	if err != nil {
		return 0, fmt.Errorf("mark overdue feedback: %w", err)
	}
	return res.RowsAffected()
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
