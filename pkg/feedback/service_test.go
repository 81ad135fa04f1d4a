package feedback

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func writeRulesFile(t *testing.T, rules []models.RoutingRule) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routing.json")
	raw, err := json.Marshal(rules)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestRouter_Match_HighestPriorityWins(t *testing.T) {
	path := writeRulesFile(t, []models.RoutingRule{
		{ID: "low-prio", Priority: 1, Conditions: models.RoutingRuleCondition{Severity: models.FeedbackSeverityHigh}, Action: models.RoutingRuleAction{Group: "general", SLAHours: 48}},
		{ID: "high-prio", Priority: 10, Conditions: models.RoutingRuleCondition{Severity: models.FeedbackSeverityHigh}, Action: models.RoutingRuleAction{Group: "escalations", SLAHours: 4}},
	})
	router := NewRouter(path, time.Minute, "", 0)

	result := router.Match(&models.UserFeedback{Severity: models.FeedbackSeverityHigh})
	assert.Equal(t, "escalations", result.Group)
	assert.Equal(t, 4, result.SLAHours)
	assert.Equal(t, "high-prio", result.MatchedRuleID)
}

func TestRouter_Match_NoMatchFallsBackToDefault(t *testing.T) {
	path := writeRulesFile(t, []models.RoutingRule{
		{ID: "critical-only", Priority: 1, Conditions: models.RoutingRuleCondition{Severity: models.FeedbackSeverityCritical}, Action: models.RoutingRuleAction{Group: "escalations", SLAHours: 1}},
	})
	router := NewRouter(path, time.Minute, "", 0)

	result := router.Match(&models.UserFeedback{Severity: models.FeedbackSeverityLow})
	assert.Equal(t, DefaultGroup, result.Group)
	assert.Equal(t, DefaultSLAHours, result.SLAHours)
	assert.Empty(t, result.MatchedRuleID)
}

func TestRouter_Match_MissingFileFallsBackToDefault(t *testing.T) {
	router := NewRouter(filepath.Join(t.TempDir(), "missing.json"), time.Minute, "", 0)
	result := router.Match(&models.UserFeedback{Severity: models.FeedbackSeverityCritical})
	assert.Equal(t, DefaultGroup, result.Group)
	assert.Equal(t, DefaultSLAHours, result.SLAHours)
}

func TestService_Submit_RoutesAndSetsSLA(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	path := writeRulesFile(t, []models.RoutingRule{
		{ID: "r1", Priority: 5, Conditions: models.RoutingRuleCondition{Type: models.FeedbackTypeFactError}, Action: models.RoutingRuleAction{Group: "content-team", SLAHours: 8}},
	})
	svc := NewService(NewRepository(db), NewRouter(path, time.Minute, "", 0), nil)

	mock.ExpectExec(`INSERT INTO user_feedback`).WillReturnResult(sqlmock.NewResult(1, 1))

	f := &models.UserFeedback{TenantID: "t1", SiteID: "s1", Type: models.FeedbackTypeFactError, Severity: models.FeedbackSeverityMedium, Content: "wrong date"}
	out, err := svc.Submit(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusPending, out.Status)
	assert.Equal(t, "content-team", out.Group)
	require.NotNil(t, out.SLADueAt)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), *out.SLADueAt, time.Minute)
}

func TestService_Submit_RejectsEmptyContent(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), NewRouter("unused.json", time.Minute, "", 0), nil)
	_, err = svc.Submit(context.Background(), &models.UserFeedback{TenantID: "t1", SiteID: "s1", Type: models.FeedbackTypeRating, Severity: models.FeedbackSeverityLow})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))
}

func feedbackRow(id string, status models.FeedbackStatus) *sqlmock.Rows {
	cols := []string{"id", "tenant_id", "site_id", "trace_id", "npc_id", "severity", "feedback_type", "content", "status",
		"assignee", "feedback_group", "sla_due_at", "overdue_flag", "triaged_at", "in_progress_at", "closed_at",
		"resolved_by_content_id", "resolved_by_evidence_id", "created_at"}
	return sqlmock.NewRows(cols).AddRow(id, "t1", "s1", nil, nil, models.FeedbackSeverityMedium, models.FeedbackTypeFactError,
		"wrong date", status, nil, nil, time.Now().Add(time.Hour), false, nil, nil, nil, nil, nil, time.Now())
}

func TestService_Transition_RejectsBackwardMove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), NewRouter("unused.json", time.Minute, "", 0), nil)

	mock.ExpectQuery(`SELECT .* FROM user_feedback`).
		WithArgs("f1", "t1", "s1").
		WillReturnRows(feedbackRow("f1", models.FeedbackStatusResolved))

	_, err = svc.Transition(context.Background(), "t1", "s1", "f1", models.FeedbackStatusPending, "operator1")
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryConflict, apperr.CategoryOf(err))
}

func TestService_Transition_PendingToReviewingSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), NewRouter("unused.json", time.Minute, "", 0), nil)

	mock.ExpectQuery(`SELECT .* FROM user_feedback`).
		WithArgs("f1", "t1", "s1").
		WillReturnRows(feedbackRow("f1", models.FeedbackStatusPending))
	mock.ExpectExec(`UPDATE user_feedback SET status = \$1, triaged_at = \$2`).
		WithArgs(models.FeedbackStatusReviewing, sqlmock.AnyArg(), "f1", "t1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM user_feedback`).
		WithArgs("f1", "t1", "s1").
		WillReturnRows(feedbackRow("f1", models.FeedbackStatusReviewing))

	out, err := svc.Transition(context.Background(), "t1", "s1", "f1", models.FeedbackStatusReviewing, "operator1")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusReviewing, out.Status)
}

func TestService_Resolve_RequiresContentOrEvidence(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), NewRouter("unused.json", time.Minute, "", 0), nil)
	_, err = svc.Resolve(context.Background(), "t1", "s1", "f1", "", "", "operator1")
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))
}
