package models

import "time"

// FeedbackSeverity enumerates how urgent a feedback ticket is.
type FeedbackSeverity string

const (
	FeedbackSeverityLow      FeedbackSeverity = "low"
	FeedbackSeverityMedium   FeedbackSeverity = "medium"
	FeedbackSeverityHigh     FeedbackSeverity = "high"
	FeedbackSeverityCritical FeedbackSeverity = "critical"
)

// FeedbackType enumerates what kind of correction a ticket reports.
type FeedbackType string

const (
	FeedbackTypeCorrection  FeedbackType = "correction"
	FeedbackTypeFactError   FeedbackType = "fact_error"
	FeedbackTypeMissingInfo FeedbackType = "missing_info"
	FeedbackTypeRating      FeedbackType = "rating"
	FeedbackTypeSuggestion  FeedbackType = "suggestion"
	FeedbackTypeComplaint   FeedbackType = "complaint"
	FeedbackTypePraise      FeedbackType = "praise"
)

// FeedbackStatus enumerates the feedback workflow's state machine
// (spec.md §4.6: pending -> reviewing -> accepted|rejected -> resolved -> archived).
type FeedbackStatus string

const (
	FeedbackStatusPending   FeedbackStatus = "pending"
	FeedbackStatusReviewing FeedbackStatus = "reviewing"
	FeedbackStatusAccepted  FeedbackStatus = "accepted"
	FeedbackStatusRejected  FeedbackStatus = "rejected"
	FeedbackStatusResolved  FeedbackStatus = "resolved"
	FeedbackStatusArchived  FeedbackStatus = "archived"
)

// UserFeedback is a correction/complaint ticket raised against a turn.
type UserFeedback struct {
	ID                   string           `json:"id"`
	TenantID             string           `json:"tenant_id"`
	SiteID               string           `json:"site_id"`
	TraceID              string           `json:"trace_id,omitempty"`
	NPCID                string           `json:"npc_id,omitempty"`
	Severity             FeedbackSeverity `json:"severity"`
	Type                 FeedbackType     `json:"type"`
	Content              string           `json:"content"`
	Status               FeedbackStatus   `json:"status"`
	Assignee             string           `json:"assignee,omitempty"`
	Group                string           `json:"group,omitempty"`
	SLADueAt             *time.Time       `json:"sla_due_at,omitempty"`
	OverdueFlag          bool             `json:"overdue_flag"`
	TriagedAt            *time.Time       `json:"triaged_at,omitempty"`
	InProgressAt         *time.Time       `json:"in_progress_at,omitempty"`
	ClosedAt             *time.Time       `json:"closed_at,omitempty"`
	ResolvedByContentID  string           `json:"resolved_by_content_id,omitempty"`
	ResolvedByEvidenceID string           `json:"resolved_by_evidence_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// RoutingRuleCondition is the optional match clause of a feedback routing rule.
type RoutingRuleCondition struct {
	Severity FeedbackSeverity `json:"severity,omitempty"`
	Type     FeedbackType     `json:"type,omitempty"`
	SiteID   string           `json:"site_id,omitempty"`
	NPCID    string           `json:"npc_id,omitempty"`
}

// RoutingRuleAction is what a matched feedback routing rule assigns.
type RoutingRuleAction struct {
	Assignee string `json:"assignee,omitempty"`
	Group    string `json:"group"`
	SLAHours int    `json:"sla_hours"`
}

// RoutingRule is one entry in the hot-reloaded JSON routing rules file
// (spec.md §4.6).
type RoutingRule struct {
	ID         string               `json:"id"`
	Priority   int                  `json:"priority"`
	Conditions RoutingRuleCondition `json:"conditions"`
	Action     RoutingRuleAction    `json:"action"`
}

// RoutingResult is the outcome of matching a feedback ticket against the
// routing rule set.
type RoutingResult struct {
	Assignee    string `json:"assignee,omitempty"`
	Group       string `json:"group"`
	SLAHours    int    `json:"sla_hours"`
	MatchedRuleID string `json:"matched_rule_id,omitempty"`
}
