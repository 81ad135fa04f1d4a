package models

import "time"

// ReleaseStatus enumerates a Release's lifecycle: draft -> active -> archived.
type ReleaseStatus string

const (
	ReleaseStatusDraft    ReleaseStatus = "draft"
	ReleaseStatusActive   ReleaseStatus = "active"
	ReleaseStatusArchived ReleaseStatus = "archived"
)

// ReleasePayload is the bundle a Release pins: policy version, per-NPC
// prompt versions, an optional experiment, and retrieval defaults.
type ReleasePayload struct {
	PolicyVersion     string            `json:"policy_version"`
	PromptsActiveMap  map[string]int    `json:"prompts_active_map"`
	ExperimentID      string            `json:"experiment_id,omitempty"`
	RetrievalDefaults RetrievalDefaults `json:"retrieval_defaults"`
}

// RetrievalDefaults are the per-release retrieval dials folded into the
// turn pipeline's retrieve_evidence call (spec.md §4.1 step 5).
type RetrievalDefaults struct {
	Strategy string  `json:"strategy,omitempty"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

// Release is an immutable bundle. Invariant: at most one active release per
// (tenant,site).
type Release struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	SiteID      string        `json:"site_id"`
	Name        string        `json:"name"`
	Status      ReleaseStatus `json:"status"`
	Payload     ReleasePayload `json:"payload"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	ActivatedAt *time.Time    `json:"activated_at,omitempty"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty"`
}

// ReleaseHistoryAction enumerates control-plane actions recorded against a release.
type ReleaseHistoryAction string

const (
	ReleaseActionActivate ReleaseHistoryAction = "activate"
	ReleaseActionRollback ReleaseHistoryAction = "rollback"
	ReleaseActionArchive  ReleaseHistoryAction = "archive"
)

// ReleaseHistory is an append-only audit trail of release transitions.
type ReleaseHistory struct {
	ID                string               `json:"id"`
	ReleaseID         string               `json:"release_id"`
	TenantID          string               `json:"tenant_id"`
	SiteID            string               `json:"site_id"`
	Action            ReleaseHistoryAction `json:"action"`
	PreviousReleaseID string               `json:"previous_release_id,omitempty"`
	Operator          string               `json:"operator"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ExperimentStatus enumerates an Experiment's lifecycle.
type ExperimentStatus string

const (
	ExperimentStatusDraft     ExperimentStatus = "draft"
	ExperimentStatusActive    ExperimentStatus = "active"
	ExperimentStatusPaused    ExperimentStatus = "paused"
	ExperimentStatusCompleted ExperimentStatus = "completed"
)

// ExperimentSubjectType enumerates what identity an experiment buckets on.
type ExperimentSubjectType string

const (
	SubjectTypeUserID    ExperimentSubjectType = "user_id"
	SubjectTypeSessionID ExperimentSubjectType = "session_id"
)

// ExperimentVariant is one weighted arm of an experiment.
type ExperimentVariant struct {
	Name              string         `json:"name"`
	Weight            int            `json:"weight"`
	StrategyOverrides map[string]any `json:"strategy_overrides,omitempty"`
}

// ExperimentConfig holds an experiment's variants and bucketing subject.
type ExperimentConfig struct {
	Variants      []ExperimentVariant   `json:"variants"`
	SubjectType   ExperimentSubjectType `json:"subject_type"`
	TargetMetrics []string              `json:"target_metrics,omitempty"`
}

// Experiment is an A/B test definition scoped to a (tenant,site).
type Experiment struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	SiteID    string           `json:"site_id"`
	Name      string           `json:"name"`
	Status    ExperimentStatus `json:"status"`
	Config    ExperimentConfig `json:"config"`
	StartAt   *time.Time       `json:"start_at,omitempty"`
	EndAt     *time.Time       `json:"end_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// WeightSum returns the sum of all variant weights; callers validate this
// equals 100 (spec.md §3: "Weights sum to 100").
func (c ExperimentConfig) WeightSum() int {
	sum := 0
	for _, v := range c.Variants {
		sum += v.Weight
	}
	return sum
}

// ExperimentAssignment binds a subject to a variant. Unique on
// (experiment_id, subject_key); stable for the life of the assignment.
type ExperimentAssignment struct {
	ID                string                `json:"id"`
	ExperimentID      string                `json:"experiment_id"`
	TenantID          string                `json:"tenant_id"`
	SiteID            string                `json:"site_id"`
	SubjectType       ExperimentSubjectType `json:"subject_type"`
	SubjectKey        string                `json:"subject_key"`
	Variant           string                `json:"variant"`
	BucketHash        int                   `json:"bucket_hash"`
	StrategyOverrides map[string]any        `json:"strategy_overrides,omitempty"`
	AssignedAt        time.Time             `json:"assigned_at"`
}

// RuntimeConfig is the resolved per-(tenant,site,npc) bundle the orchestrator
// reads at the start of every turn (spec.md §4.1 step 2).
type RuntimeConfig struct {
	ReleaseID         string            `json:"release_id,omitempty"`
	ReleaseName       string            `json:"release_name,omitempty"`
	PolicyVersion     string            `json:"policy_version"`
	PromptVersion     int               `json:"prompt_version,omitempty"`
	ExperimentID      string            `json:"experiment_id,omitempty"`
	RetrievalDefaults RetrievalDefaults `json:"retrieval_defaults"`
}
