package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// EventRepository is the storage-backed implementation of pkg/tools.EventLogger.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository builds an EventRepository over an already-connected database.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// LogEvent appends one analytics event row.
func (r *EventRepository) LogEvent(ctx context.Context, tenantID, siteID string, in tools.LogUserEventInput) error {
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analytics_events (id, tenant_id, site_id, event_type, payload) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), tenantID, siteID, in.EventType, payload)
	if err != nil {
		return fmt.Errorf("log analytics event: %w", err)
	}
	return nil
}
