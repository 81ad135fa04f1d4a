package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// ConversationRepository is the durable storage for session-grouped
// dialogue. pkg/cache.SessionMemory is the hot read path for prompt
// assembly; this repository is the system of record messages are ordered
// by (spec.md §3 Conversation/Message, §9 "messages are ordered by
// created_at monotonically").
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository builds a ConversationRepository over an
// already-connected database.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreateConversation returns the (tenant,site,session,npc) conversation
// row, creating it on first use. Concurrent first calls race harmlessly:
// the unique constraint absorbs the duplicate insert and the loser re-reads.
func (r *ConversationRepository) GetOrCreateConversation(ctx context.Context, tenantID, siteID, sessionID, npcID, userID string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, site_id, session_id, npc_id, user_id, created_at
		 FROM conversations WHERE tenant_id = $1 AND site_id = $2 AND session_id = $3 AND npc_id = $4`,
		tenantID, siteID, sessionID, npcID)
	conv, err := scanConversation(row)
	if err == nil {
		return conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, tenant_id, site_id, session_id, npc_id, user_id)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (tenant_id, site_id, session_id, npc_id) DO NOTHING`,
		id, tenantID, siteID, sessionID, npcID, nullable(userID))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	row = r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, site_id, session_id, npc_id, user_id, created_at
		 FROM conversations WHERE tenant_id = $1 AND site_id = $2 AND session_id = $3 AND npc_id = $4`,
		tenantID, siteID, sessionID, npcID)
	conv, err = scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("re-read conversation after insert: %w", err)
	}
	return conv, nil
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var c models.Conversation
	var userID sql.NullString
	if err := row.Scan(&c.ID, &c.TenantID, &c.SiteID, &c.SessionID, &c.NPCID, &userID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.UserID = userID.String
	return &c, nil
}

// InsertMessage appends one message row to a conversation.
func (r *ConversationRepository) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, evidence_ids, trace_id)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, pq.Array(msg.EvidenceIDs), nullable(msg.TraceID))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// WithSessionLock runs fn holding a Postgres transaction-scoped advisory
// lock keyed by (tenant,site,session), so two concurrent turns for the same
// session cannot interleave message/trace writes (spec.md §9: "the pipeline
// serialises writes per session_id"). The lock is released automatically
// when the transaction ends.
func (r *ConversationRepository) WithSessionLock(ctx context.Context, tenantID, siteID, sessionID string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	key := tenantID + ":" + siteID + ":" + sessionID
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// PurgeOlderThan deletes conversations (and, by cascade, their messages)
// whose last activity is older than olderThan, across every tenant. Used by
// the retention cron (pkg/cleanup) — conversations are the system of
// record for dialogue history and otherwise grow without bound.
func (r *ConversationRepository) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id IN (
			SELECT c.id FROM conversations c
			LEFT JOIN messages m ON m.conversation_id = c.id
			GROUP BY c.id, c.created_at
			HAVING COALESCE(MAX(m.created_at), c.created_at) < now() - $1::interval
		)`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("purge stale conversations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
