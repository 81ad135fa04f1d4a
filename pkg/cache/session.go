package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// SessionMemory is the ephemeral short-term conversation buffer keyed by
// (tenant, site, session). It is a performance cache for prompt assembly,
// not the system of record — the trace ledger and conversations/messages
// tables hold the durable history.
type SessionMemory struct {
	client     *Client
	maxMessages int64
	maxChars   int
	ttl        time.Duration
}

// SessionMessage is one turn stored in session memory.
type SessionMessage struct {
	Role    models.MessageRole `json:"role"`
	Content string             `json:"content"`
}

// NewSessionMemory builds a SessionMemory bounded to maxMessages entries and
// maxChars total content length, expiring after ttl of inactivity.
func NewSessionMemory(client *Client, maxMessages int64, maxChars int, ttl time.Duration) *SessionMemory {
	return &SessionMemory{client: client, maxMessages: maxMessages, maxChars: maxChars, ttl: ttl}
}

func (s *SessionMemory) key(tenantID, siteID, sessionID string) string {
	return s.client.keys.Prefix + ":session:" + tenantID + ":" + siteID + ":" + sessionID + ":history"
}

// History returns up to the last limit messages for the session, oldest
// first. A Redis failure returns an empty slice rather than an error: session
// memory is best-effort context, and the turn pipeline must not fail a
// request because recall is unavailable.
func (s *SessionMemory) History(ctx context.Context, tenantID, siteID, sessionID string, limit int64) []SessionMessage {
	key := s.key(tenantID, siteID, sessionID)
	raw, err := s.client.rdb.LRange(ctx, key, -limit, -1).Result()
	if err != nil {
		slog.Warn("session history read failed", "session_id", sessionID, "error", err)
		return nil
	}

	out := make([]SessionMessage, 0, len(raw))
	for _, item := range raw {
		var msg SessionMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Append adds a message to the session's history, trims it to maxMessages
// entries, truncates content over maxChars, enforces the aggregate total
// content cap across the whole buffer, and refreshes the TTL.
func (s *SessionMemory) Append(ctx context.Context, tenantID, siteID, sessionID string, msg SessionMessage) {
	if len(msg.Content) > s.maxChars {
		msg.Content = msg.Content[:s.maxChars]
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("session message marshal failed", "session_id", sessionID, "error", err)
		return
	}

	key := s.key(tenantID, siteID, sessionID)
	pipe := s.client.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("session append failed", "session_id", sessionID, "error", err)
		return
	}

	s.enforceCharCap(ctx, key, sessionID)
}

// enforceCharCap drops the oldest entries in the buffer until the summed
// content length of what remains is within maxChars. LTrim by maxMessages
// alone bounds the entry count but not the aggregate size (a session memory
// cap of N messages of up to M chars each can still sum past M), so the
// total_chars <= M invariant needs this separate pass.
func (s *SessionMemory) enforceCharCap(ctx context.Context, key, sessionID string) {
	items, err := s.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		slog.Warn("session cap enforcement read failed", "session_id", sessionID, "error", err)
		return
	}

	total := 0
	keepFrom := 0
	for i := len(items) - 1; i >= 0; i-- {
		contentLen := 0
		var m SessionMessage
		if err := json.Unmarshal([]byte(items[i]), &m); err == nil {
			contentLen = len(m.Content)
		}
		if i < len(items)-1 && total+contentLen > s.maxChars {
			break
		}
		total += contentLen
		keepFrom = i
	}

	if keepFrom == 0 {
		return
	}
	if err := s.client.rdb.LTrim(ctx, key, int64(keepFrom), -1).Err(); err != nil {
		slog.Warn("session cap enforcement trim failed", "session_id", sessionID, "error", err)
	}
}

// Clear deletes a session's history, used when a conversation ends or a
// feedback-driven correction invalidates prior context.
func (s *SessionMemory) Clear(ctx context.Context, tenantID, siteID, sessionID string) {
	s.client.Delete(ctx, s.key(tenantID, siteID, sessionID))
}
