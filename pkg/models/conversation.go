package models

import "time"

// MessageRole enumerates who authored a Message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Conversation is a session-grouped dialogue between a visitor and one NPC.
type Conversation struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	SiteID    string    `json:"site_id"`
	SessionID string    `json:"session_id"`
	NPCID     string    `json:"npc_id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn of dialogue within a Conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	EvidenceIDs    []string    `json:"evidence_ids,omitempty"`
	TraceID        string      `json:"trace_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
