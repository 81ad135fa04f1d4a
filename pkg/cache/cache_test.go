package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewClientFromConn(rdb, "npcorch", TTLPolicy{
		NPCProfile:    300,
		PromptActive:  300,
		SiteMap:       600,
		Evidence:      60,
		ToolResult:    60,
		RuntimeConfig: 60,
		IntentCache:   300,
	}), mr
}

func TestKeyBuilder_NPCProfile(t *testing.T) {
	kb := KeyBuilder{Prefix: "npcorch"}
	assert.Equal(t, "npcorch:t1:s1:npc_profile:ancestor_yan", kb.NPCProfile("t1", "s1", "ancestor_yan"))
	assert.Equal(t, "npcorch:t1:s1:prompt:ancestor_yan:active", kb.PromptActive("t1", "s1", "ancestor_yan"))
	assert.Equal(t, "npcorch:t1:s1:site_map:default", kb.SiteMap("t1", "s1"))
}

func TestKeyBuilder_Evidence_StableAcrossDomainOrder(t *testing.T) {
	kb := KeyBuilder{Prefix: "npcorch"}
	a := kb.Evidence("t1", "s1", "who founded this temple", []string{"history", "genealogy"})
	b := kb.Evidence("t1", "s1", "who founded this temple", []string{"genealogy", "history"})
	assert.Equal(t, a, b)

	c := kb.Evidence("t1", "s1", "who founded this temple", []string{"archive"})
	assert.NotEqual(t, a, c)
}

func TestClient_GetSetJSON_RoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	key := c.Keys().NPCProfile("t1", "s1", "npc1")

	var miss models.NPCProfile
	err := c.GetJSON(ctx, key, &miss)
	assert.ErrorIs(t, err, ErrMiss)

	profile := models.NPCProfile{ID: "p1", TenantID: "t1", SiteID: "s1", NPCID: "npc1", Version: 1, Active: true}
	c.SetJSON(ctx, key, profile, time.Duration(c.TTLFor(ResourceNPCProfile))*time.Second)

	var got models.NPCProfile
	require.NoError(t, c.GetJSON(ctx, key, &got))
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, profile.NPCID, got.NPCID)
}

func TestClient_Delete_Invalidates(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	key := c.Keys().SiteMap("t1", "s1")

	c.SetJSON(ctx, key, map[string]string{"hello": "world"}, time.Minute)
	var before map[string]string
	require.NoError(t, c.GetJSON(ctx, key, &before))

	c.Delete(ctx, key)

	var after map[string]string
	assert.ErrorIs(t, c.GetJSON(ctx, key, &after), ErrMiss)
}

func TestSessionMemory_AppendAndHistory(t *testing.T) {
	c, _ := newTestClient(t)
	sm := NewSessionMemory(c, 3, 200, time.Hour)
	ctx := context.Background()

	sm.Append(ctx, "t1", "s1", "sess1", SessionMessage{Role: models.MessageRoleUser, Content: "hello"})
	sm.Append(ctx, "t1", "s1", "sess1", SessionMessage{Role: models.MessageRoleAssistant, Content: "hi there"})
	sm.Append(ctx, "t1", "s1", "sess1", SessionMessage{Role: models.MessageRoleUser, Content: "who are you"})
	sm.Append(ctx, "t1", "s1", "sess1", SessionMessage{Role: models.MessageRoleAssistant, Content: "I am the ancestor"})

	history := sm.History(ctx, "t1", "s1", "sess1", 10)
	require.Len(t, history, 3)
	assert.Equal(t, "hi there", history[0].Content)
	assert.Equal(t, "I am the ancestor", history[2].Content)
}

func TestSessionMemory_TruncatesLongContent(t *testing.T) {
	c, _ := newTestClient(t)
	sm := NewSessionMemory(c, 10, 5, time.Hour)
	ctx := context.Background()

	sm.Append(ctx, "t1", "s1", "sess2", SessionMessage{Role: models.MessageRoleUser, Content: "this is way too long"})

	history := sm.History(ctx, "t1", "s1", "sess2", 10)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Content, 5)
}

func TestSessionMemory_Clear(t *testing.T) {
	c, _ := newTestClient(t)
	sm := NewSessionMemory(c, 10, 200, time.Hour)
	ctx := context.Background()

	sm.Append(ctx, "t1", "s1", "sess3", SessionMessage{Role: models.MessageRoleUser, Content: "hi"})
	sm.Clear(ctx, "t1", "s1", "sess3")

	history := sm.History(ctx, "t1", "s1", "sess3", 10)
	assert.Empty(t, history)
}
