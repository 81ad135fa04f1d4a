package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

type fakeProvider struct {
	calls   int
	content string
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func newTestCache(t *testing.T) *cache.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return cache.NewClientFromConn(rdb, "npcorch", cache.TTLPolicy{
		IntentCache: 300,
	})
}

func TestLLMClassifier_UsesProviderLabelAndCachesIt(t *testing.T) {
	provider := &fakeProvider{content: "fact_seeking"}
	c := NewLLMClassifier(provider, newTestCache(t), NewRuleClassifier())

	got, err := c.Classify(context.Background(), "t1", "s1", "when was this founded", "a wise elder")
	require.NoError(t, err)
	assert.Equal(t, models.IntentFactSeeking, got)
	assert.Equal(t, 1, provider.calls)

	// Second call with identical (query, persona) hits the cache, not the provider.
	got, err = c.Classify(context.Background(), "t1", "s1", "when was this founded", "a wise elder")
	require.NoError(t, err)
	assert.Equal(t, models.IntentFactSeeking, got)
	assert.Equal(t, 1, provider.calls)
}

func TestLLMClassifier_FallsBackToRuleOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("dependency down")}
	c := NewLLMClassifier(provider, newTestCache(t), NewRuleClassifier())

	got, err := c.Classify(context.Background(), "t1", "s1", "hello there", "a wise elder")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGreeting, got)
}

func TestLLMClassifier_UnrecognizedLabelFallsBackToUnknown(t *testing.T) {
	provider := &fakeProvider{content: "not-a-real-label"}
	c := NewLLMClassifier(provider, newTestCache(t), NewRuleClassifier())

	got, err := c.Classify(context.Background(), "t1", "s1", "banana", "a wise elder")
	require.NoError(t, err)
	assert.Equal(t, models.IntentUnknown, got)
}

func TestLLMClassifier_TimeoutFallsBackToRule(t *testing.T) {
	provider := &fakeProvider{err: context.DeadlineExceeded}
	c := NewLLMClassifier(provider, newTestCache(t), NewRuleClassifier())
	c.timeout = time.Millisecond

	got, err := c.Classify(context.Background(), "t1", "s1", "hi!", "a wise elder")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGreeting, got)
}
