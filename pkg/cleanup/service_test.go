package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/config"
)

type fakeConversationPurger struct {
	purged int64
	err    error
	calls  []time.Duration
}

func (f *fakeConversationPurger) PurgeOlderThan(_ context.Context, olderThan time.Duration) (int64, error) {
	f.calls = append(f.calls, olderThan)
	return f.purged, f.err
}

type fakeTracePurger struct {
	purged int64
	err    error
	calls  []time.Duration
}

func (f *fakeTracePurger) PurgeTracesOlderThan(_ context.Context, olderThan time.Duration) (int64, error) {
	f.calls = append(f.calls, olderThan)
	return f.purged, f.err
}

func testConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		ConversationRetention: 90 * 24 * time.Hour,
		TraceRetention:        180 * 24 * time.Hour,
		SweepInterval:         time.Hour,
	}
}

func TestService_RunAll_PurgesBothWithConfiguredCutoffs(t *testing.T) {
	convos := &fakeConversationPurger{purged: 3}
	traces := &fakeTracePurger{purged: 7}
	cfg := testConfig()

	svc := NewService(cfg, convos, traces)
	svc.runAll(context.Background())

	if len(convos.calls) != 1 || convos.calls[0] != cfg.ConversationRetention {
		t.Fatalf("expected one conversation purge call with %v, got %v", cfg.ConversationRetention, convos.calls)
	}
	if len(traces.calls) != 1 || traces.calls[0] != cfg.TraceRetention {
		t.Fatalf("expected one trace purge call with %v, got %v", cfg.TraceRetention, traces.calls)
	}
}

func TestService_RunAll_TracePurgeStillRunsAfterConversationPurgeFails(t *testing.T) {
	convos := &fakeConversationPurger{err: context.DeadlineExceeded}
	traces := &fakeTracePurger{purged: 1}

	svc := NewService(testConfig(), convos, traces)
	svc.runAll(context.Background())

	if len(traces.calls) != 1 {
		t.Fatal("expected trace purge to still run after conversation purge error")
	}
}

func TestService_StartStop_RunsAndStopsCleanly(t *testing.T) {
	convos := &fakeConversationPurger{}
	traces := &fakeTracePurger{}
	svc := NewService(testConfig(), convos, traces)

	svc.Start(context.Background())
	svc.Stop()

	if len(convos.calls) == 0 {
		t.Fatal("expected an immediate sweep on Start")
	}
}
