// Package cleanup provides a background data-retention sweep over the
// conversation history and trace ledger tables.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/config"
)

// ConversationPurger purges conversations (and their messages) older than a
// cutoff. Satisfied by pkg/database.ConversationRepository.
type ConversationPurger interface {
	PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TracePurger purges completed trace ledger rows older than a cutoff.
// Satisfied by pkg/trace.Repository.
type TracePurger interface {
	PurgeTracesOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Service periodically enforces retention policies:
//   - Purges conversations (and cascading messages) past ConversationRetention
//   - Purges completed trace ledger rows past TraceRetention
//
// All operations are idempotent and safe to run from multiple instances.
type Service struct {
	config        *config.RetentionConfig
	conversations ConversationPurger
	traces        TracePurger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, conversations ConversationPurger, traces TracePurger) *Service {
	return &Service{config: cfg, conversations: conversations, traces: traces}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"conversation_retention", s.config.ConversationRetention,
		"trace_retention", s.config.TraceRetention,
		"sweep_interval", s.config.SweepInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeConversations(ctx)
	s.purgeTraces(ctx)
}

func (s *Service) purgeConversations(ctx context.Context) {
	count, err := s.conversations.PurgeOlderThan(ctx, s.config.ConversationRetention)
	if err != nil {
		slog.Error("Retention: conversation purge failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: purged stale conversations", "count", count)
	}
}

func (s *Service) purgeTraces(ctx context.Context) {
	count, err := s.traces.PurgeTracesOlderThan(ctx, s.config.TraceRetention)
	if err != nil {
		slog.Error("Retention: trace purge failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: purged stale trace ledger rows", "count", count)
	}
}
