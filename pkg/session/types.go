// Package session tracks in-flight turn executions so the orchestrator can
// cancel a turn's outstanding tool/LLM calls when its deadline expires and
// still persist a truncated trace on a best-effort side channel (spec.md
// §4.1 Cancellation). It does not store conversation history — that is
// pkg/cache.SessionMemory's job; this package only tracks the lifecycle of
// one Chat call while it is running.
package session

import (
	"context"
	"sync"
	"time"
)

// ExecutionStatus is a turn execution's lifecycle state.
type ExecutionStatus string

const (
	ExecutionPending    ExecutionStatus = "pending"
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
	ExecutionCancelled  ExecutionStatus = "cancelled"
	ExecutionTimedOut   ExecutionStatus = "timed_out"
)

// TurnExecution is one Chat call's in-flight bookkeeping: which trace/session
// it belongs to, its current status, and a cancel func the deadline watcher
// can invoke to abort any outstanding tool/LLM call.
type TurnExecution struct {
	TraceID   string
	SessionID string
	Status    ExecutionStatus
	StartedAt time.Time
	UpdatedAt time.Time
	Error     string

	mu         sync.RWMutex
	cancelFunc context.CancelFunc
}

// SetCancelFunc stores the function that aborts this turn's in-flight work.
func (e *TurnExecution) SetCancelFunc(cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelFunc = cancel
}

// SetStatus transitions the execution to status (thread-safe).
func (e *TurnExecution) SetStatus(status ExecutionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Status = status
	e.UpdatedAt = time.Now()
}

// Fail marks the execution failed with err's message.
func (e *TurnExecution) Fail(err string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Error = err
	e.Status = ExecutionFailed
	e.UpdatedAt = time.Now()
}

// Cancel invokes the stored cancel func and marks the execution cancelled.
// Returns false if no cancel func was registered (the turn never reached a
// cancellable stage, or already finished).
func (e *TurnExecution) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelFunc == nil {
		return false
	}
	e.cancelFunc()
	e.Status = ExecutionCancelled
	e.UpdatedAt = time.Now()
	return true
}

// TimedOut marks the execution as having exceeded its deadline.
func (e *TurnExecution) TimedOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Status = ExecutionTimedOut
	e.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the execution's current state, safe to read
// without holding the caller to the execution's lock.
func (e *TurnExecution) Snapshot() TurnExecution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return TurnExecution{
		TraceID:   e.TraceID,
		SessionID: e.SessionID,
		Status:    e.Status,
		StartedAt: e.StartedAt,
		UpdatedAt: e.UpdatedAt,
		Error:     e.Error,
	}
}
