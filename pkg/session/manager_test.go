package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartGetFinish(t *testing.T) {
	m := NewManager()

	exec := m.Start("trace-1", "session-1")
	assert.Equal(t, ExecutionPending, exec.Status)

	got, err := m.Get("trace-1")
	require.NoError(t, err)
	assert.Same(t, exec, got)

	m.Finish("trace-1")
	_, err = m.Get("trace-1")
	assert.Error(t, err)
}

func TestManager_Get_UnknownTraceIDErrors(t *testing.T) {
	m := NewManager()
	_, err := m.Get("does-not-exist")
	assert.Error(t, err)
}

func TestTurnExecution_CancelInvokesStoredFunc(t *testing.T) {
	exec := &TurnExecution{Status: ExecutionProcessing}

	cancelled := false
	_, cancel := context.WithCancel(context.Background())
	exec.SetCancelFunc(func() {
		cancelled = true
		cancel()
	})

	ok := exec.Cancel()
	assert.True(t, ok)
	assert.True(t, cancelled)
	assert.Equal(t, ExecutionCancelled, exec.Status)
}

func TestTurnExecution_CancelWithoutFuncReturnsFalse(t *testing.T) {
	exec := &TurnExecution{Status: ExecutionPending}
	assert.False(t, exec.Cancel())
}

func TestTurnExecution_SnapshotIsIndependentCopy(t *testing.T) {
	exec := &TurnExecution{TraceID: "t1", Status: ExecutionProcessing}
	snap := exec.Snapshot()
	exec.SetStatus(ExecutionCompleted)

	assert.Equal(t, ExecutionProcessing, snap.Status)
	assert.Equal(t, ExecutionCompleted, exec.Status)
}
