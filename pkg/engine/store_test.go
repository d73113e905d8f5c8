package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/models"
)

func testExecution(id string) *models.Execution {
	return &models.Execution{
		ID:         id,
		WorkflowID: "wf-1",
		Status:     models.ExecutionPending,
		Context:    models.Context{},
		StartedAt:  time.Now().UTC(),
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()

	execution := testExecution("exec-1")
	require.NoError(t, store.Save(t.Context(), execution))

	got, err := store.Get(t.Context(), "exec-1")
	require.NoError(t, err)

	// Same pointer: engine-side status changes are visible to readers.
	assert.Same(t, execution, got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(t.Context(), "exec-missing")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save(t.Context(), testExecution("exec-1")))
	require.NoError(t, store.Delete(t.Context(), "exec-1"))

	_, err := store.Get(t.Context(), "exec-1")
	assert.ErrorIs(t, err, ErrExecutionNotFound)

	err = store.Delete(t.Context(), "exec-1")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save(t.Context(), testExecution("exec-1")))
	require.NoError(t, store.Save(t.Context(), testExecution("exec-2")))

	executions, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, executions, 2)
}
