package moderation_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/actions/moderation"
)

func TestActionFactory_Create(t *testing.T) {
	factory := moderation.NewActionFactory()

	assert.Equal(t, "moderate_content", factory.ID())

	for _, decision := range []string{"approve", "reject", "flag", "remove"} {
		_, err := factory.Create(map[string]any{"content_id": "post-1", "decision": decision})
		assert.NoError(t, err, decision)
	}

	_, err := factory.Create(map[string]any{"content_id": "post-1", "decision": "escalate"})
	assert.Error(t, err)

	_, err = factory.Create(map[string]any{"decision": "approve"})
	assert.Error(t, err)
}

func TestAction_Execute(t *testing.T) {
	factory := moderation.NewActionFactory()

	action, err := factory.Create(map[string]any{
		"content_id": "post-1",
		"decision":   "flag",
		"reason":     "spam report",
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "post-1", resultMap["content_id"])
	assert.Equal(t, "flag", resultMap["decision"])
	assert.Equal(t, true, resultMap["moderated"])
}
