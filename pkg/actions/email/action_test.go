package email_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/actions/email"
)

func TestActionFactory_RecipientCoercion(t *testing.T) {
	factory := email.NewActionFactory()

	assert.Equal(t, "send_email", factory.ID())

	tests := []struct {
		name   string
		to     any
		wantTo []string
		wantOk bool
	}{
		{name: "single string", to: "a@example.com", wantTo: []string{"a@example.com"}, wantOk: true},
		{name: "string slice", to: []string{"a@example.com", "b@example.com"}, wantTo: []string{"a@example.com", "b@example.com"}, wantOk: true},
		{name: "json array", to: []any{"a@example.com", "b@example.com"}, wantTo: []string{"a@example.com", "b@example.com"}, wantOk: true},
		{name: "empty string", to: "", wantOk: false},
		{name: "missing", to: nil, wantOk: false},
		{name: "array of non-strings", to: []any{1, 2}, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := factory.Create(map[string]any{"to": tt.to, "subject": "hi"})
			if !tt.wantOk {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)

			typed, ok := action.(*email.Action)
			require.True(t, ok)
			assert.Equal(t, tt.wantTo, typed.To)
		})
	}
}

func TestAction_Execute(t *testing.T) {
	factory := email.NewActionFactory()

	action, err := factory.Create(map[string]any{
		"to":      "user@example.com",
		"subject": "Account flagged",
		"body":    "Please review.",
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, resultMap["sent"])
	assert.Equal(t, []string{"user@example.com"}, resultMap["to"])
	assert.Equal(t, "Account flagged", resultMap["subject"])
}
