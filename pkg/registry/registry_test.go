package registry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/actions/custom"
	"github.com/stepflow/stepflow/pkg/registry"
)

func TestRegistry_CreateAction(t *testing.T) {
	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))

	reg.RegisterAction(custom.NewActionFactory("echo", func(_ context.Context, params map[string]any) (any, error) {
		return params["value"], nil
	}))

	action, err := reg.CreateAction("echo", map[string]any{"value": "hi"})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestRegistry_UnknownActionType(t *testing.T) {
	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := reg.CreateAction("nope", nil)
	assert.ErrorIs(t, err, registry.ErrUnknownAction)
}

func TestRegistry_ActionTypes(t *testing.T) {
	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))

	noop := func(_ context.Context, _ map[string]any) (any, error) { return nil, nil }

	reg.RegisterAction(custom.NewActionFactory("a", noop))
	reg.RegisterAction(custom.NewActionFactory("b", noop))

	assert.ElementsMatch(t, []string{"a", "b"}, reg.ActionTypes())
}
