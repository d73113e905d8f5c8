package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_GetDotPath(t *testing.T) {
	ctx := Context{
		"user": map[string]any{
			"profile": map[string]any{"name": "dana"},
		},
		"count": 3,
	}

	name, ok := ctx.Get("user.profile.name")
	require.True(t, ok)
	assert.Equal(t, "dana", name)

	count, ok := ctx.Get("count")
	require.True(t, ok)
	assert.Equal(t, 3, count)

	_, ok = ctx.Get("user.profile.missing")
	assert.False(t, ok)

	_, ok = ctx.Get("count.inner")
	assert.False(t, ok)

	_, ok = ctx.Get("")
	assert.False(t, ok)
}

func TestContext_SetCreatesIntermediateMaps(t *testing.T) {
	ctx := Context{}

	ctx.Set("steps.fetch.status", 200)

	status, ok := ctx.Get("steps.fetch.status")
	require.True(t, ok)
	assert.Equal(t, 200, status)
}

func TestContext_SetReplacesNonMapIntermediate(t *testing.T) {
	ctx := Context{"steps": "oops"}

	ctx.Set("steps.fetch", "done")

	fetch, ok := ctx.Get("steps.fetch")
	require.True(t, ok)
	assert.Equal(t, "done", fetch)
}

func TestContext_CloneIsolatesNestedState(t *testing.T) {
	ctx := Context{
		"user":  map[string]any{"name": "dana"},
		"items": []any{1, 2},
	}

	cloned := ctx.Clone()
	cloned.Set("user.name", "bo")
	cloned.Set("extra", true)

	name, _ := ctx.Get("user.name")
	assert.Equal(t, "dana", name)

	_, ok := ctx.Get("extra")
	assert.False(t, ok)
}

func TestContext_MergeLastWins(t *testing.T) {
	ctx := Context{"a": 1, "b": 1}

	ctx.Merge(Context{"b": 2, "c": 3})

	assert.Equal(t, Context{"a": 1, "b": 2, "c": 3}, ctx)
}
