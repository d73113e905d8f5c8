package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stepflow/stepflow/pkg/models"
)

func testContext() models.Context {
	return models.Context{
		"user": map[string]any{
			"name": "dana",
			"age":  34,
		},
		"tags":    []any{"a", "b"},
		"enabled": true,
	}
}

func TestResolveValue_LonePlaceholderKeepsNativeType(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, 34, ResolveValue("{{user.age}}", ctx))
	assert.Equal(t, true, ResolveValue("{{enabled}}", ctx))
	assert.Equal(t, []any{"a", "b"}, ResolveValue("{{tags}}", ctx))
	assert.Equal(t, 34, ResolveValue("  {{ user.age }}  ", ctx))
}

func TestResolveValue_EmbeddedPlaceholdersStringify(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, "hello dana, age 34", ResolveValue("hello {{user.name}}, age {{user.age}}", ctx))
}

func TestResolveValue_UnresolvablePaths(t *testing.T) {
	ctx := testContext()

	assert.Nil(t, ResolveValue("{{missing.path}}", ctx))
	assert.Equal(t, "value: ", ResolveValue("value: {{missing.path}}", ctx))
}

func TestResolveValue_NonStringPassThrough(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, 7, ResolveValue(7, ctx))
	assert.Equal(t, "plain", ResolveValue("plain", ctx))
	assert.Nil(t, ResolveValue(nil, ctx))
}

func TestResolveValue_RecursesIntoMapsAndSlices(t *testing.T) {
	ctx := testContext()

	resolved := ResolveValue(map[string]any{
		"to":   "{{user.name}}",
		"meta": map[string]any{"age": "{{user.age}}"},
		"list": []any{"{{user.name}}", "static"},
	}, ctx)

	assert.Equal(t, map[string]any{
		"to":   "dana",
		"meta": map[string]any{"age": 34},
		"list": []any{"dana", "static"},
	}, resolved)
}

func TestResolveParams_DoesNotMutateInput(t *testing.T) {
	ctx := testContext()
	params := map[string]any{"to": "{{user.name}}"}

	resolved := ResolveParams(params, ctx)

	assert.Equal(t, "dana", resolved["to"])
	assert.Equal(t, "{{user.name}}", params["to"])
}

func TestResolveParams_NilParams(t *testing.T) {
	assert.Nil(t, ResolveParams(nil, testContext()))
}
