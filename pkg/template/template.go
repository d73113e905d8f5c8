// Package template resolves {{path.to.value}} placeholders in step
// parameters against the execution context.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stepflow/stepflow/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ResolveParams resolves every placeholder in a parameter map. The input is
// never mutated; nested maps and slices are resolved recursively.
func ResolveParams(params map[string]any, ctx models.Context) map[string]any {
	if params == nil {
		return nil
	}

	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = ResolveValue(v, ctx)
	}

	return resolved
}

// ResolveValue resolves placeholders in a single parameter value. A string
// that consists of exactly one placeholder yields the referenced value with
// its native type preserved; placeholders embedded in a larger string are
// stringified in place. Unresolvable paths yield nil for lone placeholders
// and an empty string when embedded.
func ResolveValue(value any, ctx models.Context) any {
	switch typed := value.(type) {
	case string:
		return resolveString(typed, ctx)
	case map[string]any:
		return ResolveParams(typed, ctx)
	case []any:
		resolved := make([]any, len(typed))
		for i, item := range typed {
			resolved[i] = ResolveValue(item, ctx)
		}

		return resolved
	default:
		return value
	}
}

func resolveString(s string, ctx models.Context) any {
	match := placeholderPattern.FindStringSubmatch(s)
	if match == nil {
		return s
	}

	// Lone placeholder keeps the native value type.
	if strings.TrimSpace(s) == match[0] {
		value, _ := ctx.Get(match[1])

		return value
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(placeholder string) string {
		path := placeholderPattern.FindStringSubmatch(placeholder)[1]

		value, ok := ctx.Get(path)
		if !ok || value == nil {
			return ""
		}

		if str, isStr := value.(string); isStr {
			return str
		}

		return fmt.Sprintf("%v", value)
	})
}
