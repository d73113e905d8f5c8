package models

import "strings"

// Context is the mutable key/value state threaded through an execution.
// Steps read it through dot-separated paths and write results back into it.
type Context map[string]any

// Get resolves a dot-separated path against the context. Missing segments
// report ok=false rather than an error.
func (c Context) Get(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = map[string]any(c)

	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			if cm, isCtx := current.(Context); isCtx {
				m = map[string]any(cm)
			} else {
				return nil, false
			}
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Set writes a value at a dot-separated path, creating intermediate maps as
// needed. An intermediate segment that already holds a non-map value is
// replaced.
func (c Context) Set(path string, value any) {
	segments := strings.Split(path, ".")
	current := map[string]any(c)

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}

		current = next
	}

	current[segments[len(segments)-1]] = value
}

// Clone returns a deep copy of the context. Nested maps and slices are
// copied; leaf values are shared.
func (c Context) Clone() Context {
	cloned := make(Context, len(c))
	for k, v := range c {
		cloned[k] = cloneValue(v)
	}

	return cloned
}

// Merge shallow-merges other into the context. Keys from other win on
// collision.
func (c Context) Merge(other Context) {
	for k, v := range other {
		c[k] = v
	}
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(typed))
		for k, nested := range typed {
			m[k] = cloneValue(nested)
		}

		return m
	case Context:
		return map[string]any(typed.Clone())
	case []any:
		s := make([]any, len(typed))
		for i, nested := range typed {
			s[i] = cloneValue(nested)
		}

		return s
	default:
		return v
	}
}
