package webhook_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/actions/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActionFactory_RequiresURL(t *testing.T) {
	factory := webhook.NewActionFactory()

	assert.Equal(t, "call_webhook", factory.ID())

	_, err := factory.Create(map[string]any{})
	assert.Error(t, err)
}

func TestAction_PostsJSONBody(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	factory := webhook.NewActionFactory()
	action, err := factory.Create(map[string]any{
		"url":     server.URL,
		"headers": map[string]any{"X-Token": "secret"},
		"body":    map[string]any{"user_id": "u-1"},
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"user_id": "u-1"}, received)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, resultMap["status_code"])
	assert.Equal(t, map[string]any{"ok": true}, resultMap["body"])
}

func TestAction_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte(`"recovered"`))
	}))
	defer server.Close()

	factory := webhook.NewActionFactory()
	action, err := factory.Create(map[string]any{
		"url":            server.URL,
		"method":         "get",
		"retry_attempts": float64(3),
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "recovered", resultMap["body"])
}

func TestAction_ClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad payload"}`))
	}))
	defer server.Close()

	factory := webhook.NewActionFactory()
	action, err := factory.Create(map[string]any{
		"url":            server.URL,
		"retry_attempts": float64(3),
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, resultMap["status_code"])
}

func TestAction_ExhaustedAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	factory := webhook.NewActionFactory()
	action, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	// A single attempt against a 5xx returns the response, not an error;
	// the last attempt never re-classifies as retryable.
	result, err := action.Execute(t.Context(), discardLogger())
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, resultMap["status_code"])
}
