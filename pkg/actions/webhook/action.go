// Package webhook provides the generic HTTP caller action.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stepflow/stepflow/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "call_webhook"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("webhook action requires a url parameter")
	}

	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)
	if raw, ok := params["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, isStr := v.(string); isStr {
				headers[k] = s
			}
		}
	}

	attempts := 1
	if raw, ok := params["retry_attempts"].(float64); ok && raw > 1 {
		attempts = int(raw)
	}

	return &Action{
		URL:      url,
		Method:   strings.ToUpper(method),
		Headers:  headers,
		Body:     params["body"],
		Attempts: attempts,
		Timeout:  defaultTimeout,
	}, nil
}

// Action performs one HTTP request. Server errors (5xx) are retried up to
// Attempts times.
type Action struct {
	URL      string
	Method   string
	Headers  map[string]string
	Body     any
	Attempts int
	Timeout  time.Duration
}

func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (any, error) {
	var payload []byte

	if a.Body != nil {
		encoded, err := json.Marshal(a.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode webhook body: %w", err)
		}

		payload = encoded
	}

	client := &http.Client{Timeout: a.Timeout}

	var lastErr error

	for attempt := 1; attempt <= a.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying webhook call", "attempt", attempt, "url", a.URL)
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to build webhook request: %w", err)
		}

		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		for k, v := range a.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("webhook request failed: %w", err)

			continue
		}

		responseBody, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()

		if err != nil {
			return nil, fmt.Errorf("failed to read webhook response: %w", err)
		}

		if closeErr != nil {
			logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < a.Attempts {
			lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)

			continue
		}

		var decoded any
		if err := json.Unmarshal(responseBody, &decoded); err != nil {
			decoded = string(responseBody)
		}

		logger.InfoContext(ctx, "Webhook call completed", "url", a.URL, "status", resp.StatusCode)

		return map[string]any{
			"status_code": resp.StatusCode,
			"body":        decoded,
		}, nil
	}

	return nil, fmt.Errorf("webhook call to %s exhausted %d attempts: %w", a.URL, a.Attempts, lastErr)
}
