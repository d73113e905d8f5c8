// Package custom lets callers plug arbitrary Go handlers in as actions.
package custom

import (
	"context"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/protocol"
)

// Handler is the user-supplied function behind an execute_custom_action
// step. It receives the step's resolved parameters.
type Handler func(ctx context.Context, params map[string]any) (any, error)

type ActionFactory struct {
	id      string
	handler Handler
}

// NewActionFactory registers handler under the given action type id.
func NewActionFactory(id string, handler Handler) *ActionFactory {
	return &ActionFactory{id: id, handler: handler}
}

func (f *ActionFactory) ID() string {
	return f.id
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return &Action{handler: f.handler, params: params}, nil
}

type Action struct {
	handler Handler
	params  map[string]any
}

func (a *Action) Execute(ctx context.Context, _ *slog.Logger) (any, error) {
	return a.handler(ctx, a.params)
}
