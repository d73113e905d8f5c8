// Package protocol defines the contracts between the engine and its
// external collaborators.
package protocol

import (
	"context"
	"log/slog"
)

// Action is a single invocable unit of external work. It receives already
// resolved parameters at construction; failures propagate as ordinary step
// errors.
type Action interface {
	Execute(ctx context.Context, logger *slog.Logger) (any, error)
}

// ActionFactory builds actions from resolved step parameters.
type ActionFactory interface {
	ID() string
	Create(params map[string]any) (Action, error)
}
