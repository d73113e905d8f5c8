// Package registry maps action type names to their factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/protocol"
)

// ErrUnknownAction is returned when an action type has no registered factory.
var ErrUnknownAction = errors.New("action type not registered")

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction builds an action of the given type with resolved parameters.
func (r *Registry) CreateAction(actionType string, params map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, actionType)
	}

	return factory.Create(params)
}

// ActionTypes lists the registered action type names.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	return types
}
