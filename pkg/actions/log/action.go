// Package log_action provides the log action for debugging templates.
package log_action

import (
	"context"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "log"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	message, _ := params["message"].(string)
	level, _ := params["level"].(string)

	return &Action{Message: message, Level: level}, nil
}

type Action struct {
	Message string
	Level   string
}

func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (any, error) {
	switch a.Level {
	case "debug":
		logger.DebugContext(ctx, a.Message)
	case "warn":
		logger.WarnContext(ctx, a.Message)
	case "error":
		logger.ErrorContext(ctx, a.Message)
	default:
		logger.InfoContext(ctx, a.Message)
	}

	return map[string]any{"logged": a.Message}, nil
}
