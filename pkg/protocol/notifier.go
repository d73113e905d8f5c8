package protocol

import (
	"context"

	"github.com/stepflow/stepflow/pkg/models"
)

// EscalationNotifier is invoked when a human review step times out and when
// a step failure escalates. The engine consumes it; transports live outside
// the core.
type EscalationNotifier interface {
	Notify(ctx context.Context, recipients []string, message string, execCtx models.Context) error
}

// NotifierFunc adapts a function to the EscalationNotifier interface.
type NotifierFunc func(ctx context.Context, recipients []string, message string, execCtx models.Context) error

func (f NotifierFunc) Notify(ctx context.Context, recipients []string, message string, execCtx models.Context) error {
	return f(ctx, recipients, message, execCtx)
}
