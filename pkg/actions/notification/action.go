// Package notification provides the send_notification action adapter and
// the escalation notifier the engine consumes.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "send_notification"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	message, _ := params["message"].(string)
	if message == "" {
		return nil, fmt.Errorf("notification action requires a message parameter")
	}

	channel, _ := params["channel"].(string)
	if channel == "" {
		channel = "default"
	}

	return &Action{Message: message, Channel: channel, Recipients: params["recipients"]}, nil
}

type Action struct {
	Message    string
	Channel    string
	Recipients any
}

func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (any, error) {
	logger.InfoContext(ctx, "Dispatching notification",
		"channel", a.Channel, "recipients", a.Recipients)

	return map[string]any{
		"delivered": true,
		"channel":   a.Channel,
		"message":   a.Message,
	}, nil
}

// Notifier adapts the notification channel to the engine's escalation
// contract.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, recipients []string, message string, _ models.Context) error {
	n.logger.WarnContext(ctx, "Escalation notification",
		"recipients", recipients, "message", message)

	return nil
}
