// Package userupdate provides the update_user action adapter.
package userupdate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "update_user"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	userID, _ := params["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("update_user action requires a user_id parameter")
	}

	fields, _ := params["fields"].(map[string]any)
	if len(fields) == 0 {
		return nil, fmt.Errorf("update_user action requires a fields parameter")
	}

	return &Action{UserID: userID, Fields: fields}, nil
}

type Action struct {
	UserID string
	Fields map[string]any
}

func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (any, error) {
	logger.InfoContext(ctx, "Applying user update", "user_id", a.UserID, "fields", a.Fields)

	return map[string]any{
		"user_id": a.UserID,
		"updated": a.Fields,
	}, nil
}
