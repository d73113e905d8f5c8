// Package moderation provides the moderate_content action adapter.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stepflow/stepflow/pkg/protocol"
)

var allowedDecisions = map[string]struct{}{
	"approve": {},
	"reject":  {},
	"flag":    {},
	"remove":  {},
}

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "moderate_content"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	contentID, _ := params["content_id"].(string)
	if contentID == "" {
		return nil, fmt.Errorf("moderation action requires a content_id parameter")
	}

	decision, _ := params["decision"].(string)
	if _, ok := allowedDecisions[decision]; !ok {
		return nil, fmt.Errorf("moderation action decision %q is not supported", decision)
	}

	reason, _ := params["reason"].(string)

	return &Action{ContentID: contentID, Decision: decision, Reason: reason}, nil
}

type Action struct {
	ContentID string
	Decision  string
	Reason    string
}

func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (any, error) {
	logger.InfoContext(ctx, "Applying moderation decision",
		"content_id", a.ContentID, "decision", a.Decision, "reason", a.Reason)

	return map[string]any{
		"content_id": a.ContentID,
		"decision":   a.Decision,
		"moderated":  true,
	}, nil
}
