// Package persistence provides the storage abstraction for workflow
// templates. Executions live in the engine's own store.
package persistence

import (
	"context"
	"errors"

	"github.com/stepflow/stepflow/pkg/models"
)

// ErrTemplateNotFound is returned when a template id does not resolve.
var ErrTemplateNotFound = errors.New("template not found")

type TemplateRepository interface {
	Templates(ctx context.Context) ([]*models.WorkflowTemplate, error)
	TemplateByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	SaveTemplate(ctx context.Context, template *models.WorkflowTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// IsTemplateNotFound reports whether err wraps ErrTemplateNotFound.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
