// Package file stores workflow templates as JSON documents on disk, one
// file per template.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/persistence"
)

type Repository struct {
	root string
}

// NewRepository creates the backing directory if it does not exist yet.
func NewRepository(root string) (*Repository, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(cleanRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create template directory %s: %w", cleanRoot, err)
	}

	return &Repository{root: cleanRoot}, nil
}

func (r *Repository) Templates(_ context.Context) ([]*models.WorkflowTemplate, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	templates := make([]*models.WorkflowTemplate, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		template, err := r.readTemplate(filepath.Join(r.root, entry.Name()))
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	return templates, nil
}

func (r *Repository) TemplateByID(_ context.Context, id string) (*models.WorkflowTemplate, error) {
	path := r.templatePath(id)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrTemplateNotFound, id)
	}

	return r.readTemplate(path)
}

func (r *Repository) SaveTemplate(_ context.Context, template *models.WorkflowTemplate) error {
	payload, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode template %s: %w", template.ID, err)
	}

	if err := os.WriteFile(r.templatePath(template.ID), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", template.ID, err)
	}

	return nil
}

func (r *Repository) DeleteTemplate(_ context.Context, id string) error {
	err := os.Remove(r.templatePath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", persistence.ErrTemplateNotFound, id)
	}

	return err
}

func (r *Repository) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return nil
}

func (r *Repository) templatePath(id string) string {
	return filepath.Join(r.root, id+".json")
}

func (r *Repository) readTemplate(path string) (*models.WorkflowTemplate, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	template := &models.WorkflowTemplate{}
	if err := json.Unmarshal(payload, template); err != nil {
		return nil, fmt.Errorf("failed to decode template file %s: %w", path, err)
	}

	return template, nil
}
