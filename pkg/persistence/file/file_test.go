package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/persistence"
	"github.com/stepflow/stepflow/pkg/persistence/file"
)

func sampleTemplate(id string) *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		ID:      id,
		Name:    "Sample Template",
		Trigger: models.Trigger{Type: models.TriggerManual},
		Steps: []*models.Step{
			{
				ID:     "notify",
				Type:   models.StepTypeAction,
				Action: &models.ActionConfig{ActionType: "send_notification"},
			},
		},
		Variables: map[string]any{"channel": "ops"},
	}
}

func TestRepository_SaveAndLoad(t *testing.T) {
	repo, err := file.NewRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.SaveTemplate(t.Context(), sampleTemplate("tpl-1")))

	loaded, err := repo.TemplateByID(t.Context(), "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", loaded.ID)
	assert.Equal(t, "ops", loaded.Variables["channel"])
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, models.StepTypeAction, loaded.Steps[0].Type)
}

func TestRepository_Templates(t *testing.T) {
	repo, err := file.NewRepository(t.TempDir())
	require.NoError(t, err)

	templates, err := repo.Templates(t.Context())
	require.NoError(t, err)
	assert.Empty(t, templates)

	require.NoError(t, repo.SaveTemplate(t.Context(), sampleTemplate("tpl-1")))
	require.NoError(t, repo.SaveTemplate(t.Context(), sampleTemplate("tpl-2")))

	templates, err = repo.Templates(t.Context())
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}

func TestRepository_TemplateNotFound(t *testing.T) {
	repo, err := file.NewRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.TemplateByID(t.Context(), "missing")
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestRepository_Delete(t *testing.T) {
	repo, err := file.NewRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.SaveTemplate(t.Context(), sampleTemplate("tpl-1")))
	require.NoError(t, repo.DeleteTemplate(t.Context(), "tpl-1"))

	_, err = repo.TemplateByID(t.Context(), "tpl-1")
	assert.True(t, persistence.IsTemplateNotFound(err))

	err = repo.DeleteTemplate(t.Context(), "tpl-1")
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestRepository_HealthCheck(t *testing.T) {
	repo, err := file.NewRepository(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, repo.HealthCheck(t.Context()))
	assert.NoError(t, repo.Close(t.Context()))
}

func TestNewRepository_StripsFileScheme(t *testing.T) {
	dir := t.TempDir()

	repo, err := file.NewRepository("file://" + dir)
	require.NoError(t, err)

	require.NoError(t, repo.SaveTemplate(t.Context(), sampleTemplate("tpl-1")))

	loaded, err := repo.TemplateByID(t.Context(), "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", loaded.ID)
}
