package trigger

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow/stepflow/pkg/engine"
	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/persistence/file"
	"github.com/stepflow/stepflow/pkg/registry"
)

func newTestScheduler(t *testing.T, dir string) *Scheduler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := file.NewRepository(dir)
	require.NoError(t, err)

	eng := engine.New(logger, registry.NewRegistry(logger), engine.NewMemoryStore(), nil)

	return NewScheduler(logger, eng, repo)
}

func scheduledTemplate(id, expr string) *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		ID:      id,
		Name:    "Scheduled Template",
		Trigger: models.Trigger{Type: models.TriggerSchedule, Schedule: expr},
		Steps: []*models.Step{
			{
				ID:     "notify",
				Type:   models.StepTypeAction,
				Action: &models.ActionConfig{ActionType: "log"},
			},
		},
	}
}

func TestScheduler_RegistersOnlyScheduleTriggers(t *testing.T) {
	dir := t.TempDir()

	repo, err := file.NewRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.SaveTemplate(t.Context(), scheduledTemplate("tpl-cron", "@every 1h")))

	manual := scheduledTemplate("tpl-manual", "")
	manual.Trigger = models.Trigger{Type: models.TriggerManual}
	require.NoError(t, repo.SaveTemplate(t.Context(), manual))

	scheduler := newTestScheduler(t, dir)

	require.NoError(t, scheduler.Start(t.Context()))
	defer scheduler.Stop()

	assert.Len(t, scheduler.entries, 1)
	assert.Contains(t, scheduler.entries, "tpl-cron")
}

func TestScheduler_InvalidCronExpression(t *testing.T) {
	dir := t.TempDir()

	repo, err := file.NewRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.SaveTemplate(t.Context(), scheduledTemplate("tpl-bad", "not a cron expr")))

	scheduler := newTestScheduler(t, dir)

	err = scheduler.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tpl-bad")
}
