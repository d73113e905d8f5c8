// Package trigger starts executions for templates whose trigger descriptor
// fires without an external caller.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stepflow/stepflow/pkg/engine"
	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/persistence"
)

// Scheduler runs every schedule-triggered template on its cron expression.
type Scheduler struct {
	logger *slog.Logger
	engine *engine.Engine
	repo   persistence.TemplateRepository

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func NewScheduler(logger *slog.Logger, eng *engine.Engine, repo persistence.TemplateRepository) *Scheduler {
	return &Scheduler{
		logger:  logger,
		engine:  eng,
		repo:    repo,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers all schedule triggers and begins firing them. Templates
// with other trigger types are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	templates, err := s.repo.Templates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tpl := range templates {
		if tpl.Trigger.Type != models.TriggerSchedule || tpl.Trigger.Schedule == "" {
			continue
		}

		if err := s.register(ctx, tpl); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "scheduled_templates", len(s.entries))

	return nil
}

func (s *Scheduler) register(ctx context.Context, tpl *models.WorkflowTemplate) error {
	entryID, err := s.cron.AddFunc(tpl.Trigger.Schedule, func() {
		s.logger.InfoContext(ctx, "Schedule trigger fired", "workflow_id", tpl.ID)

		result := s.engine.ExecuteWorkflow(ctx, tpl, models.Context{
			"trigger": map[string]any{"type": "schedule", "schedule": tpl.Trigger.Schedule},
		})
		if !result.Success {
			s.logger.ErrorContext(ctx, "Scheduled execution failed",
				"workflow_id", tpl.ID, "execution_id", result.ExecutionID, "error", result.Error)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for template %s: %w", tpl.Trigger.Schedule, tpl.ID, err)
	}

	s.entries[tpl.ID] = entryID

	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
