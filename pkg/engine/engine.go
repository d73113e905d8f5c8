// Package engine interprets workflow templates: it walks the step list,
// threads the execution context through every step, and owns the
// execution lifecycle state machine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stepflow/stepflow/pkg/eventbus"
	"github.com/stepflow/stepflow/pkg/events"
	"github.com/stepflow/stepflow/pkg/log"
	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/otelhelper"
	"github.com/stepflow/stepflow/pkg/registry"
)

type Engine struct {
	logger   *slog.Logger
	registry *registry.Registry
	store    ExecutionStore
	notifier EscalationNotifier
	reviews  *ReviewRegistry
	bus      eventbus.EventBus
	tracer   trace.Tracer

	// live holds in-flight executions by id so cancellation and lookups
	// land on the object the walk goroutine owns, even when the store
	// hands back detached snapshots (Redis).
	liveMu sync.RWMutex
	live   map[string]*models.Execution
}

// EscalationNotifier is re-exported here for wiring convenience; see
// protocol.EscalationNotifier for the contract.
type EscalationNotifier interface {
	Notify(ctx context.Context, recipients []string, message string, execCtx models.Context) error
}

func New(logger *slog.Logger, reg *registry.Registry, store ExecutionStore, notifier EscalationNotifier) *Engine {
	return &Engine{
		logger:   logger,
		registry: reg,
		store:    store,
		notifier: notifier,
		reviews:  NewReviewRegistry(),
		live:     make(map[string]*models.Execution),
	}
}

// WithEventBus makes the engine publish execution lifecycle events.
func (e *Engine) WithEventBus(bus eventbus.EventBus) *Engine {
	e.bus = bus

	return e
}

// WithTracer makes the engine open a span per execution and per step.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// ExecuteWorkflow runs a template to a terminal state and reports the
// outcome. Step failures never surface as a Go error to the caller; they
// are folded into the returned result.
func (e *Engine) ExecuteWorkflow(ctx context.Context, tpl *models.WorkflowTemplate, initial models.Context) *models.WorkflowResult {
	execution, wctx := e.prepare(tpl, initial)

	return e.run(ctx, tpl, execution, wctx)
}

// StartWorkflow begins a run in the background and returns its execution id
// immediately. Useful for callers that would otherwise block on a human
// review suspension.
func (e *Engine) StartWorkflow(ctx context.Context, tpl *models.WorkflowTemplate, initial models.Context) string {
	execution, wctx := e.prepare(tpl, initial)

	// Persist before returning so the id resolves immediately.
	e.saveQuietly(ctx, log.WithExecution(e.logger, tpl.ID, execution.ID), execution)

	go e.run(context.WithoutCancel(ctx), tpl, execution, wctx)

	return execution.ID
}

// prepare builds the execution with its starting context and registers it
// as live. Template variables are merged over the initial input; later
// keys win. The execution carries its own copy of the context; the walk
// mutates wctx and syncs it back at save points.
func (e *Engine) prepare(tpl *models.WorkflowTemplate, initial models.Context) (*models.Execution, models.Context) {
	wctx := models.Context{}
	if initial != nil {
		wctx.Merge(initial.Clone())
	}

	wctx.Merge(models.Context(tpl.Variables).Clone())

	execution := &models.Execution{
		ID:         "exec-" + uuid.New().String()[:8],
		WorkflowID: tpl.ID,
		Status:     models.ExecutionPending,
		Context:    wctx.Clone(),
		StartedAt:  time.Now().UTC(),
	}

	e.trackLive(execution)

	return execution, wctx
}

func (e *Engine) run(ctx context.Context, tpl *models.WorkflowTemplate, execution *models.Execution, wctx models.Context) *models.WorkflowResult {
	defer e.untrackLive(execution.ID)

	startedAt := execution.StartedAt

	logger := log.WithExecution(e.logger, tpl.ID, execution.ID)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.execute",
			attribute.String(otelhelper.WorkflowIDKey, tpl.ID),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		)
		defer span.End()
	}

	if err := e.store.Save(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution", "error", err)
	}

	if err := tpl.Validate(); err != nil {
		logger.ErrorContext(ctx, "Template rejected by validation", "error", err)

		return e.finish(ctx, logger, execution, startedAt, err)
	}

	execution.SetStatus(models.ExecutionRunning)
	e.saveQuietly(ctx, logger, execution)

	startedEvent := events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent, tpl.ID),
		ExecutionID:  execution.ID,
		WorkflowName: tpl.Name,
		TriggerType:  string(tpl.Trigger.Type),
		Variables:    tpl.Variables,
	}
	e.publish(ctx, logger, execution.ID, startedEvent)

	logger.InfoContext(ctx, "Starting execution", "steps", len(tpl.Steps))

	walkErr := e.runSteps(ctx, logger, execution, tpl.Steps, wctx)

	execution.SyncContext(wctx)

	return e.finish(ctx, logger, execution, startedAt, walkErr)
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, execution *models.Execution, startedAt time.Time, walkErr error) *models.WorkflowResult {
	errMsg := ""
	status := models.ExecutionCompleted

	if walkErr != nil {
		errMsg = walkErr.Error()
		status = models.ExecutionFailed
	}

	if !execution.Finish(status, errMsg) {
		// Terminal already: an external cancellation landed mid-walk.
		if errMsg == "" {
			errMsg = "execution cancelled"
		}

		status = execution.CurrentStatus()
	}

	e.saveQuietly(ctx, logger, execution)

	duration := time.Since(startedAt)

	if status == models.ExecutionCompleted {
		logger.InfoContext(ctx, "Execution completed", "duration", duration)
		e.publish(ctx, logger, execution.ID, events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, execution.WorkflowID),
			ExecutionID:   execution.ID,
			DurationMs:    duration.Milliseconds(),
			StepsExecuted: len(execution.LogEntries()),
			FinalContext:  execution.Context,
		})
	} else {
		logger.WarnContext(ctx, "Execution did not complete", "status", status, "error", errMsg)
		e.publish(ctx, logger, execution.ID, events.ExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
			ExecutionID:   execution.ID,
			Error:         errMsg,
			FailedStep:    execution.CurrentStepID(),
			DurationMs:    duration.Milliseconds(),
			StepsExecuted: len(execution.LogEntries()),
		})
	}

	return &models.WorkflowResult{
		Success:       status == models.ExecutionCompleted,
		ExecutionID:   execution.ID,
		FinalContext:  execution.Context,
		Error:         errMsg,
		ExecutionTime: duration,
	}
}

// CancelExecution requests cancellation of a run. The request is advisory:
// the status flips immediately, but a walk already in flight, including
// delays, review waits and parallel branches, runs to completion.
func (e *Engine) CancelExecution(ctx context.Context, executionID, cancelledBy string) error {
	// Cancel through the live object when the run is in flight; a store
	// read may hand back a detached snapshot that the walk never sees.
	execution, ok := e.liveExecution(executionID)
	if !ok {
		var err error

		execution, err = e.store.Get(ctx, executionID)
		if err != nil {
			return err
		}
	}

	if !execution.Finish(models.ExecutionCancelled, "execution cancelled") {
		return ErrExecutionFinished
	}

	e.saveQuietly(ctx, e.logger, execution)

	e.publish(ctx, e.logger, executionID, events.ExecutionCancelled{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCancelledEvent, execution.WorkflowID),
		ExecutionID: executionID,
		CancelledBy: cancelledBy,
	})

	return nil
}

// ResolveReview delivers an external reviewer decision to a suspended
// execution. Only the first resolution, human or timeout, wins.
func (e *Engine) ResolveReview(executionID, stepID string, decision models.ReviewDecision) error {
	return e.reviews.Resolve(executionID, stepID, decision)
}

// PendingReviews lists the reviews currently awaiting a decision.
func (e *Engine) PendingReviews() []models.PendingReview {
	return e.reviews.Pending()
}

// Execution looks up a run by id, preferring the live object over the
// store's possibly stale snapshot.
func (e *Engine) Execution(ctx context.Context, executionID string) (*models.Execution, error) {
	if execution, ok := e.liveExecution(executionID); ok {
		return execution, nil
	}

	return e.store.Get(ctx, executionID)
}

// Executions lists all known runs, with live objects standing in for their
// stored snapshots.
func (e *Engine) Executions(ctx context.Context) ([]*models.Execution, error) {
	executions, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}

	for i, execution := range executions {
		if live, ok := e.liveExecution(execution.ID); ok {
			executions[i] = live
		}
	}

	return executions, nil
}

func (e *Engine) trackLive(execution *models.Execution) {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()

	e.live[execution.ID] = execution
}

func (e *Engine) untrackLive(executionID string) {
	e.liveMu.Lock()
	defer e.liveMu.Unlock()

	delete(e.live, executionID)
}

func (e *Engine) liveExecution(executionID string) (*models.Execution, bool) {
	e.liveMu.RLock()
	defer e.liveMu.RUnlock()

	execution, ok := e.live[executionID]

	return execution, ok
}

func (e *Engine) saveQuietly(ctx context.Context, logger *slog.Logger, execution *models.Execution) {
	if err := e.store.Save(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution", "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) notifyEscalation(ctx context.Context, logger *slog.Logger, recipients []string, message string, wctx models.Context) {
	if e.notifier == nil || len(recipients) == 0 {
		logger.WarnContext(ctx, "Escalation requested but no notifier or recipients configured")

		return
	}

	if err := e.notifier.Notify(ctx, recipients, message, wctx); err != nil {
		logger.ErrorContext(ctx, "Failed to deliver escalation notification", "recipients", recipients, "error", err)
	}
}
