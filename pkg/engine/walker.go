package engine

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stepflow/stepflow/pkg/events"
	"github.com/stepflow/stepflow/pkg/models"
	"github.com/stepflow/stepflow/pkg/otelhelper"
	"github.com/stepflow/stepflow/pkg/template"
)

// stepOutcome carries a step's result plus the branch target a condition
// step selected.
type stepOutcome struct {
	result any
	target string
}

// runSteps walks one step list: a flat instruction array with conditional
// and unconditional jumps. Step ids resolve only within this list; loop and
// parallel sub-lists run their own walks. An unresolvable jump target falls
// through to the next sequential step on purpose.
func (e *Engine) runSteps(ctx context.Context, logger *slog.Logger, execution *models.Execution, steps []*models.Step, wctx models.Context) error {
	indexByID := make(map[string]int, len(steps))
	for i, step := range steps {
		indexByID[step.ID] = i
	}

	cursor := 0
	for cursor < len(steps) {
		step := steps[cursor]
		execution.SetCurrentStep(step.ID)

		outcome, err := e.runStepWithRetry(ctx, logger, execution, step, wctx)
		if err != nil {
			abort := e.applyErrorPolicy(ctx, logger, step, wctx, err)
			if abort != nil {
				return abort
			}

			cursor++

			continue
		}

		target := outcome.target
		if target == "" {
			target = step.NextStep
		}

		if idx, ok := indexByID[target]; ok && target != "" {
			cursor = idx

			continue
		}

		cursor++
	}

	return nil
}

// runStepWithRetry wraps a single step with logging and the bounded retry
// controller. Retries apply only when the step's error policy is retry and
// a retry policy is present; each attempt gets its own log entry, earlier
// attempts as retrying, the last as failed.
func (e *Engine) runStepWithRetry(ctx context.Context, logger *slog.Logger, execution *models.Execution, step *models.Step, wctx models.Context) (stepOutcome, error) {
	policy := step.RetryPolicy

	maxAttempts := 1
	if step.ErrorHandling.Mode() == models.ErrorModeRetry && policy != nil {
		maxAttempts = policy.MaxAttempts
	}

	for attempt := 1; ; attempt++ {
		entry := models.ExecutionLogEntry{
			StepID:     step.ID,
			StepName:   step.Name,
			StartTime:  time.Now().UTC(),
			RetryCount: attempt - 1,
		}

		outcome, err := e.dispatch(ctx, logger, execution, step, wctx)

		end := time.Now().UTC()
		entry.EndTime = &end
		entry.Duration = end.Sub(entry.StartTime)

		if err == nil {
			entry.Status = models.LogSuccess
			entry.Result = outcome.result
			execution.AppendLog(entry)

			e.publish(ctx, logger, execution.ID, events.StepFinished{
				BaseEvent:   events.NewBaseEvent(events.StepFinishedEvent, execution.WorkflowID),
				ExecutionID: execution.ID,
				StepID:      step.ID,
				StepName:    step.Name,
				DurationMs:  entry.Duration.Milliseconds(),
				Result:      outcome.result,
			})

			return outcome, nil
		}

		entry.Error = err.Error()

		willRetry := attempt < maxAttempts && retryable(policy, err)
		if willRetry {
			entry.Status = models.LogRetrying
		} else {
			entry.Status = models.LogFailed
		}

		execution.AppendLog(entry)
		logger.WarnContext(ctx, "Step failed", "step_id", step.ID, "attempt", attempt, "error", err)

		e.publish(ctx, logger, execution.ID, events.StepFailed{
			BaseEvent:   events.NewBaseEvent(events.StepFailedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			StepID:      step.ID,
			StepName:    step.Name,
			Error:       err.Error(),
			RetryCount:  attempt - 1,
		})

		if !willRetry {
			return outcome, err
		}

		time.Sleep(backoffDelay(policy, attempt))
	}
}

// applyErrorPolicy decides what a step failure means for the walk. A nil
// return continues with the next step; a non-nil return aborts the walk and
// propagates to the execution controller.
func (e *Engine) applyErrorPolicy(ctx context.Context, logger *slog.Logger, step *models.Step, wctx models.Context, err error) error {
	handling := step.ErrorHandling

	if handling != nil && handling.NotifyOnError && len(handling.NotifyRecipients) > 0 {
		e.notifyEscalation(ctx, logger, handling.NotifyRecipients,
			fmt.Sprintf("step %s failed: %v", step.ID, err), wctx)
	}

	switch handling.Mode() {
	case models.ErrorModeContinue:
		logger.InfoContext(ctx, "Absorbing step failure", "step_id", step.ID, "error", err)

		return nil
	case models.ErrorModeFallback:
		// Fallback jumps are not wired up; the walk continues sequentially
		// like continue until the fallback_step contract is settled.
		logger.WarnContext(ctx, "Fallback requested; continuing with next step", "step_id", step.ID, "fallback_step", handling.FallbackStep)

		return nil
	case models.ErrorModeEscalate:
		if !handling.NotifyOnError {
			e.notifyEscalation(ctx, logger, handling.NotifyRecipients,
				fmt.Sprintf("step %s escalated: %v", step.ID, err), wctx)
		}

		return err
	case models.ErrorModeRetry, models.ErrorModeFail:
		// Retry attempts are exhausted by the time the policy runs.
		return err
	default:
		return err
	}
}

// retryable reports whether the policy allows retrying this error. An empty
// allowlist retries everything; otherwise a listed kind matches when the
// error message contains it as a substring. Kinds come from template JSON,
// so matching is textual, not sentinel-based.
func retryable(policy *models.RetryPolicy, err error) bool {
	if policy == nil {
		return false
	}

	if len(policy.RetryableErrors) == 0 {
		return true
	}

	for _, kind := range policy.RetryableErrors {
		if strings.Contains(err.Error(), kind) {
			return true
		}
	}

	return false
}

// backoffDelay computes the sleep before re-executing after attempt n
// (1-indexed): fixed keeps the base delay, linear multiplies it by n,
// exponential doubles it per attempt.
func backoffDelay(policy *models.RetryPolicy, attempt int) time.Duration {
	base := time.Duration(policy.BackoffMs) * time.Millisecond

	switch policy.BackoffStrategy {
	case models.BackoffLinear:
		return base * time.Duration(attempt)
	case models.BackoffExponential:
		return base * time.Duration(1<<(attempt-1))
	default:
		return base
	}
}

func (e *Engine) dispatch(ctx context.Context, logger *slog.Logger, execution *models.Execution, step *models.Step, wctx models.Context) (stepOutcome, error) {
	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.step",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.StepIDKey, step.ID),
			attribute.String(otelhelper.StepTypeKey, string(step.Type)),
		)
		defer span.End()
	}

	switch step.Type {
	case models.StepTypeAction:
		return e.runAction(ctx, logger, step, wctx)
	case models.StepTypeCondition:
		return e.runCondition(step, wctx)
	case models.StepTypeLoop:
		return e.runLoop(ctx, logger, execution, step, wctx)
	case models.StepTypeParallel:
		return e.runParallel(ctx, logger, execution, step, wctx)
	case models.StepTypeHumanReview:
		return e.runHumanReview(ctx, logger, execution, step, wctx)
	case models.StepTypeDelay:
		return e.runDelay(step)
	default:
		return stepOutcome{}, fmt.Errorf("%w: %q in step %s", models.ErrUnknownStepType, step.Type, step.ID)
	}
}

func (e *Engine) runAction(ctx context.Context, logger *slog.Logger, step *models.Step, wctx models.Context) (stepOutcome, error) {
	cfg := step.Action
	if cfg == nil {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrActionConfig, step.ID)
	}

	params := template.ResolveParams(cfg.Parameters, wctx)

	action, err := e.registry.CreateAction(cfg.ActionType, params)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("step %s: %w", step.ID, err)
	}

	result, err := action.Execute(ctx, logger.With("action_type", cfg.ActionType))
	if err != nil {
		return stepOutcome{}, fmt.Errorf("action %s in step %s failed: %w", cfg.ActionType, step.ID, err)
	}

	wctx.Set("steps."+step.ID, result)

	return stepOutcome{result: result}, nil
}

func (e *Engine) runCondition(step *models.Step, wctx models.Context) (stepOutcome, error) {
	cfg := step.Condition
	if cfg == nil || cfg.Condition == nil {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrConditionConfig, step.ID)
	}

	matched := cfg.Condition.Evaluate(wctx)

	target := cfg.IfFalse
	if matched {
		target = cfg.IfTrue
	}

	return stepOutcome{result: matched, target: target}, nil
}

func (e *Engine) runLoop(ctx context.Context, logger *slog.Logger, execution *models.Execution, step *models.Step, wctx models.Context) (stepOutcome, error) {
	cfg := step.Loop
	if cfg == nil || cfg.Iterator == "" || len(cfg.LoopSteps) == 0 {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrLoopConfig, step.ID)
	}

	raw, ok := wctx.Get(cfg.Iterator)
	if !ok {
		return stepOutcome{}, fmt.Errorf("%w: step %s iterator %q not found in context", models.ErrLoopConfig, step.ID, cfg.Iterator)
	}

	items, ok := toSlice(raw)
	if !ok {
		return stepOutcome{}, fmt.Errorf("%w: step %s iterator %q is not an array", models.ErrLoopConfig, step.ID, cfg.Iterator)
	}

	iterations := len(items)
	if cfg.MaxIterations > 0 && cfg.MaxIterations < iterations {
		iterations = cfg.MaxIterations
	}

	results := make([]any, 0, iterations)

	for i := range iterations {
		loopCtx := wctx.Clone()
		loopCtx["$item"] = items[i]
		loopCtx["$index"] = i
		loopCtx["$isFirst"] = i == 0
		loopCtx["$isLast"] = i == iterations-1

		if err := e.runSteps(ctx, logger, execution, cfg.LoopSteps, loopCtx); err != nil {
			return stepOutcome{}, fmt.Errorf("loop step %s iteration %d: %w", step.ID, i, err)
		}

		results = append(results, loopCtx["$item"])

		// Shallow merge: the last iteration wins on key collisions, so
		// iterations are expected to write disjoint keys.
		wctx.Merge(loopCtx)

		if cfg.BreakCondition != nil && cfg.BreakCondition.Evaluate(wctx) {
			break
		}
	}

	return stepOutcome{result: results}, nil
}

func (e *Engine) runParallel(ctx context.Context, logger *slog.Logger, execution *models.Execution, step *models.Step, wctx models.Context) (stepOutcome, error) {
	cfg := step.Parallel
	if cfg == nil || len(cfg.Branches) == 0 {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrParallelConfig, step.ID)
	}

	type branchResult struct {
		index int
		ctx   models.Context
		err   error
	}

	// Buffered so losing branches of a race can still finish and exit.
	resultCh := make(chan branchResult, len(cfg.Branches))

	for i, branch := range cfg.Branches {
		branchCtx := wctx.Clone()

		go func(index int, steps []*models.Step, bctx models.Context) {
			err := e.runSteps(ctx, logger, execution, steps, bctx)
			resultCh <- branchResult{index: index, ctx: bctx, err: err}
		}(i, branch, branchCtx)
	}

	if !cfg.Join() {
		// Race: the first branch to settle wins; the rest keep running in
		// the background and their contexts are discarded.
		first := <-resultCh
		if first.err != nil {
			return stepOutcome{}, fmt.Errorf("parallel step %s branch %d: %w", step.ID, first.index, first.err)
		}

		wctx.Merge(first.ctx)

		return stepOutcome{result: []any{map[string]any(first.ctx)}}, nil
	}

	branchContexts := make([]models.Context, len(cfg.Branches))

	var firstErr error

	for range cfg.Branches {
		r := <-resultCh
		branchContexts[r.index] = r.ctx

		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("parallel step %s branch %d: %w", step.ID, r.index, r.err)
		}
	}

	if firstErr != nil {
		return stepOutcome{}, firstErr
	}

	result := make([]any, len(branchContexts))
	for i, branchCtx := range branchContexts {
		wctx.Merge(branchCtx)
		result[i] = map[string]any(branchCtx)
	}

	return stepOutcome{result: result}, nil
}

func (e *Engine) runHumanReview(ctx context.Context, logger *slog.Logger, execution *models.Execution, step *models.Step, wctx models.Context) (stepOutcome, error) {
	cfg := step.HumanReview
	if cfg == nil || len(cfg.AssignTo) == 0 {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrHumanReviewConfig, step.ID)
	}

	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = time.Now().UTC().Add(time.Duration(cfg.Timeout) * time.Second)
	}

	pending, err := e.reviews.register(execution.ID, step.ID, cfg.AssignTo, deadline)
	if err != nil {
		return stepOutcome{}, err
	}

	execution.SetStatus(models.ExecutionPaused)
	execution.SyncContext(wctx.Clone())
	e.saveQuietly(ctx, logger, execution)

	review := pending.review
	e.publish(ctx, logger, execution.ID, events.ExecutionPaused{
		BaseEvent:   events.NewBaseEvent(events.ExecutionPausedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Review:      &review,
	})

	logger.InfoContext(ctx, "Execution paused for human review",
		"step_id", step.ID, "assigned_to", cfg.AssignTo, "timeout_s", cfg.Timeout)

	var timeoutCh <-chan time.Time

	if cfg.Timeout > 0 {
		timer := time.NewTimer(time.Duration(cfg.Timeout) * time.Second)
		defer timer.Stop()

		timeoutCh = timer.C
	}

	var decision models.ReviewDecision

	select {
	case decision = <-pending.decision:
	case <-timeoutCh:
		if e.reviews.expire(execution.ID, step.ID) {
			for _, rule := range cfg.EscalationRules {
				message := rule.Message
				if message == "" {
					message = fmt.Sprintf("review for step %s timed out", step.ID)
				}

				e.notifyEscalation(ctx, logger, rule.EscalateTo, message, wctx)
			}

			execution.SetStatus(models.ExecutionRunning)
			e.saveQuietly(ctx, logger, execution)

			return stepOutcome{}, fmt.Errorf("step %s: %w", step.ID, ErrHumanReviewTimeout)
		}

		// A resolution won the race at the deadline; its decision is
		// already buffered.
		decision = <-pending.decision
	}

	execution.SetStatus(models.ExecutionRunning)
	e.saveQuietly(ctx, logger, execution)

	e.publish(ctx, logger, execution.ID, events.ExecutionResumed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionResumedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Approved:    decision.Approved,
	})

	result := map[string]any{
		"approved": decision.Approved,
		"notes":    decision.Notes,
	}
	wctx.Set("reviews."+step.ID, result)

	return stepOutcome{result: result}, nil
}

func (e *Engine) runDelay(step *models.Step) (stepOutcome, error) {
	cfg := step.Delay
	if cfg == nil || cfg.DurationMs <= 0 {
		return stepOutcome{}, fmt.Errorf("%w: step %s", models.ErrDelayConfig, step.ID)
	}

	time.Sleep(time.Duration(cfg.DurationMs) * time.Millisecond)

	return stepOutcome{result: map[string]any{"delayed_ms": cfg.DurationMs}}, nil
}

func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, ok
	}

	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range rv.Len() {
		items[i] = rv.Index(i).Interface()
	}

	return items, true
}
