// Package events defines event types emitted over the execution lifecycle.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/stepflow/stepflow/pkg/models"
)

type EventType string

// Topic carries every execution lifecycle event.
const Topic = "stepflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"
	StepFinishedEvent       EventType = "execution.step.finished"
	StepFailedEvent         EventType = "execution.step.failed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	TriggerType  string         `json:"trigger_type"`
	Variables    map[string]any `json:"variables,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
	FinalContext  map[string]any `json:"final_context,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	Error         string `json:"error"`
	FailedStep    string `json:"failed_step,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	StepsExecuted int    `json:"steps_executed"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type ExecutionCancelled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	CancelledBy string `json:"cancelled_by,omitempty"`
}

func (e ExecutionCancelled) GetType() EventType { return ExecutionCancelledEvent }

type ExecutionPaused struct {
	BaseEvent

	ExecutionID string                `json:"execution_id"`
	StepID      string                `json:"step_id"`
	Review      *models.PendingReview `json:"review,omitempty"`
}

func (e ExecutionPaused) GetType() EventType { return ExecutionPausedEvent }

type ExecutionResumed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	Approved    bool   `json:"approved"`
	ResolvedBy  string `json:"resolved_by,omitempty"`
}

func (e ExecutionResumed) GetType() EventType { return ExecutionResumedEvent }

type StepFinished struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	StepName    string `json:"step_name"`
	DurationMs  int64  `json:"duration_ms"`
	Result      any    `json:"result,omitempty"`
}

func (e StepFinished) GetType() EventType { return StepFinishedEvent }

type StepFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	StepName    string `json:"step_name"`
	Error       string `json:"error"`
	RetryCount  int    `json:"retry_count,omitempty"`
}

func (e StepFailed) GetType() EventType { return StepFailedEvent }
