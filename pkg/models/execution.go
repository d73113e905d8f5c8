package models

import (
	"sync"
	"time"
)

// ExecutionStatus is the lifecycle state of an execution. All transitions
// are one-directional except running<->paused.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed || s == ExecutionCancelled
}

// LogStatus is the outcome recorded for one step attempt.
type LogStatus string

const (
	LogSuccess  LogStatus = "success"
	LogFailed   LogStatus = "failed"
	LogSkipped  LogStatus = "skipped"
	LogRetrying LogStatus = "retrying"
)

// ExecutionLogEntry is an audit record for a single step attempt. Entries
// are immutable once appended.
type ExecutionLogEntry struct {
	StepID     string        `json:"step_id"`
	StepName   string        `json:"step_name"`
	Status     LogStatus     `json:"status"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Result     any           `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	RetryCount int           `json:"retry_count,omitempty"`
}

// Execution is one running or finished instance of a template. Status, the
// log and the context snapshot are guarded because parallel branches,
// external cancellation and API readers touch them concurrently. Context
// holds the engine's snapshot of the working context, refreshed at
// lifecycle save points; concurrent readers must go through Snapshot.
type Execution struct {
	ID           string              `json:"id"`
	WorkflowID   string              `json:"workflow_id"`
	Status       ExecutionStatus     `json:"status"`
	Context      Context             `json:"context"`
	CurrentStep  string              `json:"current_step,omitempty"`
	ExecutionLog []ExecutionLogEntry `json:"execution_log"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	Error        string              `json:"error,omitempty"`

	mu sync.Mutex
}

// SetStatus updates the lifecycle state.
func (e *Execution) SetStatus(status ExecutionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Status = status
}

// CurrentStatus reads the lifecycle state.
func (e *Execution) CurrentStatus() ExecutionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.Status
}

// AppendLog appends one entry to the chronological execution log.
func (e *Execution) AppendLog(entry ExecutionLogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ExecutionLog = append(e.ExecutionLog, entry)
}

// LogEntries returns a snapshot of the execution log.
func (e *Execution) LogEntries() []ExecutionLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]ExecutionLogEntry, len(e.ExecutionLog))
	copy(entries, e.ExecutionLog)

	return entries
}

// Finish moves the execution to a terminal state and stamps CompletedAt.
// It reports false without touching anything when the execution already
// reached a terminal state, so a completing walk cannot overwrite an
// external cancellation.
func (e *Execution) Finish(status ExecutionStatus, errMsg string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Status.Terminal() {
		return false
	}

	now := time.Now().UTC()
	e.Status = status
	e.Error = errMsg
	e.CompletedAt = &now

	return true
}

// SetCurrentStep records the step the walk is at.
func (e *Execution) SetCurrentStep(stepID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.CurrentStep = stepID
}

// CurrentStepID reads the step the walk is at.
func (e *Execution) CurrentStepID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.CurrentStep
}

// SyncContext replaces the execution's context snapshot. The engine calls
// it at lifecycle save points with a copy of the working context.
func (e *Execution) SyncContext(ctx Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Context = ctx
}

// Snapshot returns a detached copy safe to encode or persist while the
// owning walk is still mutating the execution.
func (e *Execution) Snapshot() *Execution {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]ExecutionLogEntry, len(e.ExecutionLog))
	copy(entries, e.ExecutionLog)

	return &Execution{
		ID:           e.ID,
		WorkflowID:   e.WorkflowID,
		Status:       e.Status,
		Context:      e.Context.Clone(),
		CurrentStep:  e.CurrentStep,
		ExecutionLog: entries,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
		Error:        e.Error,
	}
}

// WorkflowResult is what the execution controller reports back to the
// caller. Step failures never surface as Go errors; they land here.
type WorkflowResult struct {
	Success       bool          `json:"success"`
	ExecutionID   string        `json:"execution_id"`
	FinalContext  Context       `json:"final_context"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// ReviewDecision is the payload an external reviewer supplies to resolve a
// pending human review step.
type ReviewDecision struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

// PendingReview registers a suspended human review step. It exists only
// while the owning execution is paused at that step.
type PendingReview struct {
	ExecutionID string    `json:"execution_id"`
	StepID      string    `json:"step_id"`
	AssignedTo  []string  `json:"assigned_to"`
	Deadline    time.Time `json:"deadline,omitempty"`
}
