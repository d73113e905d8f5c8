package web

import "github.com/stepflow/stepflow/pkg/models"

// StartExecutionRequest carries the initial context for a run.
type StartExecutionRequest struct {
	Context map[string]any `json:"context"`
}

// StartExecutionResponse acknowledges an asynchronous start.
type StartExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

// ReviewRequest is the external reviewer decision payload.
type ReviewRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

// ExecutionResponse exposes a run with its audit log.
type ExecutionResponse struct {
	ID           string                     `json:"id"`
	WorkflowID   string                     `json:"workflow_id"`
	Status       models.ExecutionStatus     `json:"status"`
	Context      map[string]any             `json:"context"`
	CurrentStep  string                     `json:"current_step,omitempty"`
	ExecutionLog []models.ExecutionLogEntry `json:"execution_log"`
	Error        string                     `json:"error,omitempty"`
}

func toExecutionResponse(execution *models.Execution) ExecutionResponse {
	// Snapshot first: the run may still be mutating the live object.
	snapshot := execution.Snapshot()

	return ExecutionResponse{
		ID:           snapshot.ID,
		WorkflowID:   snapshot.WorkflowID,
		Status:       snapshot.Status,
		Context:      snapshot.Context,
		CurrentStep:  snapshot.CurrentStep,
		ExecutionLog: snapshot.ExecutionLog,
		Error:        snapshot.Error,
	}
}
