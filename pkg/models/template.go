package models

import "time"

// TriggerType describes how a workflow template gets started.
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerEvent    TriggerType = "event"
	TriggerSchedule TriggerType = "schedule"
	TriggerWebhook  TriggerType = "webhook"
)

// Trigger is the descriptor attached to a template. Schedule carries a cron
// expression for schedule triggers, Event an event type for event triggers.
type Trigger struct {
	Type     TriggerType    `json:"type" validate:"required,oneof=manual event schedule webhook"`
	Schedule string         `json:"schedule,omitempty"`
	Event    string         `json:"event,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

// TemplateMetadata records authoring information.
type TemplateMetadata struct {
	Author    string    `json:"author,omitempty"`
	Version   string    `json:"version,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WorkflowTemplate is the immutable declarative definition of a workflow.
// It is authored externally; the engine only reads it.
type WorkflowTemplate struct {
	ID        string           `json:"id"      validate:"required"`
	Name      string           `json:"name"    validate:"required,min=3"`
	Trigger   Trigger          `json:"trigger"`
	Steps     []*Step          `json:"steps"   validate:"required,min=1"`
	Variables map[string]any   `json:"variables,omitempty"`
	Metadata  TemplateMetadata `json:"metadata,omitempty"`
}
