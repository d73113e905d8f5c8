package models

// StepType tags the variant of a workflow step.
type StepType string

const (
	StepTypeAction      StepType = "action"
	StepTypeCondition   StepType = "condition"
	StepTypeLoop        StepType = "loop"
	StepTypeParallel    StepType = "parallel"
	StepTypeHumanReview StepType = "human_review"
	StepTypeDelay       StepType = "delay"
)

// Step is one unit of work in a template. Exactly one of the type-specific
// config fields is populated, matching Type. NextStep overrides sequential
// order when it resolves to a step id in the same list.
type Step struct {
	ID            string         `json:"id"             validate:"required"`
	Type          StepType       `json:"type"           validate:"required"`
	Name          string         `json:"name"`
	NextStep      string         `json:"next_step,omitempty"`
	RetryPolicy   *RetryPolicy   `json:"retry_policy,omitempty"`
	ErrorHandling *ErrorHandling `json:"error_handling,omitempty"`

	Action      *ActionConfig      `json:"action,omitempty"`
	Condition   *ConditionConfig   `json:"condition,omitempty"`
	Loop        *LoopConfig        `json:"loop,omitempty"`
	Parallel    *ParallelConfig    `json:"parallel,omitempty"`
	HumanReview *HumanReviewConfig `json:"human_review,omitempty"`
	Delay       *DelayConfig       `json:"delay,omitempty"`
}

// ActionConfig invokes a registered action with templated parameters.
// Placeholders in Parameters are resolved against the execution context
// before the action runs.
type ActionConfig struct {
	ActionType string         `json:"action_type" validate:"required"`
	Parameters map[string]any `json:"parameters"`
}

// ConditionConfig branches the walk. When the condition holds the walk jumps
// to IfTrue, otherwise to IfFalse; an empty or unresolvable target falls
// through to the next sequential step.
type ConditionConfig struct {
	Condition *Condition `json:"condition" validate:"required"`
	IfTrue    string     `json:"if_true,omitempty"`
	IfFalse   string     `json:"if_false,omitempty"`
}

// LoopConfig iterates the inner step list over an array resolved from the
// context. Each iteration sees loop-local keys $item, $index, $isFirst and
// $isLast alongside a copy of the outer context.
type LoopConfig struct {
	Iterator       string     `json:"iterator"  validate:"required"`
	LoopSteps      []*Step    `json:"loop_steps" validate:"required,min=1"`
	MaxIterations  int        `json:"max_iterations,omitempty"`
	BreakCondition *Condition `json:"break_condition,omitempty"`
}

// ParallelConfig runs each branch's step list concurrently over a private
// copy of the context. With WaitForAll unset or true the step joins all
// branches; with false it settles with the first branch to finish.
type ParallelConfig struct {
	Branches   [][]*Step `json:"parallel_branches" validate:"required,min=1"`
	WaitForAll *bool     `json:"wait_for_all,omitempty"`
}

// Join reports whether the step waits for every branch. Defaults to true.
func (c *ParallelConfig) Join() bool {
	return c.WaitForAll == nil || *c.WaitForAll
}

// HumanReviewConfig suspends the execution until a reviewer decision arrives
// or the timeout elapses. Timeout is in seconds; zero waits indefinitely.
type HumanReviewConfig struct {
	AssignTo        []string         `json:"assign_to" validate:"required,min=1"`
	ReviewForm      map[string]any   `json:"review_form,omitempty"`
	Timeout         int              `json:"timeout,omitempty"`
	EscalationRules []EscalationRule `json:"escalation_rules,omitempty"`
}

// DelayConfig pauses the walk for a fixed duration.
type DelayConfig struct {
	DurationMs int64 `json:"duration_ms" validate:"required,min=1"`
}

// BackoffStrategy selects how retry delays grow across attempts.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy bounds re-execution of a single failed step. When
// RetryableErrors is empty every error is retryable; otherwise only errors
// whose message contains one of the listed kinds are retried.
type RetryPolicy struct {
	MaxAttempts     int             `json:"max_attempts"     validate:"required,min=1"`
	BackoffStrategy BackoffStrategy `json:"backoff_strategy" validate:"required,oneof=fixed linear exponential"`
	BackoffMs       int64           `json:"backoff_ms"`
	RetryableErrors []string        `json:"retryable_errors,omitempty"`
}

// ErrorMode selects how a step failure is handled.
type ErrorMode string

const (
	ErrorModeFail     ErrorMode = "fail"
	ErrorModeContinue ErrorMode = "continue"
	ErrorModeRetry    ErrorMode = "retry"
	ErrorModeEscalate ErrorMode = "escalate"
	ErrorModeFallback ErrorMode = "fallback"
)

// ErrorHandling configures per-step failure policy. A nil ErrorHandling is
// equivalent to OnError=fail.
type ErrorHandling struct {
	OnError          ErrorMode `json:"on_error"`
	FallbackStep     string    `json:"fallback_step,omitempty"`
	NotifyOnError    bool      `json:"notify_on_error,omitempty"`
	NotifyRecipients []string  `json:"notify_recipients,omitempty"`
}

// Mode returns the effective error mode, defaulting to fail.
func (h *ErrorHandling) Mode() ErrorMode {
	if h == nil || h.OnError == "" {
		return ErrorModeFail
	}

	return h.OnError
}

// EscalationCondition names the trigger of an escalation rule.
type EscalationCondition string

const (
	EscalateOnTimeout    EscalationCondition = "timeout"
	EscalateOnNoResponse EscalationCondition = "no_response"
	EscalateOnCustom     EscalationCondition = "custom"
)

// EscalationRule notifies additional recipients when a human review step
// times out without a decision.
type EscalationRule struct {
	Condition      EscalationCondition `json:"condition"`
	TimeoutMinutes int                 `json:"timeout_minutes,omitempty"`
	EscalateTo     []string            `json:"escalate_to" validate:"required,min=1"`
	Message        string              `json:"message,omitempty"`
}
