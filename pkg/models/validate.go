package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Static error variables for template validation failures.
var (
	ErrUnknownStepType   = errors.New("unknown step type")
	ErrConditionConfig   = errors.New("condition step missing condition config")
	ErrLoopConfig        = errors.New("loop step config invalid")
	ErrParallelConfig    = errors.New("parallel step config invalid")
	ErrHumanReviewConfig = errors.New("human review step config invalid")
	ErrActionConfig      = errors.New("action step missing action config")
	ErrDelayConfig       = errors.New("delay step missing delay config")
	ErrDuplicateStepID   = errors.New("duplicate step id")
	ErrMissingStepID     = errors.New("step id is required")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a template before execution: struct-level constraints,
// per-type config presence, and step id uniqueness within each step list.
// Jump targets are deliberately not required to resolve; the walker treats
// an unresolvable target as a fall-through, not an error.
func (t *WorkflowTemplate) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("template %s failed validation: %w", t.ID, err)
	}

	return validateSteps(t.Steps)
}

func validateSteps(steps []*Step) error {
	seen := make(map[string]struct{}, len(steps))

	for _, step := range steps {
		if step.ID == "" {
			return ErrMissingStepID
		}

		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}

		seen[step.ID] = struct{}{}

		if err := step.validateConfig(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Step) validateConfig() error {
	switch s.Type {
	case StepTypeAction:
		if s.Action == nil || s.Action.ActionType == "" {
			return fmt.Errorf("%w: step %s", ErrActionConfig, s.ID)
		}
	case StepTypeCondition:
		if s.Condition == nil || s.Condition.Condition == nil {
			return fmt.Errorf("%w: step %s", ErrConditionConfig, s.ID)
		}
	case StepTypeLoop:
		if s.Loop == nil || s.Loop.Iterator == "" || len(s.Loop.LoopSteps) == 0 {
			return fmt.Errorf("%w: step %s", ErrLoopConfig, s.ID)
		}

		// Sub-lists are self-contained resolution scopes with their own
		// id uniqueness.
		return validateSteps(s.Loop.LoopSteps)
	case StepTypeParallel:
		if s.Parallel == nil || len(s.Parallel.Branches) == 0 {
			return fmt.Errorf("%w: step %s", ErrParallelConfig, s.ID)
		}

		for _, branch := range s.Parallel.Branches {
			if err := validateSteps(branch); err != nil {
				return err
			}
		}
	case StepTypeHumanReview:
		if s.HumanReview == nil || len(s.HumanReview.AssignTo) == 0 {
			return fmt.Errorf("%w: step %s", ErrHumanReviewConfig, s.ID)
		}
	case StepTypeDelay:
		if s.Delay == nil || s.Delay.DurationMs <= 0 {
			return fmt.Errorf("%w: step %s", ErrDelayConfig, s.ID)
		}
	default:
		return fmt.Errorf("%w: %q in step %s", ErrUnknownStepType, s.Type, s.ID)
	}

	return nil
}
