package engine

import "errors"

// Static error variables for engine failures.
var (
	// ErrHumanReviewTimeout is the failure a human review step surfaces
	// when its deadline elapses without a decision.
	ErrHumanReviewTimeout = errors.New("human review timed out")

	// ErrReviewNotFound is returned when resolving a review that is not
	// pending; a resolution racing a timeout loses with this error.
	ErrReviewNotFound = errors.New("no pending review")

	// ErrReviewAlreadyPending guards double registration for the same
	// execution and step.
	ErrReviewAlreadyPending = errors.New("review already pending")

	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionFinished is returned when cancelling an execution that
	// already reached a terminal state.
	ErrExecutionFinished = errors.New("execution already finished")
)
