package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/stepflow/stepflow/pkg/models"
)

// pendingReview is the in-flight registration a suspended human review step
// waits on. The decision channel is buffered so the winning resolution
// never blocks.
type pendingReview struct {
	review   models.PendingReview
	decision chan models.ReviewDecision
}

// ReviewRegistry tracks executions suspended at a human review step. The
// resolve/expire race is settled by map membership under the mutex: only
// the caller that removes the entry wins, so a decision and a concurrent
// timeout can never both take effect.
type ReviewRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingReview
}

func NewReviewRegistry() *ReviewRegistry {
	return &ReviewRegistry{pending: make(map[string]*pendingReview)}
}

func reviewKey(executionID, stepID string) string {
	return executionID + "/" + stepID
}

func (r *ReviewRegistry) register(executionID, stepID string, assignedTo []string, deadline time.Time) (*pendingReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reviewKey(executionID, stepID)
	if _, exists := r.pending[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrReviewAlreadyPending, key)
	}

	entry := &pendingReview{
		review: models.PendingReview{
			ExecutionID: executionID,
			StepID:      stepID,
			AssignedTo:  assignedTo,
			Deadline:    deadline,
		},
		decision: make(chan models.ReviewDecision, 1),
	}
	r.pending[key] = entry

	return entry, nil
}

// Resolve delivers a reviewer decision to the suspended step. It is
// idempotent against a timeout firing concurrently: whoever removes the
// entry first wins, later calls get ErrReviewNotFound.
func (r *ReviewRegistry) Resolve(executionID, stepID string, decision models.ReviewDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reviewKey(executionID, stepID)

	entry, ok := r.pending[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, key)
	}

	delete(r.pending, key)
	entry.decision <- decision

	return nil
}

// expire removes the entry on deadline. It reports whether the timeout won
// the race against an external resolution.
func (r *ReviewRegistry) expire(executionID, stepID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reviewKey(executionID, stepID)
	if _, ok := r.pending[key]; !ok {
		return false
	}

	delete(r.pending, key)

	return true
}

// Pending snapshots the currently registered reviews.
func (r *ReviewRegistry) Pending() []models.PendingReview {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviews := make([]models.PendingReview, 0, len(r.pending))
	for _, entry := range r.pending {
		reviews = append(reviews, entry.review)
	}

	return reviews
}
