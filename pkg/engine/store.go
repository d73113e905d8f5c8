package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/stepflow/stepflow/pkg/models"
)

// ExecutionStore keeps live and finished executions. It is injectable so
// tests run isolated and deployments choose their own backing.
type ExecutionStore interface {
	Save(ctx context.Context, execution *models.Execution) error
	Get(ctx context.Context, id string) (*models.Execution, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Execution, error)
}

// MemoryStore is the in-process store. Executions are shared by pointer, so
// status changes made by the engine are visible to readers immediately.
type MemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*models.Execution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{executions: make(map[string]*models.Execution)}
}

func (s *MemoryStore) Save(_ context.Context, execution *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[execution.ID] = execution

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	execution, ok := s.executions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	return execution, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	delete(s.executions, id)

	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	executions := make([]*models.Execution, 0, len(s.executions))
	for _, execution := range s.executions {
		executions = append(executions, execution)
	}

	return executions, nil
}
