package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stepflow/stepflow/pkg/models"
)

const redisKeyPrefix = "stepflow:executions:"

// RedisStore keeps execution snapshots in Redis so operators can inspect
// state from outside the process. Reads return detached copies; the engine
// re-saves after every status change and routes cancellation and review
// resolution through the live run it tracks in-process, so these snapshots
// are a read surface, not the coordination point.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected client. A zero ttl keeps snapshots until
// deleted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, execution *models.Execution) error {
	// Marshal a snapshot: the live execution may be mutated mid-encode.
	payload, err := json.Marshal(execution.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", execution.ID, err)
	}

	return s.client.Set(ctx, redisKeyPrefix+execution.ID, payload, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Execution, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
		}

		return nil, err
	}

	execution := &models.Execution{}
	if err := json.Unmarshal(payload, execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return execution, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return err
	}

	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*models.Execution, error) {
	var executions []*models.Execution

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, err
		}

		execution := &models.Execution{}
		if err := json.Unmarshal(payload, execution); err != nil {
			return nil, fmt.Errorf("failed to decode execution at %s: %w", iter.Val(), err)
		}

		executions = append(executions, execution)
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return executions, nil
}
