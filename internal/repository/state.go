package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

// StateRepository stores the single game state record.
type StateRepository interface {
	Save(ctx context.Context, state *entity.State) error
	Load(ctx context.Context) (*entity.State, error)
}

type redisState struct {
	client *redis.Client
	key    string
}

func NewRedisStateRepository(client *redis.Client, key string) StateRepository {
	return &redisState{
		client: client,
		key:    key,
	}
}

func (that *redisState) Save(ctx context.Context, state *entity.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	if err = that.client.Set(ctx, that.key, stateJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	return nil
}

func (that *redisState) Load(ctx context.Context) (*entity.State, error) {
	response, err := that.client.Get(ctx, that.key).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	return decodeState([]byte(response))
}

// decodeState parses a persisted record and rejects records that break the state invariants.
func decodeState(data []byte) (*entity.State, error) {
	var state entity.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	state.Normalize()

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}

	return &state, nil
}
