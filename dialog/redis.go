package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "confbot:dialog:"

// RedisStore keeps dialog state as JSON documents in Redis. An optional
// TTL lets abandoned dialogs expire without a cleanup job; zero keeps
// state forever, matching the default retention policy.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

// Get loads the user's state, or returns (nil, nil) when absent.
func (r *RedisStore) Get(ctx context.Context, userID int64) (*State, error) {
	data, err := r.client.Get(ctx, redisKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dialog state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode dialog state: %w", err)
	}
	return &state, nil
}

// Create stores a new state; an existing key for the user is an error.
func (r *RedisStore) Create(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode dialog state: %w", err)
	}
	ok, err := r.client.SetNX(ctx, redisKey(state.UserID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("create dialog state: %w", err)
	}
	if !ok {
		return fmt.Errorf("dialog state already exists for user %d", state.UserID)
	}
	return nil
}

// Update overwrites the user's state and refreshes the TTL.
func (r *RedisStore) Update(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode dialog state: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(state.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("update dialog state: %w", err)
	}
	return nil
}

// Delete removes the user's state.
func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete dialog state: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
