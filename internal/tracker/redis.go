package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/floodline/hazard-etl/internal/domain"
)

const redisKeyPrefix = "vtec_state:"

// RedisStore persists event states in Redis so lifecycle tracking survives
// restarts and is shared across instances. Entries carry a TTL: hazard
// events are short-lived and anything untouched for the TTL window is
// stale by definition.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected client. A zero ttl defaults to 14 days,
// comfortably past the longest-lived river flood warnings.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key domain.EventKey) (EventState, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key.String()).Result()
	if err == redis.Nil {
		return EventState{}, ErrNotFound
	}
	if err != nil {
		return EventState{}, fmt.Errorf("failed to get event state: %w", err)
	}

	var state EventState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return EventState{}, fmt.Errorf("failed to unmarshal event state: %w", err)
	}
	return state, nil
}

func (r *RedisStore) Put(ctx context.Context, state EventState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal event state: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state.Key.String(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set event state: %w", err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]EventState, error) {
	var out []EventState
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			// Expired between scan and get.
			continue
		}
		var state EventState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			continue
		}
		out = append(out, state)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan event states: %w", err)
	}
	return out, nil
}
