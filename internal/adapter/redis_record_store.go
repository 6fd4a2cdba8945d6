package adapter

import (
	"context"
	"errors"

	"quiz-drill/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisRecordStore implements the domain.RecordStore interface using a Redis client.
// Records never expire; they are removed only by explicit deletes.
type RedisRecordStore struct {
	client *redis.Client
}

// NewRedisRecordStore creates a new instance of RedisRecordStore.
// It expects a connected *redis.Client.
func NewRedisRecordStore(client *redis.Client) domain.RecordStore {
	return &RedisRecordStore{client: client}
}

// Get retrieves a record from Redis.
// It translates redis.Nil to domain.ErrRecordNotFound.
func (r *RedisRecordStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrRecordNotFound
		}
		return "", err
	}
	return val, nil
}

// Set overwrites a record in Redis without expiration.
func (r *RedisRecordStore) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Delete removes records from Redis.
func (r *RedisRecordStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Ping checks the health of the Redis server.
func (r *RedisRecordStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
