package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "refresh:"

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore keeps refresh sessions as expiring Redis keys.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+tokenID, userID, ttl).Err()
}

func (s *redisSessionStore) Lookup(ctx context.Context, tokenID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return userID, err
}

func (s *redisSessionStore) Delete(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+tokenID).Err()
}
