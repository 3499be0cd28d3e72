package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"unicred/pkg/platform/sentinel"
)

const redisKey = "unicred:issuer_key"

// RedisStore persists the issuer key in Redis so multiple replicas share one
// signing identity. The key is written NX: a concurrent first save loses the
// race and reloads the winner's key instead of splitting the issuer identity.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore constructs a Redis-backed key persistence.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (*StoredKey, error) {
	raw, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load issuer key from redis: %w", err)
	}
	var key StoredKey
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return nil, fmt.Errorf("parse issuer key from redis: %w", err)
	}
	return &key, nil
}

func (s *RedisStore) Save(ctx context.Context, key *StoredKey) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal issuer key: %w", err)
	}
	set, err := s.client.SetNX(ctx, redisKey, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("save issuer key to redis: %w", err)
	}
	if !set {
		return sentinel.ErrConflict
	}
	return nil
}
