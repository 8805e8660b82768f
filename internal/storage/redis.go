package storage

import (
	"context"
	"fmt"

	"github.com/p-n-ai/pai-tracker/internal/platform/cache"
)

// RedisStore keeps the document in a Redis/Dragonfly string key.
type RedisStore struct {
	cache *cache.Cache
	key   string
}

// NewRedisStore creates a store writing to key.
func NewRedisStore(c *cache.Cache, key string) (*RedisStore, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is nil")
	}
	if key == "" {
		return nil, fmt.Errorf("store key is empty")
	}
	return &RedisStore{cache: c, key: key}, nil
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, bool, error) {
	return s.cache.GetBytes(ctx, s.key)
}

func (s *RedisStore) Save(ctx context.Context, doc []byte) error {
	return s.cache.SetBytes(ctx, s.key, doc)
}
