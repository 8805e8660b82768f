package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/p-n-ai/pai-tracker/internal/platform/cache"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
)

// Open builds the document store selected by cfg.Store. The returned close
// function releases any connection the store holds.
func Open(ctx context.Context, cfg *config.Config) (DocumentStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), noop, nil
	case config.BackendFile:
		s, err := NewFileStore(filepath.Join(cfg.Store.Dir, cfg.Store.Profile), cfg.Store.Key)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewRedisStore(c, RedisKey(cfg.Store.Profile, cfg.Store.Key))
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return s, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// RedisKey namespaces key by profile.
func RedisKey(profile, key string) string {
	if profile == "" {
		profile = "default"
	}
	return "pai-tracker:" + profile + ":" + key
}
