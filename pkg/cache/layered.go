package cache

import (
	"context"
	"encoding/json"
	"time"
)

// LayeredCache fronts a shared cache with a process-local one. Writes go
// through to both layers; reads fill the local layer on a remote hit.
type LayeredCache struct {
	local  Service
	remote Service
}

func NewLayeredCache(local, remote Service) *LayeredCache {
	return &LayeredCache{local: local, remote: remote}
}

func (l *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := l.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return l.local.Set(ctx, key, value, ttl)
}

func (l *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := l.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := l.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	// Backfill the local layer with what we just decoded.
	if raw, err := json.Marshal(dest); err == nil {
		var val interface{}
		if json.Unmarshal(raw, &val) == nil {
			_ = l.local.Set(ctx, key, val, time.Minute)
		}
	}
	return nil
}

func (l *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = l.local.Delete(ctx, key)
	return l.remote.Delete(ctx, key)
}

func (l *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := l.local.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return l.remote.Exists(ctx, key)
}

func (l *LayeredCache) Close() error {
	_ = l.local.Close()
	return l.remote.Close()
}
