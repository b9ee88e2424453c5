package repository

import (
	"context"
	"errors"
	"time"

	"TriSight/internal/domain/models"
	pkgcache "TriSight/pkg/cache"
)

// CachedResponseStore keeps completed analysis responses in a cache layer
// so repeated requests for the same ticker/context skip the pipeline.
type CachedResponseStore struct {
	cache pkgcache.Service
}

func NewCachedResponseStore(cache pkgcache.Service) *CachedResponseStore {
	return &CachedResponseStore{cache: cache}
}

func (s *CachedResponseStore) Get(ctx context.Context, key string) (*models.AnalysisResponse, bool, error) {
	var resp models.AnalysisResponse
	err := s.cache.Get(ctx, key, &resp)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (s *CachedResponseStore) Set(ctx context.Context, key string, resp *models.AnalysisResponse, ttl time.Duration) error {
	return s.cache.Set(ctx, key, resp, ttl)
}
