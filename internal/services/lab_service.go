package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jaytnw/sage-insights/internal/models"
	"go.uber.org/zap"
)

// Cache is the read-through store for lab lists. Both the Redis and the
// in-memory implementations in pkg/redisclient satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type LabService interface {
	GetLabsForUser(ctx context.Context, userID string) ([]models.Lab, error)
	Invalidate(ctx context.Context, userID string) error
}

type labService struct {
	externalAPI ExternalAPIService
	cache       Cache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewLabService returns a service that caches lab lists for ttl. A nil cache
// or a non-positive ttl always goes to the backend.
func NewLabService(api ExternalAPIService, cache Cache, ttl time.Duration, logger *zap.Logger) LabService {
	return &labService{
		externalAPI: api,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

func labCacheKey(userID string) string {
	return "external_api:labs:" + userID
}

func (s *labService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *labService) GetLabsForUser(ctx context.Context, userID string) ([]models.Lab, error) {
	key := labCacheKey(userID)

	if s.cacheEnabled() {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("lab cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		if ok {
			var labs []models.Lab
			if err := json.Unmarshal(cached, &labs); err == nil {
				s.logger.Debug("labs loaded from cache", zap.String("user_id", userID))
				return labs, nil
			}
		}
	}

	labs, err := s.externalAPI.FetchLabsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Empty lists are not cached so a newly granted lab shows up on reload.
	if s.cacheEnabled() && len(labs) > 0 {
		if payload, err := json.Marshal(labs); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
				s.logger.Warn("lab cache write failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	return labs, nil
}

func (s *labService) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, labCacheKey(userID))
}
