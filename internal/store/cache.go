package store

import (
	"context"
	"encoding/json"
	"time"

	"doc-composer/internal/common/database"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/models"
)

const templateKeyPrefix = "template:"

// CachedStore is a read-through Redis cache in front of another
// TemplateStore. Cache failures degrade to the backing store; a slow lookup
// beats a failed composition.
type CachedStore struct {
	backing TemplateStore
	redis   *database.RedisClient
	ttl     time.Duration
	logger  logger.Logger
}

func NewCachedStore(backing TemplateStore, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{backing: backing, redis: redis, ttl: ttl, logger: log}
}

func (s *CachedStore) GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error) {
	key := templateKeyPrefix + id

	if raw, err := s.redis.Get(ctx, key); err == nil {
		var tpl models.TemplateDefinition
		if err := json.Unmarshal([]byte(raw), &tpl); err == nil {
			return &tpl, nil
		}
		s.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key": key,
		})
	}

	tpl, err := s.backing.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(tpl); err == nil {
		if err := s.redis.Set(ctx, key, encoded, s.ttl); err != nil {
			s.logger.Warn("caching template failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return tpl, nil
}

// ListTemplates is not cached. Listings are cheap relative to composition
// and tag filters would fragment the key space.
func (s *CachedStore) ListTemplates(ctx context.Context, tags []string) ([]*models.TemplateDefinition, error) {
	return s.backing.ListTemplates(ctx, tags)
}
