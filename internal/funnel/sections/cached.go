package sections

import (
	"context"
	"time"

	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/funnel/cache"
)

const cacheNamespace = "section-template"

// CachedRepository reads through a cache.Store. Cache failures are logged and
// never fail the lookup.
type CachedRepository struct {
	Repository
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(repo Repository, store cache.Store, ttl time.Duration, log logger.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		store:      store,
		ttl:        ttl,
		logger:     log.WithFields(map[string]interface{}{"component": "section-cache"}),
	}
}

func (r *CachedRepository) GetTemplate(ctx context.Context, sectionType string) (*Template, error) {
	key := cache.Key(cacheNamespace, sectionType)

	var cached Template
	found, err := r.store.Get(ctx, key, &cached)
	if err != nil {
		metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "error").Inc()
		r.logger.Warn("template cache read failed", map[string]interface{}{
			"sectionType": sectionType,
			"error":       err.Error(),
		})
	}
	if found {
		metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "hit").Inc()
		return &cached, nil
	}
	if err == nil {
		metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "miss").Inc()
	}

	t, err := r.Repository.GetTemplate(ctx, sectionType)
	if err != nil {
		return nil, err
	}

	if err := r.store.Set(ctx, key, t, r.ttl); err != nil {
		r.logger.Warn("template cache write failed", map[string]interface{}{
			"sectionType": sectionType,
			"error":       err.Error(),
		})
	}
	return t, nil
}

func (r *CachedRepository) UpsertTemplate(ctx context.Context, t Template) error {
	if err := r.Repository.UpsertTemplate(ctx, t); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, cache.Key(cacheNamespace, t.SectionType)); err != nil {
		r.logger.Warn("template cache invalidation failed", map[string]interface{}{
			"sectionType": t.SectionType,
			"error":       err.Error(),
		})
	}
	return nil
}
