package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/models"
)

const (
	catalogListKey      = "catalog:products"
	catalogProductKey   = "catalog:product:"
	catalogProductMatch = "catalog:product:*"
)

// CatalogCache caches the public product catalog. Errors are logged and
// reported as misses so the database stays the fallback.
type CatalogCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(redis *RedisClient, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogCache{redis: redis, ttl: ttl}
}

// GetProducts returns the cached published list.
func (c *CatalogCache) GetProducts(ctx context.Context) ([]models.Product, bool) {
	var products []models.Product
	if !c.get(ctx, catalogListKey, &products) {
		return nil, false
	}
	return products, true
}

// SetProducts caches the published list.
func (c *CatalogCache) SetProducts(ctx context.Context, products []models.Product) {
	c.set(ctx, catalogListKey, products)
}

// GetProduct returns a cached published product by slug.
func (c *CatalogCache) GetProduct(ctx context.Context, slug string) (*models.Product, bool) {
	var p models.Product
	if !c.get(ctx, catalogProductKey+slug, &p) {
		return nil, false
	}
	return &p, true
}

// SetProduct caches a published product under its slug.
func (c *CatalogCache) SetProduct(ctx context.Context, p *models.Product) {
	c.set(ctx, catalogProductKey+p.Slug, p)
}

// Invalidate drops every catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.redis.Delete(ctx, catalogListKey); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog list cache")
	}
	if err := c.redis.DeleteByPattern(ctx, catalogProductMatch); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog product cache")
	}
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if !IsMiss(err) {
			log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt catalog cache entry")
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to marshal catalog cache entry")
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}
