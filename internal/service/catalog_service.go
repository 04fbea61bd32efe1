package service

import (
	"context"
	"errors"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// ProductStore is the catalog's source of truth
type ProductStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// ProductCache holds a copy of the catalog
type ProductCache interface {
	GetCachedProducts(ctx context.Context) ([]models.Product, error)
	CacheProducts(ctx context.Context, products []models.Product, ttl time.Duration) error
	InvalidateProducts(ctx context.Context) error
}

// CatalogService serves the catalog through a read-through cache
type CatalogService struct {
	store  ProductStore
	cache  ProductCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store ProductStore, cache ProductCache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// GetProducts returns the catalog, from cache when possible. Cache
// failures fall back to the database.
func (cs *CatalogService) GetProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProducts")
	defer span.End()

	products, err := cs.cache.GetCachedProducts(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, redisclient.ErrCacheMiss) {
		cs.logger.Warn("Catalog cache read failed, falling back to DB", zap.Error(err))
	}

	products, err = cs.store.GetProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := cs.cache.CacheProducts(ctx, products, cs.ttl); err != nil {
		cs.logger.Warn("Failed to cache catalog", zap.Error(err))
	}
	return products, nil
}

// Invalidate drops the cached catalog
func (cs *CatalogService) Invalidate(ctx context.Context) error {
	return cs.cache.InvalidateProducts(ctx)
}
