package product

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/bits-and-blooms/bloom/v3"

	"modmarket/internal/config"
	"modmarket/internal/model"
	"modmarket/internal/repository"
	"modmarket/pkg/log"
	"modmarket/pkg/utils"
)

// ProductService product catalog operations
type ProductService interface {
	// Create adds a product (admin)
	Create(ctx context.Context, product *model.Product) error

	// Update replaces a product's fields (admin)
	Update(ctx context.Context, product *model.Product) error

	// Get returns one product, read-through the local cache
	Get(ctx context.Context, id uint64) (*model.Product, error)

	// List returns a filtered product page
	List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*model.Product, int64, error)

	// Deactivate soft-deletes a product (admin)
	Deactivate(ctx context.Context, id uint64) error

	// PrimeCache seeds the bloom filter with existing product IDs
	PrimeCache(ctx context.Context) error
}

// productService serves reads through a local cache. The bloom filter holds
// every product ID ever seen; a miss there means the ID cannot exist, so the
// DB is never hit for garbage IDs.
type productService struct {
	repo       repository.ProductRepository
	localCache *bigcache.BigCache
	bloomGuard *bloom.BloomFilter
	enabled    bool
}

// NewProductService creates a product service with the configured cache tier
func NewProductService(repo repository.ProductRepository, cfg *config.CatalogConfig) (ProductService, error) {
	svc := &productService{
		repo:    repo,
		enabled: cfg.Cache.Enabled,
	}

	if cfg.Cache.Enabled {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		localCache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
		if err != nil {
			return nil, fmt.Errorf("failed to create local cache: %w", err)
		}
		svc.localCache = localCache
		svc.bloomGuard = bloom.NewWithEstimates(cfg.Bloom.ExpectedItems, cfg.Bloom.FalsePositiveRate)
	}

	return svc, nil
}

func cacheKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

func bloomKey(id uint64) []byte {
	return []byte(fmt.Sprintf("product:%d", id))
}

// PrimeCache seeds the bloom filter with existing product IDs
func (s *productService) PrimeCache(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.bloomGuard.Add(bloomKey(id))
	}
	log.Infof("primed product bloom filter with %d ids", len(ids))
	return nil
}

// Create adds a product and registers it in the cache tier
func (s *productService) Create(ctx context.Context, product *model.Product) error {
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	if s.enabled {
		s.bloomGuard.Add(bloomKey(product.ID))
		s.cacheSet(product)
	}
	return nil
}

// Update replaces a product's fields and refreshes the cache entry
func (s *productService) Update(ctx context.Context, product *model.Product) error {
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	if s.enabled {
		s.cacheSet(product)
	}
	return nil
}

// Get returns one product, read-through the local cache
func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	if !s.enabled {
		return s.repo.GetByID(ctx, id)
	}

	// Not in the bloom filter: the ID was never created, skip the DB
	if !s.bloomGuard.Test(bloomKey(id)) {
		return nil, utils.ErrProductNotFound
	}

	if data, err := s.localCache.Get(cacheKey(id)); err == nil {
		var product model.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		// Corrupt entry, fall through to the DB
		_ = s.localCache.Delete(cacheKey(id))
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(product)
	return product, nil
}

// List returns a filtered product page. Listings bypass the cache tier.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*model.Product, int64, error) {
	return s.repo.List(ctx, filter, page, pageSize)
}

// Deactivate soft-deletes a product and drops its cache entry
func (s *productService) Deactivate(ctx context.Context, id uint64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	if s.enabled {
		// The bloom filter keeps the ID; the next Get reads the
		// deactivated row from the DB.
		_ = s.localCache.Delete(cacheKey(id))
	}
	return nil
}

func (s *productService) cacheSet(product *model.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		log.Warnf("marshal product %d for cache: %v", product.ID, err)
		return
	}
	if err := s.localCache.Set(cacheKey(product.ID), data); err != nil {
		log.Warnf("cache product %d: %v", product.ID, err)
	}
}
