package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modmarket/internal/config"
	"modmarket/internal/model"
	"modmarket/internal/repository"
	"modmarket/pkg/utils"
)

// countingRepo serves products in memory and counts GetByID hits
type countingRepo struct {
	repository.ProductRepository
	products map[uint64]*model.Product
	getCalls int
	nextID   uint64
}

func (r *countingRepo) Create(ctx context.Context, p *model.Product) error {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return nil
}

func (r *countingRepo) Update(ctx context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *countingRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	r.getCalls++
	p, ok := r.products[id]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	return p, nil
}

func (r *countingRepo) Deactivate(ctx context.Context, id uint64) error {
	p, ok := r.products[id]
	if !ok {
		return utils.ErrProductNotFound
	}
	p.IsActive = false
	return nil
}

func (r *countingRepo) ListIDs(ctx context.Context) ([]uint64, error) {
	ids := make([]uint64, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	return ids, nil
}

func testCatalogConfig() *config.CatalogConfig {
	cfg := &config.CatalogConfig{}
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute
	cfg.Bloom.ExpectedItems = 1000
	cfg.Bloom.FalsePositiveRate = 0.01
	return cfg
}

func newTestService(t *testing.T) (ProductService, *countingRepo) {
	t.Helper()
	repo := &countingRepo{products: make(map[uint64]*model.Product)}
	svc, err := NewProductService(repo, testCatalogConfig())
	require.NoError(t, err)
	return svc, repo
}

func TestProductService_BloomGuardSkipsDB(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Get(context.Background(), 12345)

	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	assert.Zero(t, repo.getCalls, "unknown ID must not reach the repository")
}

func TestProductService_CreateThenGetServedFromCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p := &model.Product{TitleRU: "Steam Gift Card", Price: 5000, IsActive: true}
	require.NoError(t, svc.Create(ctx, p))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steam Gift Card", got.TitleRU)
	assert.Zero(t, repo.getCalls, "cached product must not reach the repository")
}

func TestProductService_PrimeCache(t *testing.T) {
	repo := &countingRepo{products: map[uint64]*model.Product{
		7: {ID: 7, TitleRU: "Key", IsActive: true},
	}}
	svc, err := NewProductService(repo, testCatalogConfig())
	require.NoError(t, err)

	require.NoError(t, svc.PrimeCache(context.Background()))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.ID)
	assert.Equal(t, 1, repo.getCalls, "first read of a primed ID goes to the repository")
}

func TestProductService_DeactivateDropsCacheEntry(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p := &model.Product{TitleRU: "Key", IsActive: true}
	require.NoError(t, svc.Create(ctx, p))
	require.NoError(t, svc.Deactivate(ctx, p.ID))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "read after deactivation must see the DB state")
	assert.Equal(t, 1, repo.getCalls)
}

func TestProductService_CacheDisabled(t *testing.T) {
	repo := &countingRepo{products: make(map[uint64]*model.Product)}
	cfg := &config.CatalogConfig{}
	svc, err := NewProductService(repo, cfg)
	require.NoError(t, err)
	ctx := context.Background()

	p := &model.Product{TitleRU: "Key", IsActive: true}
	require.NoError(t, svc.Create(ctx, p))

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls, "disabled cache always reads the repository")
}
