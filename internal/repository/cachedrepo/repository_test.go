package cachedrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/domain"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/repository/cachedrepo"
	"agromarket/internal/repository/memoryrepo"
)

// countingRepo conta as leituras por ID que chegam ao repositório decorado.
type countingRepo struct {
	*memoryrepo.ProductRepository
	reads int
}

func (c *countingRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	c.reads++
	return c.ProductRepository.GetByID(ctx, id)
}

// brokenCache simula um Redis fora do ar.
type brokenCache struct{}

var errDown = errors.New("connection refused")

func (brokenCache) Get(context.Context, string) (string, error) { return "", errDown }
func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errDown
}
func (brokenCache) Delete(context.Context, string) error { return errDown }
func (brokenCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errDown
}
func (brokenCache) Close() error { return nil }

func seed(t *testing.T) (*countingRepo, domain.Product) {
	t.Helper()
	inner := &countingRepo{ProductRepository: memoryrepo.NewProductRepository()}
	p, err := inner.Create(context.Background(), domain.Product{
		Name:        "Apple",
		FarmID:      "farm1",
		HarvestDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return inner, p
}

func TestGetByID_CacheAside(t *testing.T) {
	inner, p := seed(t)
	repo := cachedrepo.NewProductRepository(inner, cache.NewMemoryClient(), time.Minute, logger.NewNop())
	ctx := context.Background()

	first, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.reads)
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, first.HarvestDate.Equal(second.HarvestDate))
}

func TestWritesInvalidate(t *testing.T) {
	inner, p := seed(t)
	repo := cachedrepo.NewProductRepository(inner, cache.NewMemoryClient(), time.Minute, logger.NewNop())
	ctx := context.Background()

	_, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)

	ok, err := repo.Patch(ctx, p.ProductID, map[string]any{"name": "Red Apple"})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Red Apple", got.Name)

	ok, err = repo.Delete(ctx, p.ProductID)
	require.NoError(t, err)
	require.True(t, ok)

	gone, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCacheFailureFallsBackToRepository(t *testing.T) {
	inner, p := seed(t)
	repo := cachedrepo.NewProductRepository(inner, brokenCache{}, time.Minute, logger.NewNop())
	ctx := context.Background()

	got, err := repo.GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Apple", got.Name)

	ok, err := repo.Delete(ctx, p.ProductID)
	require.NoError(t, err)
	assert.True(t, ok)
}
