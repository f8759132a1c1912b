package memoryrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/domain"
	"agromarket/internal/repository/memoryrepo"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	a, err := repo.Create(ctx, domain.Product{Name: "Apple", FarmID: "farm1"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, domain.Product{Name: "Pear", FarmID: "farm2"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ProductID, b.ProductID)

	farm1, err := repo.GetByFarmID(ctx, "farm1")
	require.NoError(t, err)
	require.Len(t, farm1, 1)
	assert.Equal(t, "Apple", farm1[0].Name)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok, err := repo.Patch(ctx, a.ProductID, map[string]any{"quantity": int64(9), "harvest_date": date, "farm_id": "x"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, a.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Quantity)
	assert.Equal(t, date, got.HarvestDate)
	assert.Equal(t, "farm1", got.FarmID)

	ok, err = repo.Delete(ctx, a.ProductID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, a.ProductID)
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := repo.GetByID(ctx, a.ProductID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryRepository_UpdateKeepsOwner(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, domain.Product{Name: "Kiwi", FarmID: "farm5"})
	require.NoError(t, err)

	ok, err := repo.Update(ctx, p.ProductID, domain.Product{Name: "Gold Kiwi", FarmID: "other"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := repo.GetByID(ctx, p.ProductID)
	assert.Equal(t, "Gold Kiwi", got.Name)
	assert.Equal(t, "farm5", got.FarmID)

	ok, err = repo.Update(ctx, 999, domain.Product{})
	require.NoError(t, err)
	assert.False(t, ok)
}
