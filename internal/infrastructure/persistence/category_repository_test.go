package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

func sampleMirror() []integration.CategoryNode {
	mirror := integration.BuildCategoryMirror(integration.MarketplaceLazada, []integration.RemoteCategory{
		{
			CategoryID: "10",
			Name:       "Fashion",
			Children: []integration.RemoteCategory{
				{CategoryID: "11", Name: "Shirts", Leaf: true},
				{CategoryID: "12", Name: "Shoes", Leaf: true},
			},
		},
	})
	return mirror.All()
}

func TestGormCategoryRepository_ReplaceMirror(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(newTestDB(t))

	require.NoError(t, repo.ReplaceMirror(ctx, integration.MarketplaceLazada, sampleMirror()))

	nodes, err := repo.FindByMarketplace(ctx, integration.MarketplaceLazada)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	shirts, err := repo.FindByDisplayName(ctx, integration.MarketplaceLazada, "Lazada Root / Fashion / Shirts")
	require.NoError(t, err)
	assert.Equal(t, "11", shirts.CategoryID)
	assert.True(t, shirts.IsLeaf)

	t.Run("default flag survives a rebuild", func(t *testing.T) {
		require.NoError(t, repo.SetDefault(ctx, integration.MarketplaceLazada, "Lazada Root / Fashion / Shirts"))
		require.NoError(t, repo.ReplaceMirror(ctx, integration.MarketplaceLazada, sampleMirror()))

		def, err := repo.FindDefault(ctx, integration.MarketplaceLazada)
		require.NoError(t, err)
		assert.Equal(t, "Lazada Root / Fashion / Shirts", def.DisplayName)

		nodes, err := repo.FindByMarketplace(ctx, integration.MarketplaceLazada)
		require.NoError(t, err)
		assert.Len(t, nodes, 4)
	})

	t.Run("empty rebuild clears the mirror", func(t *testing.T) {
		require.NoError(t, repo.ReplaceMirror(ctx, integration.MarketplaceLazada, nil))
		nodes, err := repo.FindByMarketplace(ctx, integration.MarketplaceLazada)
		require.NoError(t, err)
		assert.Empty(t, nodes)

		_, err = repo.FindDefault(ctx, integration.MarketplaceLazada)
		assert.ErrorIs(t, err, integration.ErrCategoryNotFound)
	})
}

func TestGormCategoryRepository_SetDefault(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(newTestDB(t))
	require.NoError(t, repo.ReplaceMirror(ctx, integration.MarketplaceLazada, sampleMirror()))

	require.NoError(t, repo.SetDefault(ctx, integration.MarketplaceLazada, "Lazada Root / Fashion / Shirts"))
	require.NoError(t, repo.SetDefault(ctx, integration.MarketplaceLazada, "Lazada Root / Fashion / Shoes"))

	def, err := repo.FindDefault(ctx, integration.MarketplaceLazada)
	require.NoError(t, err)
	assert.Equal(t, "Lazada Root / Fashion / Shoes", def.DisplayName)

	err = repo.SetDefault(ctx, integration.MarketplaceLazada, "Missing")
	assert.ErrorIs(t, err, integration.ErrCategoryNotFound)
}

func TestGormCategoryRepository_FindMapping(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)

	require.NoError(t, db.Create(&models.ItemGroupCategoryMappingModel{
		ID:                  uuid.New(),
		ItemGroup:           "Shirts",
		Marketplace:         integration.MarketplaceLazada,
		CategoryDisplayName: "Lazada Root / Fashion / Shirts",
	}).Error)

	mapping, err := repo.FindMapping(ctx, "Shirts", integration.MarketplaceLazada)
	require.NoError(t, err)
	assert.Equal(t, "Lazada Root / Fashion / Shirts", mapping.CategoryDisplayName)

	_, err = repo.FindMapping(ctx, "Shirts", integration.MarketplaceShopee)
	assert.ErrorIs(t, err, integration.ErrCategoryNotFound)
}
