package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

func TestGormAttributeRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormAttributeRepository(db)

	color, err := integration.NewMarketplaceAttribute(integration.MarketplaceLazada, integration.RemoteAttribute{
		ID: "1001", Name: "color_family", Label: "Color", AttributeType: "sku", IsSaleProp: true,
	})
	require.NoError(t, err)
	size, err := integration.NewMarketplaceAttribute(integration.MarketplaceLazada, integration.RemoteAttribute{
		ID: "1002", Name: "size", Label: "Size", AttributeType: "sku", IsSaleProp: true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, color))
	require.NoError(t, repo.Create(ctx, size))

	t.Run("find by attribute id", func(t *testing.T) {
		found, err := repo.FindByAttributeID(ctx, integration.MarketplaceLazada, "1001")
		require.NoError(t, err)
		assert.Equal(t, "color_family", found.AttributeName)
		assert.Equal(t, integration.AttributeRoleSalesProperty, found.Role)
		assert.True(t, found.IsVariant)

		_, err = repo.FindByAttributeID(ctx, integration.MarketplaceLazada, "9999")
		assert.ErrorIs(t, err, integration.ErrAttributeNotFound)
	})

	t.Run("mappings come back in position order", func(t *testing.T) {
		rows := []models.AttributeMappingModel{
			{ID: uuid.New(), Marketplace: integration.MarketplaceLazada, ItemAttribute: "Size", MarketplaceAttributeID: size.ID, Position: 2},
			{ID: uuid.New(), Marketplace: integration.MarketplaceLazada, ItemAttribute: "Color", MarketplaceAttributeID: color.ID, Position: 1},
		}
		require.NoError(t, db.Omit(clause.Associations).Create(&rows).Error)

		mappings, err := repo.FindMappings(ctx, integration.MarketplaceLazada)
		require.NoError(t, err)
		require.Len(t, mappings, 2)
		assert.Equal(t, "Color", mappings[0].ItemAttribute)
		assert.Equal(t, "1001", mappings[0].Attribute.AttributeID)
		assert.Equal(t, "Size", mappings[1].ItemAttribute)
		assert.Equal(t, "1002", mappings[1].Attribute.AttributeID)
		for _, m := range mappings {
			assert.Equal(t, integration.AttributeRoleSalesProperty, m.Attribute.Role, m.ItemAttribute)
		}

		none, err := repo.FindMappings(ctx, integration.MarketplaceTiki)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
