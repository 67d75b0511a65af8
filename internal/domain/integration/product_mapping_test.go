package integration

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ItemMarketplaceMapping Tests
// ---------------------------------------------------------------------------

func TestNewItemMarketplaceMapping(t *testing.T) {
	t.Run("Valid mapping creation", func(t *testing.T) {
		mapping, err := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, mapping.ID)
		assert.Equal(t, "SHIRT-001", mapping.ItemCode)
		assert.Equal(t, MarketplaceLazada, mapping.Marketplace)
		assert.True(t, mapping.Active)
		assert.False(t, mapping.IsPublished())
		assert.Nil(t, mapping.LastSyncAt)
	})

	t.Run("Empty item code", func(t *testing.T) {
		_, err := NewItemMarketplaceMapping("", MarketplaceLazada, "Lazada")
		assert.ErrorIs(t, err, ErrMappingInvalidItem)
	})

	t.Run("Invalid marketplace", func(t *testing.T) {
		_, err := NewItemMarketplaceMapping("SHIRT-001", MarketplaceCode("INVALID"), "Lazada")
		assert.ErrorIs(t, err, ErrMappingInvalidMarketplace)
	})
}

func TestItemMarketplaceMapping_Validate(t *testing.T) {
	mapping, err := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")
	require.NoError(t, err)
	assert.NoError(t, mapping.Validate())

	mapping.ItemCode = ""
	assert.ErrorIs(t, mapping.Validate(), ErrMappingInvalidItem)
}

func TestItemMarketplaceMapping_ActivateDeactivate(t *testing.T) {
	mapping, _ := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")

	mapping.Deactivate()
	assert.False(t, mapping.Active)

	mapping.Activate()
	assert.True(t, mapping.Active)
}

func TestItemMarketplaceMapping_SyncStatus(t *testing.T) {
	t.Run("Record success", func(t *testing.T) {
		mapping, _ := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")
		mapping.RecordSyncFailure("previous error")

		mapping.RecordSyncSuccess("3001", "SHIRT-001")

		assert.Equal(t, SyncStatusSuccess, mapping.SyncStatus)
		assert.Empty(t, mapping.LastError)
		assert.NotNil(t, mapping.LastSyncAt)
		assert.Equal(t, "3001", mapping.MarketplaceProductID)
		assert.Equal(t, "SHIRT-001", mapping.MarketplaceSKU)
		assert.True(t, mapping.IsPublished())
	})

	t.Run("Success keeps known product id", func(t *testing.T) {
		mapping, _ := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")
		mapping.RecordSyncSuccess("3001", "SHIRT-001")
		mapping.RecordSyncSuccess("", "")
		assert.Equal(t, "3001", mapping.MarketplaceProductID)
		assert.Equal(t, "SHIRT-001", mapping.MarketplaceSKU)
	})

	t.Run("Record failure truncates reason", func(t *testing.T) {
		mapping, _ := NewItemMarketplaceMapping("SHIRT-001", MarketplaceLazada, "Lazada")

		mapping.RecordSyncFailure(strings.Repeat("category lookup failed ", 20))

		assert.Equal(t, SyncStatusFailed, mapping.SyncStatus)
		assert.LessOrEqual(t, len([]rune(mapping.LastError)), MaxReasonLength)
		assert.NotNil(t, mapping.LastSyncAt)
	})
}

// ---------------------------------------------------------------------------
// SKUMapping Tests
// ---------------------------------------------------------------------------

func TestNewSKUMappings(t *testing.T) {
	mappings := NewSKUMappings(MarketplaceLazada, []CreatedSKU{
		{SellerSKU: "SHIRT-RED", ShopSKU: "123_VN-456", SkuID: "456"},
		{SellerSKU: "", ShopSKU: "orphan", SkuID: "789"},
		{SellerSKU: "SHIRT-BLUE", ShopSKU: "123_VN-457", SkuID: "457"},
	})

	require.Len(t, mappings, 2)
	assert.Equal(t, "SHIRT-RED", mappings[0].SellerSKU)
	assert.Equal(t, "456", mappings[0].SkuID)
	assert.Equal(t, "SHIRT-BLUE", mappings[1].SellerSKU)
	assert.Equal(t, MarketplaceLazada, mappings[1].Marketplace)
	assert.NotEqual(t, mappings[0].ID, mappings[1].ID)
}
