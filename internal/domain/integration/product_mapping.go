package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ItemMarketplaceMapping Entity
// ---------------------------------------------------------------------------

// ItemMarketplaceMapping links an internal item to its published marketplace product.
// At most one active mapping exists per (item, marketplace, shop).
type ItemMarketplaceMapping struct {
	ID          uuid.UUID
	ItemCode    string
	Marketplace MarketplaceCode
	ShopName    string
	// MarketplaceProductID is the marketplace item id
	MarketplaceProductID string
	// MarketplaceSKU is the seller SKU registered for this item
	MarketplaceSKU string
	SyncStatus     SyncStatus
	LastSyncAt     *time.Time
	// LastError is truncated to MaxReasonLength
	LastError string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItemMarketplaceMapping creates an active mapping
func NewItemMarketplaceMapping(itemCode string, marketplace MarketplaceCode, shopName string) (*ItemMarketplaceMapping, error) {
	if itemCode == "" {
		return nil, ErrMappingInvalidItem
	}
	if !marketplace.IsValid() {
		return nil, ErrMappingInvalidMarketplace
	}
	now := time.Now()
	return &ItemMarketplaceMapping{
		ID:          uuid.New(),
		ItemCode:    itemCode,
		Marketplace: marketplace,
		ShopName:    shopName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate validates the mapping
func (m *ItemMarketplaceMapping) Validate() error {
	if m.ItemCode == "" {
		return ErrMappingInvalidItem
	}
	if !m.Marketplace.IsValid() {
		return ErrMappingInvalidMarketplace
	}
	return nil
}

// IsPublished returns true when the marketplace product id is known
func (m *ItemMarketplaceMapping) IsPublished() bool {
	return m.MarketplaceProductID != ""
}

// Activate activates this mapping
func (m *ItemMarketplaceMapping) Activate() {
	m.Active = true
	m.UpdatedAt = time.Now()
}

// Deactivate deactivates this mapping
func (m *ItemMarketplaceMapping) Deactivate() {
	m.Active = false
	m.UpdatedAt = time.Now()
}

// RecordSyncSuccess records a successful sync
func (m *ItemMarketplaceMapping) RecordSyncSuccess(productID, sellerSKU string) {
	now := time.Now()
	if productID != "" {
		m.MarketplaceProductID = productID
	}
	if sellerSKU != "" {
		m.MarketplaceSKU = sellerSKU
	}
	m.LastSyncAt = &now
	m.SyncStatus = SyncStatusSuccess
	m.LastError = ""
	m.UpdatedAt = now
}

// RecordSyncFailure records a failed sync with a truncated reason
func (m *ItemMarketplaceMapping) RecordSyncFailure(reason string) {
	now := time.Now()
	m.LastSyncAt = &now
	m.SyncStatus = SyncStatusFailed
	m.LastError = TruncateReason(reason)
	m.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// SKUMapping
// ---------------------------------------------------------------------------

// SKUMapping records the identifiers the marketplace assigned to a seller SKU
type SKUMapping struct {
	ID          uuid.UUID
	Marketplace MarketplaceCode
	SellerSKU   string
	ShopSKU     string
	SkuID       string
	CreatedAt   time.Time
}

// NewSKUMappings converts a create response into SKU mappings, skipping
// entries without a seller SKU.
func NewSKUMappings(marketplace MarketplaceCode, created []CreatedSKU) []SKUMapping {
	now := time.Now()
	out := make([]SKUMapping, 0, len(created))
	for _, sku := range created {
		if sku.SellerSKU == "" {
			continue
		}
		out = append(out, SKUMapping{
			ID:          uuid.New(),
			Marketplace: marketplace,
			SellerSKU:   sku.SellerSKU,
			ShopSKU:     sku.ShopSKU,
			SkuID:       sku.SkuID,
			CreatedAt:   now,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// ProductMappingRepository persists item mappings
type ProductMappingRepository interface {
	// FindActive returns the active mapping or ErrMappingNotFound
	FindActive(ctx context.Context, itemCode string, marketplace MarketplaceCode, shopName string) (*ItemMarketplaceMapping, error)
	// Save upserts the mapping; saving an active mapping deactivates any
	// other active mapping for the same key in the same transaction.
	Save(ctx context.Context, mapping *ItemMarketplaceMapping) error
	// Delete removes a mapping by id
	Delete(ctx context.Context, id uuid.UUID) error
}

// SKUMappingRepository persists SKU mappings
type SKUMappingRepository interface {
	// SaveAll upserts mappings by (marketplace, seller SKU)
	SaveAll(ctx context.Context, mappings []SKUMapping) error
	// FindSkuIDs returns seller SKU to sku id for the given seller SKUs
	FindSkuIDs(ctx context.Context, marketplace MarketplaceCode, sellerSKUs []string) (map[string]string, error)
}
