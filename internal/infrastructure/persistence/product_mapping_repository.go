package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements integration.ProductMappingRepository
// and integration.SKUMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormProductMappingRepository) WithTx(tx *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: tx}
}

// ---------------------------------------------------------------------------
// Item mappings
// ---------------------------------------------------------------------------

// FindActive finds the active mapping of an item on a marketplace shop
func (r *GormProductMappingRepository) FindActive(ctx context.Context, itemCode string, marketplace integration.MarketplaceCode, shopName string) (*integration.ItemMarketplaceMapping, error) {
	var model models.ItemMarketplaceMappingModel
	if err := r.db.WithContext(ctx).
		Where("item_code = ? AND marketplace = ? AND shop_name = ? AND active = ?", itemCode, marketplace, shopName, true).
		Order("updated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the mapping. Saving an active mapping deactivates every other
// active mapping with the same (item, marketplace, shop) in the same transaction.
func (r *GormProductMappingRepository) Save(ctx context.Context, mapping *integration.ItemMarketplaceMapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}
	model := models.ItemMarketplaceMappingModelFromDomain(mapping)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if model.Active {
			if err := tx.Model(&models.ItemMarketplaceMappingModel{}).
				Where("item_code = ? AND marketplace = ? AND shop_name = ? AND active = ? AND id <> ?",
					model.ItemCode, model.Marketplace, model.ShopName, true, model.ID).
				Update("active", false).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
	if err != nil {
		return err
	}
	mapping.ID = model.ID
	return nil
}

// Delete removes a mapping by id
func (r *GormProductMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ItemMarketplaceMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// SKU mappings
// ---------------------------------------------------------------------------

// SaveAll upserts SKU mappings by (marketplace, seller SKU)
func (r *GormProductMappingRepository) SaveAll(ctx context.Context, mappings []integration.SKUMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	rows := make([]*models.SKUMappingModel, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, models.SKUMappingModelFromDomain(m))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "marketplace"}, {Name: "seller_sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"shop_sku", "sku_id"}),
		}).
		Create(&rows).Error
}

// FindSkuIDs returns seller SKU to sku id for the seller SKUs that have one
func (r *GormProductMappingRepository) FindSkuIDs(ctx context.Context, marketplace integration.MarketplaceCode, sellerSKUs []string) (map[string]string, error) {
	out := make(map[string]string, len(sellerSKUs))
	if len(sellerSKUs) == 0 {
		return out, nil
	}
	var rows []models.SKUMappingModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ? AND seller_sku IN ?", marketplace, sellerSKUs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.SkuID != "" {
			out[row.SellerSKU] = row.SkuID
		}
	}
	return out, nil
}

var (
	_ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)
	_ integration.SKUMappingRepository     = (*GormProductMappingRepository)(nil)
)
