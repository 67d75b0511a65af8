package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormItemRepository implements integration.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByCode loads an item with its variants in position order and its listings
func (r *GormItemRepository) FindByCode(ctx context.Context, code string) (*integration.Item, error) {
	var model models.ItemModel
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Listings").
		Where("code = ?", code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", integration.ErrItemNotFound, code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItemGroup loads an item group; a missing group yields nil, nil
func (r *GormItemRepository) FindItemGroup(ctx context.Context, name string) (*integration.ItemGroup, error) {
	var model models.ItemGroupModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts an item with its variants and listings. Children are replaced.
func (r *GormItemRepository) Save(ctx context.Context, item *integration.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_code = ?", item.Code).Delete(&models.VariantModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_code = ?", item.Code).Delete(&models.ListingModel{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(model).Error
	})
}

var _ integration.ItemRepository = (*GormItemRepository)(nil)
