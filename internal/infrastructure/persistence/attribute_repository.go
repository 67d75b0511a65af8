package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormAttributeRepository implements integration.AttributeRepository using GORM
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewGormAttributeRepository creates a new GormAttributeRepository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// FindByAttributeID finds a stored attribute by its marketplace id
func (r *GormAttributeRepository) FindByAttributeID(ctx context.Context, marketplace integration.MarketplaceCode, attributeID string) (*integration.MarketplaceAttribute, error) {
	var model models.MarketplaceAttributeModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ? AND attribute_id = ?", marketplace, attributeID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrAttributeNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts an attribute
func (r *GormAttributeRepository) Create(ctx context.Context, attr *integration.MarketplaceAttribute) error {
	model := models.MarketplaceAttributeModelFromDomain(attr)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	attr.ID = model.ID
	return nil
}

// FindMappings returns the item attribute mappings of a marketplace in configuration order
func (r *GormAttributeRepository) FindMappings(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.AttributeMapping, error) {
	var rows []models.AttributeMappingModel
	if err := r.db.WithContext(ctx).
		Preload("Attribute").
		Where("marketplace = ?", marketplace).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	mappings := make([]integration.AttributeMapping, len(rows))
	for i := range rows {
		mappings[i] = rows[i].ToDomain()
	}
	return mappings, nil
}

var _ integration.AttributeRepository = (*GormAttributeRepository)(nil)
