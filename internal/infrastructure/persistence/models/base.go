package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the id and timestamps shared by most tables
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ensureID assigns a fresh id when the domain object has none
func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// All returns every model for schema creation in tests and development
func All() []any {
	return []any{
		&CredentialModel{},
		&CategoryNodeModel{},
		&ItemGroupCategoryMappingModel{},
		&MarketplaceAttributeModel{},
		&AttributeMappingModel{},
		&ItemMarketplaceMappingModel{},
		&SKUMappingModel{},
		&ImageCacheEntryModel{},
		&ItemGroupModel{},
		&ItemModel{},
		&VariantModel{},
		&ListingModel{},
		&CustomerModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&StockLevelModel{},
		&MaterialRequestModel{},
	}
}
