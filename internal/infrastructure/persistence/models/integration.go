package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/marketplace/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// CredentialModel is the persistence model for integration.Credential
type CredentialModel struct {
	BaseModel
	ShopName           string                      `gorm:"type:varchar(140);not null;uniqueIndex"`
	Marketplace        integration.MarketplaceCode `gorm:"type:varchar(20);not null"`
	AppKey             string                      `gorm:"type:varchar(100);not null"`
	AppSecret          string                      `gorm:"type:varchar(255);not null"`
	AccessToken        string                      `gorm:"type:text"`
	AccessTokenExpiry  *time.Time
	RefreshToken       string `gorm:"type:text"`
	RefreshTokenExpiry *time.Time
	LastRefreshedAt    *time.Time
	DefaultWarehouse   string `gorm:"type:varchar(140)"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "marketplace_credentials"
}

// ToDomain converts the model to a domain credential
func (m *CredentialModel) ToDomain() *integration.Credential {
	return &integration.Credential{
		ID:                 m.ID,
		ShopName:           m.ShopName,
		Marketplace:        m.Marketplace,
		AppKey:             m.AppKey,
		AppSecret:          m.AppSecret,
		AccessToken:        m.AccessToken,
		AccessTokenExpiry:  m.AccessTokenExpiry,
		RefreshToken:       m.RefreshToken,
		RefreshTokenExpiry: m.RefreshTokenExpiry,
		LastRefreshedAt:    m.LastRefreshedAt,
		DefaultWarehouse:   m.DefaultWarehouse,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// CredentialModelFromDomain creates a model from a domain credential
func CredentialModelFromDomain(c *integration.Credential) *CredentialModel {
	return &CredentialModel{
		BaseModel: BaseModel{
			ID:        ensureID(c.ID),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		ShopName:           c.ShopName,
		Marketplace:        c.Marketplace,
		AppKey:             c.AppKey,
		AppSecret:          c.AppSecret,
		AccessToken:        c.AccessToken,
		AccessTokenExpiry:  c.AccessTokenExpiry,
		RefreshToken:       c.RefreshToken,
		RefreshTokenExpiry: c.RefreshTokenExpiry,
		LastRefreshedAt:    c.LastRefreshedAt,
		DefaultWarehouse:   c.DefaultWarehouse,
	}
}

// ---------------------------------------------------------------------------
// Category mirror
// ---------------------------------------------------------------------------

// CategoryNodeModel is one mirrored marketplace category
type CategoryNodeModel struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Marketplace       integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_category_display,priority:1"`
	CategoryID        string                      `gorm:"type:varchar(50);not null;index"`
	Name              string                      `gorm:"type:varchar(255);not null"`
	DisplayName       string                      `gorm:"type:varchar(1000);not null;uniqueIndex:idx_category_display,priority:2"`
	ParentDisplayName string                      `gorm:"type:varchar(1000)"`
	IsLeaf            bool                        `gorm:"not null;default:false"`
	IsGroup           bool                        `gorm:"not null;default:false"`
	PermissionStatus  string                      `gorm:"type:varchar(20)"`
	IsDefault         bool                        `gorm:"not null;default:false"`
	CreatedAt         time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryNodeModel) TableName() string {
	return "marketplace_categories"
}

// ToDomain converts the model to a domain category node
func (m *CategoryNodeModel) ToDomain() integration.CategoryNode {
	return integration.CategoryNode{
		ID:                m.ID,
		Marketplace:       m.Marketplace,
		CategoryID:        m.CategoryID,
		Name:              m.Name,
		DisplayName:       m.DisplayName,
		ParentDisplayName: m.ParentDisplayName,
		IsLeaf:            m.IsLeaf,
		IsGroup:           m.IsGroup,
		PermissionStatus:  m.PermissionStatus,
		IsDefault:         m.IsDefault,
		CreatedAt:         m.CreatedAt,
	}
}

// CategoryNodeModelFromDomain creates a model from a domain category node
func CategoryNodeModelFromDomain(n integration.CategoryNode) *CategoryNodeModel {
	return &CategoryNodeModel{
		ID:                ensureID(n.ID),
		Marketplace:       n.Marketplace,
		CategoryID:        n.CategoryID,
		Name:              n.Name,
		DisplayName:       n.DisplayName,
		ParentDisplayName: n.ParentDisplayName,
		IsLeaf:            n.IsLeaf,
		IsGroup:           n.IsGroup,
		PermissionStatus:  n.PermissionStatus,
		IsDefault:         n.IsDefault,
		CreatedAt:         n.CreatedAt,
	}
}

// ItemGroupCategoryMappingModel is an explicit item group to category record
type ItemGroupCategoryMappingModel struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	ItemGroup           string                      `gorm:"type:varchar(140);not null;uniqueIndex:idx_item_group_marketplace,priority:1"`
	Marketplace         integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_item_group_marketplace,priority:2"`
	CategoryDisplayName string                      `gorm:"type:varchar(1000);not null"`
}

// TableName returns the table name for GORM
func (ItemGroupCategoryMappingModel) TableName() string {
	return "item_group_marketplace_categories"
}

// ToDomain converts the model to a domain mapping
func (m *ItemGroupCategoryMappingModel) ToDomain() *integration.ItemGroupCategoryMapping {
	return &integration.ItemGroupCategoryMapping{
		ID:                  m.ID,
		ItemGroup:           m.ItemGroup,
		Marketplace:         m.Marketplace,
		CategoryDisplayName: m.CategoryDisplayName,
	}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// MarketplaceAttributeModel is a stored marketplace attribute definition
type MarketplaceAttributeModel struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Marketplace    integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_marketplace_attribute,priority:1"`
	AttributeID    string                      `gorm:"type:varchar(50);not null;uniqueIndex:idx_marketplace_attribute,priority:2"`
	AttributeName  string                      `gorm:"type:varchar(140);not null"`
	Label          string                      `gorm:"type:varchar(255)"`
	Role           integration.AttributeRole   `gorm:"type:varchar(30);not null"`
	IsCustomizable bool                        `gorm:"not null;default:false"`
	IsVariant      bool                        `gorm:"not null;default:false"`
	IsMandatory    bool                        `gorm:"not null;default:false"`
	CreatedAt      time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketplaceAttributeModel) TableName() string {
	return "marketplace_attributes"
}

// ToDomain converts the model to a domain attribute
func (m *MarketplaceAttributeModel) ToDomain() *integration.MarketplaceAttribute {
	return &integration.MarketplaceAttribute{
		ID:             m.ID,
		Marketplace:    m.Marketplace,
		AttributeID:    m.AttributeID,
		AttributeName:  m.AttributeName,
		Label:          m.Label,
		Role:           m.Role,
		IsCustomizable: m.IsCustomizable,
		IsVariant:      m.IsVariant,
		IsMandatory:    m.IsMandatory,
		CreatedAt:      m.CreatedAt,
	}
}

// MarketplaceAttributeModelFromDomain creates a model from a domain attribute
func MarketplaceAttributeModelFromDomain(a *integration.MarketplaceAttribute) *MarketplaceAttributeModel {
	return &MarketplaceAttributeModel{
		ID:             ensureID(a.ID),
		Marketplace:    a.Marketplace,
		AttributeID:    a.AttributeID,
		AttributeName:  a.AttributeName,
		Label:          a.Label,
		Role:           a.Role,
		IsCustomizable: a.IsCustomizable,
		IsVariant:      a.IsVariant,
		IsMandatory:    a.IsMandatory,
		CreatedAt:      a.CreatedAt,
	}
}

// AttributeMappingModel links an item attribute to a marketplace attribute
type AttributeMappingModel struct {
	ID                     uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Marketplace            integration.MarketplaceCode `gorm:"type:varchar(20);not null;index"`
	ItemAttribute          string                      `gorm:"type:varchar(140);not null"`
	MarketplaceAttributeID uuid.UUID                   `gorm:"column:attribute_id;type:uuid;not null"`
	Attribute              MarketplaceAttributeModel   `gorm:"foreignKey:MarketplaceAttributeID;references:ID"`
	Position               int                         `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AttributeMappingModel) TableName() string {
	return "marketplace_attribute_mappings"
}

// ToDomain converts the model to a domain mapping; Attribute must be preloaded
func (m *AttributeMappingModel) ToDomain() integration.AttributeMapping {
	return integration.AttributeMapping{
		ID:            m.ID,
		Marketplace:   m.Marketplace,
		ItemAttribute: m.ItemAttribute,
		Attribute:     *m.Attribute.ToDomain(),
		Position:      m.Position,
	}
}

// ---------------------------------------------------------------------------
// Item mappings
// ---------------------------------------------------------------------------

// ItemMarketplaceMappingModel is the persistence model for integration.ItemMarketplaceMapping
type ItemMarketplaceMappingModel struct {
	BaseModel
	ItemCode             string                      `gorm:"type:varchar(140);not null;index:idx_item_mapping_key,priority:1"`
	Marketplace          integration.MarketplaceCode `gorm:"type:varchar(20);not null;index:idx_item_mapping_key,priority:2"`
	ShopName             string                      `gorm:"type:varchar(140);not null;index:idx_item_mapping_key,priority:3"`
	MarketplaceProductID string                      `gorm:"type:varchar(100)"`
	MarketplaceSKU       string                      `gorm:"type:varchar(140)"`
	SyncStatus           integration.SyncStatus      `gorm:"type:varchar(20)"`
	LastSyncAt           *time.Time
	LastError            string `gorm:"type:varchar(255)"`
	Active               bool   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ItemMarketplaceMappingModel) TableName() string {
	return "item_marketplace_mappings"
}

// ToDomain converts the model to a domain mapping
func (m *ItemMarketplaceMappingModel) ToDomain() *integration.ItemMarketplaceMapping {
	return &integration.ItemMarketplaceMapping{
		ID:                   m.ID,
		ItemCode:             m.ItemCode,
		Marketplace:          m.Marketplace,
		ShopName:             m.ShopName,
		MarketplaceProductID: m.MarketplaceProductID,
		MarketplaceSKU:       m.MarketplaceSKU,
		SyncStatus:           m.SyncStatus,
		LastSyncAt:           m.LastSyncAt,
		LastError:            m.LastError,
		Active:               m.Active,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// ItemMarketplaceMappingModelFromDomain creates a model from a domain mapping
func ItemMarketplaceMappingModelFromDomain(pm *integration.ItemMarketplaceMapping) *ItemMarketplaceMappingModel {
	return &ItemMarketplaceMappingModel{
		BaseModel: BaseModel{
			ID:        ensureID(pm.ID),
			CreatedAt: pm.CreatedAt,
			UpdatedAt: pm.UpdatedAt,
		},
		ItemCode:             pm.ItemCode,
		Marketplace:          pm.Marketplace,
		ShopName:             pm.ShopName,
		MarketplaceProductID: pm.MarketplaceProductID,
		MarketplaceSKU:       pm.MarketplaceSKU,
		SyncStatus:           pm.SyncStatus,
		LastSyncAt:           pm.LastSyncAt,
		LastError:            pm.LastError,
		Active:               pm.Active,
	}
}

// SKUMappingModel stores marketplace identifiers per seller SKU
type SKUMappingModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_sku_mapping_seller,priority:1"`
	SellerSKU   string                      `gorm:"type:varchar(140);not null;uniqueIndex:idx_sku_mapping_seller,priority:2"`
	ShopSKU     string                      `gorm:"type:varchar(140)"`
	SkuID       string                      `gorm:"type:varchar(100)"`
	CreatedAt   time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SKUMappingModel) TableName() string {
	return "marketplace_sku_mappings"
}

// SKUMappingModelFromDomain creates a model from a domain SKU mapping
func SKUMappingModelFromDomain(s integration.SKUMapping) *SKUMappingModel {
	return &SKUMappingModel{
		ID:          ensureID(s.ID),
		Marketplace: s.Marketplace,
		SellerSKU:   s.SellerSKU,
		ShopSKU:     s.ShopSKU,
		SkuID:       s.SkuID,
		CreatedAt:   s.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Image cache
// ---------------------------------------------------------------------------

// ImageCacheEntryModel is keyed by content hash and use case
type ImageCacheEntryModel struct {
	ContentHash string                   `gorm:"type:varchar(64);primaryKey"`
	UseCase     integration.ImageUseCase `gorm:"type:varchar(30);primaryKey"`
	ImagePath   string                   `gorm:"type:text"`
	URI         string                   `gorm:"type:text;not null"`
	LastUpdated time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImageCacheEntryModel) TableName() string {
	return "marketplace_image_cache"
}

// ToDomain converts the model to a domain cache entry
func (m *ImageCacheEntryModel) ToDomain() integration.ImageCacheEntry {
	return integration.ImageCacheEntry{
		Key:         integration.ImageCacheKey{ContentHash: m.ContentHash, UseCase: m.UseCase},
		ImagePath:   m.ImagePath,
		URI:         m.URI,
		LastUpdated: m.LastUpdated,
	}
}

// ImageCacheEntryModelFromDomain creates a model from a domain cache entry
func ImageCacheEntryModelFromDomain(e *integration.ImageCacheEntry) *ImageCacheEntryModel {
	return &ImageCacheEntryModel{
		ContentHash: e.Key.ContentHash,
		UseCase:     e.Key.UseCase,
		ImagePath:   e.ImagePath,
		URI:         e.URI,
		LastUpdated: e.LastUpdated,
	}
}
