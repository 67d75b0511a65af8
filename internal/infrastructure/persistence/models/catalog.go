package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/marketplace/internal/domain/integration"
)

// PackageColumns embeds package dimensions into a table
type PackageColumns struct {
	PackageHeight decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PackageLength decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PackageWidth  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PackageWeight decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (p PackageColumns) toDomain() integration.PackageDimensions {
	return integration.PackageDimensions{
		Height: p.PackageHeight,
		Length: p.PackageLength,
		Width:  p.PackageWidth,
		Weight: p.PackageWeight,
	}
}

func packageColumnsFromDomain(d integration.PackageDimensions) PackageColumns {
	return PackageColumns{
		PackageHeight: d.Height,
		PackageLength: d.Length,
		PackageWidth:  d.Width,
		PackageWeight: d.Weight,
	}
}

// ItemGroupModel is an item group with embedded per-marketplace category references
type ItemGroupModel struct {
	Name               string                                 `gorm:"type:varchar(140);primaryKey"`
	PlatformCategories map[integration.MarketplaceCode]string `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (ItemGroupModel) TableName() string {
	return "item_groups"
}

// ToDomain converts the model to a domain item group
func (m *ItemGroupModel) ToDomain() *integration.ItemGroup {
	categories := m.PlatformCategories
	if categories == nil {
		categories = make(map[integration.MarketplaceCode]string)
	}
	return &integration.ItemGroup{Name: m.Name, PlatformCategories: categories}
}

// ItemModel is a catalog item. Variants and listings are loaded by code.
type ItemModel struct {
	Code             string                      `gorm:"type:varchar(140);primaryKey"`
	Name             string                      `gorm:"type:varchar(255);not null"`
	ItemGroup        string                      `gorm:"type:varchar(140);index"`
	Description      string                      `gorm:"type:text"`
	Brand            string                      `gorm:"type:varchar(140)"`
	Image            string                      `gorm:"type:text"`
	SecondaryImages  []string                    `gorm:"type:text;serializer:json"`
	Images360        []string                    `gorm:"column:images_360;type:text;serializer:json"`
	Specifications   []integration.Specification `gorm:"type:text;serializer:json"`
	VideoURL         string                      `gorm:"type:text"`
	StandardRate     decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	Barcode          string                      `gorm:"type:varchar(140)"`
	DefaultWarehouse string                      `gorm:"type:varchar(140)"`
	PackageColumns
	Variants []VariantModel `gorm:"foreignKey:TemplateCode;references:Code"`
	Listings []ListingModel `gorm:"foreignKey:ItemCode;references:Code"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the model and its preloaded children to a domain item
func (m *ItemModel) ToDomain() *integration.Item {
	item := &integration.Item{
		Code:             m.Code,
		Name:             m.Name,
		ItemGroup:        m.ItemGroup,
		Description:      m.Description,
		Brand:            m.Brand,
		Image:            m.Image,
		SecondaryImages:  m.SecondaryImages,
		Images360:        m.Images360,
		Specifications:   m.Specifications,
		VideoURL:         m.VideoURL,
		StandardRate:     m.StandardRate,
		Package:          m.PackageColumns.toDomain(),
		Barcode:          m.Barcode,
		DefaultWarehouse: m.DefaultWarehouse,
		Listings:         make(map[integration.MarketplaceCode]integration.CrossChannelListing, len(m.Listings)),
	}
	for _, v := range m.Variants {
		item.Variants = append(item.Variants, v.ToDomain())
	}
	for _, l := range m.Listings {
		item.Listings[l.Marketplace] = l.ToDomain()
	}
	return item
}

// ItemModelFromDomain creates a model from a domain item
func ItemModelFromDomain(item *integration.Item) *ItemModel {
	m := &ItemModel{
		Code:             item.Code,
		Name:             item.Name,
		ItemGroup:        item.ItemGroup,
		Description:      item.Description,
		Brand:            item.Brand,
		Image:            item.Image,
		SecondaryImages:  item.SecondaryImages,
		Images360:        item.Images360,
		Specifications:   item.Specifications,
		VideoURL:         item.VideoURL,
		StandardRate:     item.StandardRate,
		Barcode:          item.Barcode,
		DefaultWarehouse: item.DefaultWarehouse,
		PackageColumns:   packageColumnsFromDomain(item.Package),
	}
	for i, v := range item.Variants {
		m.Variants = append(m.Variants, variantModelFromDomain(item.Code, i, v))
	}
	for marketplace, l := range item.Listings {
		l.Marketplace = marketplace
		m.Listings = append(m.Listings, listingModelFromDomain(item.Code, l))
	}
	return m
}

// VariantModel is a sellable variant of a template item
type VariantModel struct {
	ItemCode     string                         `gorm:"type:varchar(140);primaryKey"`
	TemplateCode string                         `gorm:"type:varchar(140);not null;index"`
	Position     int                            `gorm:"not null;default:0"`
	Attributes   []integration.VariantAttribute `gorm:"type:text;serializer:json"`
	Image        string                         `gorm:"type:text"`
	AttachImage  string                         `gorm:"type:text"`
	StandardRate decimal.Decimal                `gorm:"type:decimal(18,4);not null;default:0"`
	Barcode      string                         `gorm:"type:varchar(140)"`
	PackageColumns
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "item_variants"
}

// ToDomain converts the model to a domain variant
func (m *VariantModel) ToDomain() integration.Variant {
	return integration.Variant{
		ItemCode:     m.ItemCode,
		Attributes:   m.Attributes,
		Image:        m.Image,
		AttachImage:  m.AttachImage,
		StandardRate: m.StandardRate,
		Package:      m.PackageColumns.toDomain(),
		Barcode:      m.Barcode,
	}
}

func variantModelFromDomain(templateCode string, position int, v integration.Variant) VariantModel {
	return VariantModel{
		ItemCode:       v.ItemCode,
		TemplateCode:   templateCode,
		Position:       position,
		Attributes:     v.Attributes,
		Image:          v.Image,
		AttachImage:    v.AttachImage,
		StandardRate:   v.StandardRate,
		Barcode:        v.Barcode,
		PackageColumns: packageColumnsFromDomain(v.Package),
	}
}

// ListingModel holds per-marketplace overrides of an item
type ListingModel struct {
	ID                   uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	ItemCode             string                      `gorm:"type:varchar(140);not null;uniqueIndex:idx_listing_item_marketplace,priority:1"`
	Marketplace          integration.MarketplaceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_listing_item_marketplace,priority:2"`
	ProductName          string                      `gorm:"type:varchar(255)"`
	CategoryID           string                      `gorm:"type:varchar(50)"`
	AdditionalAttributes map[string]string           `gorm:"type:text;serializer:json"`
	PackageColumns
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "item_marketplace_listings"
}

// ToDomain converts the model to a domain listing
func (m *ListingModel) ToDomain() integration.CrossChannelListing {
	return integration.CrossChannelListing{
		Marketplace:          m.Marketplace,
		ProductName:          m.ProductName,
		CategoryID:           m.CategoryID,
		Package:              m.PackageColumns.toDomain(),
		AdditionalAttributes: m.AdditionalAttributes,
	}
}

func listingModelFromDomain(itemCode string, l integration.CrossChannelListing) ListingModel {
	return ListingModel{
		ID:                   uuid.New(),
		ItemCode:             itemCode,
		Marketplace:          l.Marketplace,
		ProductName:          l.ProductName,
		CategoryID:           l.CategoryID,
		AdditionalAttributes: l.AdditionalAttributes,
		PackageColumns:       packageColumnsFromDomain(l.Package),
	}
}
