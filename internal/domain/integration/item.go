package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// Specification is one named product specification rendered in the description
type Specification struct {
	Name  string
	Value string
}

// PackageDimensions holds shipping dimensions. A zero value means unset.
type PackageDimensions struct {
	Height decimal.Decimal
	Length decimal.Decimal
	Width  decimal.Decimal
	Weight decimal.Decimal
}

// Or fills every unset dimension from fallback
func (d PackageDimensions) Or(fallback PackageDimensions) PackageDimensions {
	pick := func(v, f decimal.Decimal) decimal.Decimal {
		if v.IsPositive() {
			return v
		}
		return f
	}
	return PackageDimensions{
		Height: pick(d.Height, fallback.Height),
		Length: pick(d.Length, fallback.Length),
		Width:  pick(d.Width, fallback.Width),
		Weight: pick(d.Weight, fallback.Weight),
	}
}

// VariantAttribute is one attribute value that distinguishes a variant
type VariantAttribute struct {
	Attribute string
	Value     string
}

// Variant is a sellable variant of a template item
type Variant struct {
	ItemCode   string
	Attributes []VariantAttribute
	// Image is the main variant image, AttachImage the secondary fallback
	Image        string
	AttachImage  string
	StandardRate decimal.Decimal
	Package      PackageDimensions
	Barcode      string
}

// SellerSKU returns the identifier presented to the marketplace
func (v *Variant) SellerSKU() string {
	if v.Barcode != "" {
		return v.Barcode
	}
	return v.ItemCode
}

// ImageRef returns the variant image reference, if any
func (v *Variant) ImageRef() string {
	if v.Image != "" {
		return v.Image
	}
	return v.AttachImage
}

// CrossChannelListing holds per-marketplace overrides for an item
type CrossChannelListing struct {
	Marketplace MarketplaceCode
	ProductName string
	// CategoryID bypasses category resolution when set
	CategoryID string
	Package    PackageDimensions
	// AdditionalAttributes are merged into the product attributes as-is
	AdditionalAttributes map[string]string
}

// Item is an internal catalog item, either a single product or a variant template
type Item struct {
	Code            string
	Name            string
	ItemGroup       string
	Description     string
	Brand           string
	Image           string
	SecondaryImages []string
	Images360       []string
	Specifications  []Specification
	VideoURL        string
	StandardRate    decimal.Decimal
	Package         PackageDimensions
	Barcode         string
	// DefaultWarehouse is used for stock lookups when set
	DefaultWarehouse string
	Variants         []Variant
	Listings         map[MarketplaceCode]CrossChannelListing
}

// HasVariants returns true when the item is a variant template
func (i *Item) HasVariants() bool {
	return len(i.Variants) > 0
}

// SellerSKU returns the identifier presented to the marketplace for a single item
func (i *Item) SellerSKU() string {
	if i.Barcode != "" {
		return i.Barcode
	}
	return i.Code
}

// Listing returns the cross channel listing for a marketplace
func (i *Item) Listing(marketplace MarketplaceCode) (CrossChannelListing, bool) {
	listing, ok := i.Listings[marketplace]
	return listing, ok
}

// ProductName returns the listing name when set, else the item name
func (i *Item) ProductName(marketplace MarketplaceCode) string {
	if listing, ok := i.Listing(marketplace); ok && listing.ProductName != "" {
		return listing.ProductName
	}
	return i.Name
}

// ItemGroup is an internal item group with optional per-marketplace category references
type ItemGroup struct {
	Name string
	// PlatformCategories maps a marketplace to a category display name
	PlatformCategories map[MarketplaceCode]string
}

// ItemRepository reads catalog items
type ItemRepository interface {
	// FindByCode loads an item with its variants and listings
	FindByCode(ctx context.Context, code string) (*Item, error)
	// FindItemGroup returns nil, nil when the group does not exist
	FindItemGroup(ctx context.Context, name string) (*ItemGroup, error)
}
