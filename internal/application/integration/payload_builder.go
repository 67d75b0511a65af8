package integration

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/config"
)

// CategoryResolver resolves the marketplace category of an item group
type CategoryResolver interface {
	ResolveCategoryID(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (string, error)
}

// SalesAttributeSource returns the sales properties that define SKUs
type SalesAttributeSource interface {
	SalesAttributes(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.SalesAttribute, error)
}

// ImageUploader turns an image reference into a marketplace URI
type ImageUploader interface {
	Upload(ctx context.Context, cred *integration.Credential, ref string, useCase integration.ImageUseCase) (string, bool)
}

// CredentialSource returns a ready to use shop credential
type CredentialSource interface {
	ActiveCredentials(ctx context.Context, shop string) (*integration.Credential, error)
}

// defaultSaleProp is used for a variant none of whose attributes is a sales property
const (
	defaultSalePropKey   = "color"
	defaultSalePropValue = "Default"
)

// PayloadBuilder assembles marketplace product payloads from catalog items.
// It uploads images but never writes to the database.
type PayloadBuilder struct {
	credentials CredentialSource
	categories  CategoryResolver
	attributes  SalesAttributeSource
	images      ImageUploader
	stock       integration.StockRepository
	skus        integration.SKUMappingRepository
	defaults    config.ProductConfig
	warehouse   string
	marketplace integration.MarketplaceCode
	logger      *zap.Logger
}

// NewPayloadBuilder creates a PayloadBuilder. warehouse is the stock location
// used when neither the item nor the shop names one.
func NewPayloadBuilder(
	credentials CredentialSource,
	categories CategoryResolver,
	attributes SalesAttributeSource,
	images ImageUploader,
	stock integration.StockRepository,
	skus integration.SKUMappingRepository,
	defaults config.ProductConfig,
	warehouse string,
	logger *zap.Logger,
) *PayloadBuilder {
	return &PayloadBuilder{
		credentials: credentials,
		categories:  categories,
		attributes:  attributes,
		images:      images,
		stock:       stock,
		skus:        skus,
		defaults:    defaults,
		warehouse:   warehouse,
		marketplace: integration.MarketplaceLazada,
		logger:      logger.Named("payload_builder"),
	}
}

// buildContext carries per-build state
type buildContext struct {
	cred      *integration.Credential
	item      *integration.Item
	listing   integration.CrossChannelListing
	warehouse string
	images    *imageList
	log       *zap.Logger
}

// Build produces the create payload for an item. ErrCategoryNotFound is
// returned when no category can be resolved.
func (b *PayloadBuilder) Build(ctx context.Context, shop string, item *integration.Item) (*integration.ProductPayload, error) {
	cred, err := b.credentials.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}
	listing, _ := item.Listing(b.marketplace)
	bc := &buildContext{
		cred:      cred,
		item:      item,
		listing:   listing,
		warehouse: b.stockWarehouse(item, cred),
		images:    newImageList(),
		log:       b.logger.With(zap.String("item_code", item.Code), zap.String("shop", shop)),
	}

	categoryID := listing.CategoryID
	if categoryID == "" {
		categoryID, err = b.categories.ResolveCategoryID(ctx, item.ItemGroup, b.marketplace)
		if err != nil {
			bc.log.Warn("Missing category", zap.String("item_group", item.ItemGroup), zap.Error(err))
			return nil, err
		}
	}

	payload := integration.NewProductPayload(categoryID)
	product := payload.Product()

	b.collectItemImages(ctx, bc)

	var skus []integration.PayloadSKU
	if item.HasVariants() {
		skus, err = b.variantSKUs(ctx, bc)
		if err != nil {
			return nil, err
		}
	} else {
		skus = []integration.PayloadSKU{b.singleSKU(ctx, bc)}
	}
	if len(skus) == 0 {
		return nil, fmt.Errorf("%w: item %s", integration.ErrNoSKUs, item.Code)
	}

	product.Skus.Sku = skus
	product.Images.Image = bc.images.uris
	product.Attributes[integration.AttributeKeyName] = item.ProductName(b.marketplace)
	product.Attributes[integration.AttributeKeyBrand] = b.brand(item)
	product.Attributes[integration.AttributeKeyDescription] = b.description(item)
	for k, v := range listing.AdditionalAttributes {
		product.Attributes[k] = v
	}

	bc.log.Debug("Payload built", zap.String("category_id", categoryID), zap.Int("skus", len(skus)), zap.Int("images", len(bc.images.uris)))
	return payload, nil
}

// BuildUpdate derives the update payload for an already published product,
// filling SkuId from the stored SKU mappings.
func (b *PayloadBuilder) BuildUpdate(ctx context.Context, payload *integration.ProductPayload, itemID string) (*integration.ProductPayload, error) {
	ids, err := b.skus.FindSkuIDs(ctx, b.marketplace, payload.SellerSKUs())
	if err != nil {
		return nil, fmt.Errorf("load sku ids: %w", err)
	}
	return payload.ToUpdate(itemID, ids), nil
}

// collectItemImages uploads the main image, then secondary and 360 images as
// extras. A failed or missing main image is replaced by the default image.
func (b *PayloadBuilder) collectItemImages(ctx context.Context, bc *buildContext) {
	main := ""
	if bc.item.Image != "" {
		main, _ = b.images.Upload(ctx, bc.cred, bc.item.Image, integration.ImageUseCaseMain)
	}
	if main == "" {
		main = b.defaults.DefaultImageURL
	}
	bc.images.add(main)

	extras := 0
	for _, ref := range append(append([]string{}, bc.item.SecondaryImages...), bc.item.Images360...) {
		if extras >= b.defaults.MaxExtraImages {
			break
		}
		if uri, ok := b.images.Upload(ctx, bc.cred, ref, integration.ImageUseCaseDescription); ok && bc.images.add(uri) {
			extras++
		}
	}
}

func (b *PayloadBuilder) variantSKUs(ctx context.Context, bc *buildContext) ([]integration.PayloadSKU, error) {
	salesAttrs, err := b.attributes.SalesAttributes(ctx, b.marketplace)
	if err != nil {
		return nil, err
	}
	salesAttrs = integration.CapSalesAttributes(salesAttrs)

	seen := make(map[string]struct{})
	skus := make([]integration.PayloadSKU, 0, len(bc.item.Variants))
	for i := range bc.item.Variants {
		v := &bc.item.Variants[i]

		saleProp := salePropFor(v, salesAttrs)
		combo := comboKey(saleProp)
		if _, dup := seen[combo]; dup {
			bc.log.Warn("Skipping variant with duplicate sales attributes",
				zap.String("variant", v.ItemCode),
				zap.String("combination", combo),
			)
			continue
		}
		seen[combo] = struct{}{}

		sku := b.baseSKU(ctx, bc, v.SellerSKU(), v.ItemCode, v.StandardRate, v.Package)
		sku.SaleProp = saleProp
		if ref := v.ImageRef(); ref != "" {
			if uri, ok := b.images.Upload(ctx, bc.cred, ref, integration.ImageUseCaseAttribute); ok {
				sku.Images = &integration.PayloadImages{Image: []string{uri}}
				bc.images.add(uri)
			}
		}
		skus = append(skus, sku)
	}
	return skus, nil
}

func (b *PayloadBuilder) singleSKU(ctx context.Context, bc *buildContext) integration.PayloadSKU {
	return b.baseSKU(ctx, bc, bc.item.SellerSKU(), bc.item.Code, decimal.Zero, integration.PackageDimensions{})
}

func (b *PayloadBuilder) baseSKU(ctx context.Context, bc *buildContext, sellerSKU, stockCode string, rate decimal.Decimal, pkg integration.PackageDimensions) integration.PayloadSKU {
	price := rate
	if !price.IsPositive() {
		price = bc.item.StandardRate
	}
	if !price.IsPositive() {
		price = decimal.NewFromInt(b.defaults.DefaultPrice)
	}

	size := decimal.NewFromInt(int64(b.defaults.DefaultPackageSize))
	dims := pkg.Or(bc.listing.Package).Or(bc.item.Package).Or(integration.PackageDimensions{
		Height: size, Length: size, Width: size, Weight: size,
	})

	return integration.PayloadSKU{
		SellerSku:     sellerSKU,
		Price:         price.String(),
		Quantity:      b.quantity(ctx, bc, stockCode),
		PackageHeight: dims.Height.String(),
		PackageLength: dims.Length.String(),
		PackageWidth:  dims.Width.String(),
		PackageWeight: dims.Weight.String(),
	}
}

// quantity reads on-hand stock, falling back to the default quantity when
// nothing positive is recorded or the lookup fails
func (b *PayloadBuilder) quantity(ctx context.Context, bc *buildContext, itemCode string) int {
	if bc.warehouse == "" {
		return b.defaults.DefaultQuantity
	}
	level, err := b.stock.GetStockLevel(ctx, itemCode, bc.warehouse)
	if err != nil {
		bc.log.Warn("Stock lookup failed, using default quantity", zap.String("stock_item", itemCode), zap.Error(err))
		return b.defaults.DefaultQuantity
	}
	if !level.ActualQty.IsPositive() {
		return b.defaults.DefaultQuantity
	}
	// whole units only, but a positive remainder below one still lists as in stock
	return max(int(level.ActualQty.IntPart()), 1)
}

func (b *PayloadBuilder) stockWarehouse(item *integration.Item, cred *integration.Credential) string {
	switch {
	case item.DefaultWarehouse != "":
		return item.DefaultWarehouse
	case cred.DefaultWarehouse != "":
		return cred.DefaultWarehouse
	default:
		return b.warehouse
	}
}

func (b *PayloadBuilder) brand(item *integration.Item) string {
	if item.Brand != "" {
		return item.Brand
	}
	return b.defaults.DefaultBrand
}

// description renders the item description, a specification list and a video link
func (b *PayloadBuilder) description(item *integration.Item) string {
	var sb strings.Builder
	if item.Description != "" {
		sb.WriteString(item.Description)
	} else {
		sb.WriteString(b.defaults.DefaultDescription)
	}
	if len(item.Specifications) > 0 {
		sb.WriteString("<ul>")
		for _, spec := range item.Specifications {
			fmt.Fprintf(&sb, "<li>%s: %s</li>", html.EscapeString(spec.Name), html.EscapeString(spec.Value))
		}
		sb.WriteString("</ul>")
	}
	if item.VideoURL != "" {
		fmt.Fprintf(&sb, "<p>Video: <a href='%s'>%s</a></p>", html.EscapeString(item.VideoURL), "Watch video")
	}
	return sb.String()
}

// salePropFor maps variant attributes onto sales properties. Keys are the
// lower-cased marketplace attribute names with spaces replaced by underscores.
func salePropFor(v *integration.Variant, attrs []integration.SalesAttribute) map[string]string {
	byItemAttr := make(map[string]integration.SalesAttribute, len(attrs))
	for _, a := range attrs {
		byItemAttr[a.ItemAttribute] = a
	}

	prop := make(map[string]string)
	for _, va := range v.Attributes {
		if a, ok := byItemAttr[va.Attribute]; ok {
			prop[salePropKey(a.Name)] = va.Value
		}
	}
	if len(prop) == 0 {
		prop[defaultSalePropKey] = defaultSalePropValue
	}
	return prop
}

func salePropKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// comboKey renders a sale property set independent of map order
func comboKey(prop map[string]string) string {
	parts := make([]string, 0, len(prop))
	for k, v := range prop {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// imageList keeps URIs unique in first-seen order
type imageList struct {
	uris []string
	seen map[string]struct{}
}

func newImageList() *imageList {
	return &imageList{uris: make([]string, 0), seen: make(map[string]struct{})}
}

// add appends uri when it is new and reports whether it did
func (l *imageList) add(uri string) bool {
	if uri == "" {
		return false
	}
	if _, ok := l.seen[uri]; ok {
		return false
	}
	l.seen[uri] = struct{}{}
	l.uris = append(l.uris, uri)
	return true
}
