package integration

import (
	"encoding/json"
	"fmt"
)

// Product attribute keys every payload carries
const (
	AttributeKeyName        = "name"
	AttributeKeyBrand       = "brand"
	AttributeKeyDescription = "description"
)

// ProductPayload is the request document sent as the "payload" parameter of
// product create and update calls.
type ProductPayload struct {
	Request PayloadRequest `json:"Request"`
}

// PayloadRequest wraps the product
type PayloadRequest struct {
	Product PayloadProduct `json:"Product"`
}

// PayloadProduct is the product node of a payload
type PayloadProduct struct {
	ItemID          string            `json:"ItemId,omitempty"`
	PrimaryCategory string            `json:"PrimaryCategory,omitempty"`
	Images          *PayloadImages    `json:"Images,omitempty"`
	Attributes      map[string]string `json:"Attributes"`
	Skus            PayloadSkus       `json:"Skus"`
}

// PayloadImages is a list of marketplace image URLs
type PayloadImages struct {
	Image []string `json:"Image"`
}

// PayloadSkus wraps the SKU list
type PayloadSkus struct {
	Sku []PayloadSKU `json:"Sku"`
}

// PayloadSKU is one sellable unit of a payload
type PayloadSKU struct {
	SkuID         string            `json:"SkuId,omitempty"`
	SellerSku     string            `json:"SellerSku"`
	Price         string            `json:"price"`
	Quantity      int               `json:"quantity"`
	PackageHeight string            `json:"package_height"`
	PackageLength string            `json:"package_length"`
	PackageWidth  string            `json:"package_width"`
	PackageWeight string            `json:"package_weight"`
	SaleProp      map[string]string `json:"saleProp,omitempty"`
	Images        *PayloadImages    `json:"Images,omitempty"`
}

// NewProductPayload creates an empty create payload for a category
func NewProductPayload(categoryID string) *ProductPayload {
	return &ProductPayload{
		Request: PayloadRequest{
			Product: PayloadProduct{
				PrimaryCategory: categoryID,
				Images:          &PayloadImages{Image: make([]string, 0)},
				Attributes:      make(map[string]string),
				Skus:            PayloadSkus{Sku: make([]PayloadSKU, 0)},
			},
		},
	}
}

// Product returns the product node
func (p *ProductPayload) Product() *PayloadProduct {
	return &p.Request.Product
}

// SKUs returns the SKU entries
func (p *ProductPayload) SKUs() []PayloadSKU {
	return p.Request.Product.Skus.Sku
}

// SellerSKUs returns the seller SKU of every entry in order
func (p *ProductPayload) SellerSKUs() []string {
	out := make([]string, 0, len(p.SKUs()))
	for _, sku := range p.SKUs() {
		out = append(out, sku.SellerSku)
	}
	return out
}

// IsUpdate returns true for update payloads
func (p *ProductPayload) IsUpdate() bool {
	return p.Request.Product.ItemID != ""
}

// ToUpdate derives the update shape: ItemId is set, PrimaryCategory and
// product images are dropped, and each SKU carries the SkuId found in skuIDs
// (keyed by seller SKU) or its seller SKU when unknown.
func (p *ProductPayload) ToUpdate(itemID string, skuIDs map[string]string) *ProductPayload {
	src := p.Request.Product
	attrs := make(map[string]string, len(src.Attributes))
	for k, v := range src.Attributes {
		attrs[k] = v
	}
	skus := make([]PayloadSKU, 0, len(src.Skus.Sku))
	for _, sku := range src.Skus.Sku {
		sku.SkuID = sku.SellerSku
		if id, ok := skuIDs[sku.SellerSku]; ok && id != "" {
			sku.SkuID = id
		}
		skus = append(skus, sku)
	}
	return &ProductPayload{
		Request: PayloadRequest{
			Product: PayloadProduct{
				ItemID:     itemID,
				Attributes: attrs,
				Skus:       PayloadSkus{Sku: skus},
			},
		},
	}
}

// ToJSON serializes the payload for the "payload" request parameter
func (p *ProductPayload) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("integration: encode product payload: %w", err)
	}
	return string(data), nil
}
