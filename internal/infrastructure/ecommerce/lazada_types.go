package ecommerce

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/erp/marketplace/internal/domain/integration"
)

// lazadaTimeLayout is the timestamp format of order payloads
const lazadaTimeLayout = "2006-01-02 15:04:05 -0700"

// ---------------------------------------------------------------------------
// Common Lazada API Response Types
// ---------------------------------------------------------------------------

// LazadaResponse is the envelope of every Lazada API response
type LazadaResponse struct {
	// Code is "0" (or numeric 0) on success
	Code      integration.FlexString `json:"code"`
	Type      string                 `json:"type,omitempty"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Data      json.RawMessage        `json:"data,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *LazadaResponse) IsSuccess() bool {
	return r.Code == "0"
}

// ---------------------------------------------------------------------------
// Category Types
// ---------------------------------------------------------------------------

// LazadaCategory is one node of /category/tree/get
type LazadaCategory struct {
	CategoryID integration.FlexString `json:"category_id"`
	Name       string                 `json:"name"`
	Leaf       bool                   `json:"leaf"`
	Var        bool                   `json:"var"`
	Children   []LazadaCategory       `json:"children,omitempty"`
}

// toDomain converts the node and its subtree
func (c LazadaCategory) toDomain() integration.RemoteCategory {
	out := integration.RemoteCategory{
		CategoryID: c.CategoryID.String(),
		Name:       c.Name,
		Leaf:       c.Leaf,
		Var:        c.Var,
	}
	if len(c.Children) > 0 {
		out.Children = make([]integration.RemoteCategory, 0, len(c.Children))
		for _, child := range c.Children {
			out.Children = append(out.Children, child.toDomain())
		}
	}
	return out
}

// LazadaCategorySuggestionData is the data of /product/category/suggestion/get
type LazadaCategorySuggestionData struct {
	CategorySuggestions []LazadaCategorySuggestion `json:"categorySuggestions"`
}

// LazadaCategorySuggestion is one suggested category
type LazadaCategorySuggestion struct {
	CategoryName string                 `json:"categoryName"`
	CategoryID   integration.FlexString `json:"categoryId"`
	CategoryPath string                 `json:"categoryPath"`
}

// LazadaAttribute is one entry of /category/attributes/get
type LazadaAttribute struct {
	ID            integration.FlexString `json:"id"`
	Name          string                 `json:"name"`
	Label         string                 `json:"label"`
	AttributeType string                 `json:"attribute_type"`
	InputType     string                 `json:"input_type"`
	IsMandatory   integration.FlexString `json:"is_mandatory"`
	IsSaleProp    integration.FlexString `json:"is_sale_prop"`
}

func (a LazadaAttribute) toDomain() integration.RemoteAttribute {
	return integration.RemoteAttribute{
		ID:            a.ID.String(),
		Name:          a.Name,
		Label:         a.Label,
		AttributeType: a.AttributeType,
		InputType:     a.InputType,
		IsMandatory:   a.IsMandatory.Int64() == 1,
		IsSaleProp:    a.IsSaleProp.Int64() == 1 || a.AttributeType == "sku",
	}
}

// ---------------------------------------------------------------------------
// Product Types
// ---------------------------------------------------------------------------

// LazadaCreateProductData is the data of /product/create
type LazadaCreateProductData struct {
	ItemID  integration.FlexString `json:"item_id"`
	SKUList []LazadaCreatedSKU     `json:"sku_list"`
}

// LazadaCreatedSKU identifies a created SKU
type LazadaCreatedSKU struct {
	SellerSKU string                 `json:"seller_sku"`
	SkuID     integration.FlexString `json:"sku_id"`
	ShopSKU   string                 `json:"shop_sku"`
}

// LazadaImageUploadData is the data of /image/upload
type LazadaImageUploadData struct {
	Image struct {
		URL  string `json:"url"`
		Hash string `json:"hash"`
	} `json:"image"`
}

// ---------------------------------------------------------------------------
// Order Types
// ---------------------------------------------------------------------------

// LazadaAddress is an order address
type LazadaAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	Address3  string `json:"address3"`
	City      string `json:"city"`
	District  string `json:"addressDistrict"`
	Country   string `json:"country"`
	PostCode  string `json:"post_code"`
}

// LazadaBuyerInfo is the optional buyer block of an order
type LazadaBuyerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LazadaOrder is an order from /order/get or /orders/get
type LazadaOrder struct {
	OrderID           integration.FlexString `json:"order_id"`
	OrderNumber       integration.FlexString `json:"order_number"`
	CustomerFirstName string                 `json:"customer_first_name"`
	CustomerLastName  string                 `json:"customer_last_name"`
	BuyerInfo         *LazadaBuyerInfo       `json:"buyer_info,omitempty"`
	Statuses          []string               `json:"statuses"`
	Price             integration.FlexString `json:"price"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at"`
	AddressShipping   LazadaAddress          `json:"address_shipping"`
	ItemsCount        integration.FlexString `json:"items_count"`
	PaymentMethod     string                 `json:"payment_method"`
	Remarks           string                 `json:"remarks"`
	WarehouseCode     string                 `json:"warehouse_code"`
}

// buyerName prefers buyer_info.name, then the customer names
func (o LazadaOrder) buyerName() string {
	if o.BuyerInfo != nil && o.BuyerInfo.Name != "" {
		return o.BuyerInfo.Name
	}
	return strings.TrimSpace(o.CustomerFirstName + " " + o.CustomerLastName)
}

func (o LazadaOrder) toDomain() integration.RemoteOrder {
	order := integration.RemoteOrder{
		OrderID:     o.OrderID.String(),
		OrderNumber: o.OrderNumber.String(),
		BuyerName:   o.buyerName(),
		Statuses:    o.Statuses,
		Price:       o.Price.Decimal(),
		CreatedAt:   parseLazadaTime(o.CreatedAt),
		UpdatedAt:   parseLazadaTime(o.UpdatedAt),
		AddressShip: integration.RemoteAddress{
			FirstName: o.AddressShipping.FirstName,
			LastName:  o.AddressShipping.LastName,
			Phone:     o.AddressShipping.Phone,
			Address1:  o.AddressShipping.Address1,
			Address2:  o.AddressShipping.Address2,
			Address3:  o.AddressShipping.Address3,
			City:      o.AddressShipping.City,
			District:  o.AddressShipping.District,
			Country:   o.AddressShipping.Country,
			PostCode:  o.AddressShipping.PostCode,
		},
		ItemsCount:   int(o.ItemsCount.Int64()),
		PaymentName:  o.PaymentMethod,
		Remarks:      o.Remarks,
		WarehouseTag: o.WarehouseCode,
	}
	if o.BuyerInfo != nil {
		order.BuyerEmail = o.BuyerInfo.Email
		order.BuyerPhone = o.BuyerInfo.Phone
	}
	return order
}

// LazadaOrderListData is the data of /orders/get
type LazadaOrderListData struct {
	Count      int           `json:"count"`
	CountTotal int           `json:"countTotal"`
	Orders     []LazadaOrder `json:"orders"`
}

// LazadaOrderItem is one entry of /order/items/get
type LazadaOrderItem struct {
	OrderItemID integration.FlexString `json:"order_item_id"`
	SKU         string                 `json:"sku"`
	ShopSKU     string                 `json:"shop_sku"`
	SkuID       integration.FlexString `json:"sku_id"`
	Name        string                 `json:"name"`
	Quantity    integration.FlexString `json:"quantity"`
	ItemPrice   integration.FlexString `json:"item_price"`
	PaidPrice   integration.FlexString `json:"paid_price"`
	Status      string                 `json:"status"`
}

func (i LazadaOrderItem) toDomain() integration.RemoteOrderItem {
	return integration.RemoteOrderItem{
		OrderItemID: i.OrderItemID.String(),
		SellerSKU:   i.SKU,
		ShopSKU:     i.ShopSKU,
		SkuID:       i.SkuID.String(),
		Name:        i.Name,
		Quantity:    i.Quantity.Decimal(),
		ItemPrice:   i.ItemPrice.Decimal(),
		PaidPrice:   i.PaidPrice.Decimal(),
		Status:      i.Status,
	}
}

// ---------------------------------------------------------------------------
// Token Types
// ---------------------------------------------------------------------------

// LazadaTokenResponse is the response of /auth/token/refresh. Token fields sit
// at the top level rather than under data.
type LazadaTokenResponse struct {
	Code             integration.FlexString `json:"code"`
	Message          string                 `json:"message,omitempty"`
	RequestID        string                 `json:"request_id,omitempty"`
	AccessToken      string                 `json:"access_token"`
	RefreshToken     string                 `json:"refresh_token"`
	ExpiresIn        integration.FlexString `json:"expires_in"`
	RefreshExpiresIn integration.FlexString `json:"refresh_expires_in"`
	Account          string                 `json:"account"`
}

// parseLazadaTime parses an order timestamp, returning the zero time on failure
func parseLazadaTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(lazadaTimeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
