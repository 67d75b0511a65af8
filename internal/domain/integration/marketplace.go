package integration

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// MarketplaceCode represents the external marketplace
// ---------------------------------------------------------------------------

// MarketplaceCode represents the external marketplace
type MarketplaceCode string

const (
	// MarketplaceLazada represents the Lazada Open Platform
	MarketplaceLazada MarketplaceCode = "Lazada"
	// MarketplaceTikTokShop is reserved, no adapter yet
	MarketplaceTikTokShop MarketplaceCode = "TikTok Shop"
	// MarketplaceShopee is reserved, no adapter yet
	MarketplaceShopee MarketplaceCode = "Shopee"
	// MarketplaceTiki is reserved, no adapter yet
	MarketplaceTiki MarketplaceCode = "Tiki"
)

// IsValid returns true if the marketplace code is known
func (c MarketplaceCode) IsValid() bool {
	switch c {
	case MarketplaceLazada, MarketplaceTikTokShop, MarketplaceShopee, MarketplaceTiki:
		return true
	default:
		return false
	}
}

// IsSupported returns true if an adapter exists for the marketplace
func (c MarketplaceCode) IsSupported() bool {
	return c == MarketplaceLazada
}

// String returns the string representation of MarketplaceCode
func (c MarketplaceCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// SyncStatus represents the outcome of the last product sync
// ---------------------------------------------------------------------------

// SyncStatus represents the outcome of the last product sync
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "Success"
	SyncStatusFailed  SyncStatus = "Failed"
)

// IsValid returns true if the sync status is valid
func (s SyncStatus) IsValid() bool {
	return s == SyncStatusSuccess || s == SyncStatusFailed
}

// ---------------------------------------------------------------------------
// Remote value objects returned by a MarketplaceGateway
// ---------------------------------------------------------------------------

// RemoteCategory is one node of the nested category tree returned by the marketplace
type RemoteCategory struct {
	CategoryID string
	Name       string
	Leaf       bool
	Var        bool
	Children   []RemoteCategory
}

// CategorySuggestion is a category proposed by the marketplace for a product name
type CategorySuggestion struct {
	CategoryID   string
	CategoryName string
	CategoryPath string
}

// RemoteAttribute is a category attribute definition returned by the marketplace
type RemoteAttribute struct {
	ID            string
	Name          string
	Label         string
	AttributeType string // "sku" for sales properties, "normal" otherwise
	InputType     string
	IsMandatory   bool
	IsSaleProp    bool
}

// CreatedSKU identifies one SKU created by the marketplace
type CreatedSKU struct {
	SellerSKU string
	ShopSKU   string
	SkuID     string
}

// CreatedProduct is the marketplace response to a product creation
type CreatedProduct struct {
	ItemID string
	SKUs   []CreatedSKU
}

// RemoteAddress is the shipping address attached to a marketplace order
type RemoteAddress struct {
	FirstName string
	LastName  string
	Phone     string
	Address1  string
	Address2  string
	Address3  string
	City      string
	District  string
	Country   string
	PostCode  string
}

// IsEmpty returns true if the address has no usable content
func (a RemoteAddress) IsEmpty() bool {
	return a.Address1 == "" && a.City == "" && a.Country == "" && a.Phone == ""
}

// RemoteOrder is an order as reported by the marketplace
type RemoteOrder struct {
	OrderID      string
	OrderNumber  string
	BuyerName    string
	BuyerEmail   string
	BuyerPhone   string
	Statuses     []string
	Price        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AddressShip  RemoteAddress
	ItemsCount   int
	PaymentName  string
	Remarks      string
	WarehouseTag string
}

// Status returns the first reported status, which is the order level status
func (o RemoteOrder) Status() string {
	if len(o.Statuses) == 0 {
		return ""
	}
	return o.Statuses[0]
}

// RemoteOrderItem is one line of a marketplace order
type RemoteOrderItem struct {
	OrderItemID string
	SellerSKU   string
	ShopSKU     string
	SkuID       string
	Name        string
	Quantity    decimal.Decimal
	ItemPrice   decimal.Decimal
	PaidPrice   decimal.Decimal
	Status      string
}

// TokenGrant is the result of a successful access token refresh
type TokenGrant struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64
	RefreshExpiresIn int64
	Account          string
}

// ---------------------------------------------------------------------------
// MarketplaceGateway Port
// ---------------------------------------------------------------------------

// MarketplaceGateway is the port for signed calls to a marketplace.
// Every method performs exactly one request and never retries.
// Transport failures wrap ErrPlatformRequestFailed; application failures
// are returned as *MarketplaceError.
type MarketplaceGateway interface {
	// Marketplace returns the marketplace this gateway talks to
	Marketplace() MarketplaceCode

	// Category operations
	SuggestCategories(ctx context.Context, cred *Credential, productName string) ([]CategorySuggestion, error)
	GetCategoryTree(ctx context.Context, cred *Credential) ([]RemoteCategory, error)
	GetCategoryAttributes(ctx context.Context, cred *Credential, categoryID string) ([]RemoteAttribute, error)

	// Product operations
	CreateProduct(ctx context.Context, cred *Credential, payload *ProductPayload) (*CreatedProduct, error)
	UpdateProduct(ctx context.Context, cred *Credential, payload *ProductPayload) error
	RemoveProduct(ctx context.Context, cred *Credential, sellerSKUs, skuIDs []string) error
	UploadImage(ctx context.Context, cred *Credential, filename string, content io.Reader, useCase ImageUseCase) (string, error)

	// Order operations
	GetOrder(ctx context.Context, cred *Credential, orderID string) (*RemoteOrder, error)
	GetOrders(ctx context.Context, cred *Credential, since time.Time) ([]RemoteOrder, error)
	GetOrderItems(ctx context.Context, cred *Credential, orderID string) ([]RemoteOrderItem, error)

	// Token operations
	RefreshAccessToken(ctx context.Context, cred *Credential) (*TokenGrant, error)
}
