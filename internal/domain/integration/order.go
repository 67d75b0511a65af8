package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultCustomerName is used when an order carries no buyer name
	DefaultCustomerName = "Lazada Customer"
	// DeliveryLeadTime is added to the status update date to get the delivery date
	DeliveryLeadTime = 7 * 24 * time.Hour
	// OrderMessageType is the webhook message_type of order notifications
	OrderMessageType = 0
)

// PaymentStatus of a local sales order
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// ---------------------------------------------------------------------------
// Customer
// ---------------------------------------------------------------------------

// Customer is a local customer created from a marketplace buyer
type Customer struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Phone       string
	Marketplace MarketplaceCode
	CreatedAt   time.Time
}

// NewCustomer creates a customer, falling back to DefaultCustomerName
func NewCustomer(name, email, phone string, marketplace MarketplaceCode) *Customer {
	if name == "" {
		name = DefaultCustomerName
	}
	return &Customer{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Phone:       phone,
		Marketplace: marketplace,
		CreatedAt:   time.Now(),
	}
}

// ---------------------------------------------------------------------------
// SalesOrder
// ---------------------------------------------------------------------------

// ShippingAddress is the delivery address of a sales order
type ShippingAddress struct {
	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	City         string
	State        string
	Country      string
	PostCode     string
	Phone        string
}

// ShippingAddressFrom converts a marketplace address, returning nil when empty
func ShippingAddressFrom(addr RemoteAddress) *ShippingAddress {
	if addr.IsEmpty() {
		return nil
	}
	return &ShippingAddress{
		AddressLine1: addr.Address1,
		AddressLine2: addr.Address2,
		AddressLine3: addr.Address3,
		City:         addr.City,
		State:        addr.District,
		Country:      addr.Country,
		PostCode:     addr.PostCode,
		Phone:        addr.Phone,
	}
}

// OrderLine is one item line of a sales order
type OrderLine struct {
	ID                uuid.UUID
	ItemCode          string
	ItemName          string
	MarketplaceLineID string
	Quantity          decimal.Decimal
	Rate              decimal.Decimal
	Amount            decimal.Decimal
}

// NewOrderLine builds a line from a marketplace order item.
// Marketplace order items are one unit each unless a quantity is reported.
func NewOrderLine(item RemoteOrderItem) OrderLine {
	qty := item.Quantity
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}
	rate := item.ItemPrice
	if rate.IsZero() {
		rate = item.PaidPrice
	}
	return OrderLine{
		ID:                uuid.New(),
		ItemCode:          item.SellerSKU,
		ItemName:          item.Name,
		MarketplaceLineID: item.OrderItemID,
		Quantity:          qty,
		Rate:              rate,
		Amount:            rate.Mul(qty),
	}
}

// SalesOrder is a local order created from a marketplace order
type SalesOrder struct {
	ID                 uuid.UUID
	Marketplace        MarketplaceCode
	CustomerID         uuid.UUID
	CustomerName       string
	MarketplaceOrderID string
	MarketplaceLineID  string
	MarketplaceStatus  OrderStatus
	StatusUpdatedAt    time.Time
	NotifiedAt         *time.Time
	Site               string
	SellerID           string
	BuyerID            string
	TransactionDate    time.Time
	DeliveryDate       time.Time
	PaymentStatus      PaymentStatus
	Lines              []OrderLine
	ShippingAddress    *ShippingAddress
	Notes              []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewSalesOrder creates an order in the given state. Orders created as Unpaid
// are unpaid; any later state means the buyer already paid.
func NewSalesOrder(marketplace MarketplaceCode, marketplaceOrderID string, status OrderStatus, updatedAt time.Time) (*SalesOrder, error) {
	if marketplaceOrderID == "" {
		return nil, ErrMissingMarketplaceOrderID
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}
	payment := PaymentStatusPaid
	if status == OrderStatusUnpaid {
		payment = PaymentStatusUnpaid
	}
	now := time.Now()
	return &SalesOrder{
		ID:                 uuid.New(),
		Marketplace:        marketplace,
		MarketplaceOrderID: marketplaceOrderID,
		MarketplaceStatus:  status,
		StatusUpdatedAt:    updatedAt,
		TransactionDate:    updatedAt,
		DeliveryDate:       updatedAt.Add(DeliveryLeadTime),
		PaymentStatus:      payment,
		Lines:              make([]OrderLine, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// SetCustomer assigns the buyer
func (o *SalesOrder) SetCustomer(c *Customer) {
	o.CustomerID = c.ID
	o.CustomerName = c.Name
}

// AddLine appends a line
func (o *SalesOrder) AddLine(line OrderLine) {
	o.Lines = append(o.Lines, line)
}

// AddNote appends an informational note
func (o *SalesOrder) AddNote(note string) {
	o.Notes = append(o.Notes, note)
	o.UpdatedAt = time.Now()
}

// ApplyStatus moves the order to next. Replaying the current state only
// refreshes the status timestamp. Leaving Unpaid marks the order Paid.
func (o *SalesOrder) ApplyStatus(next OrderStatus, at time.Time) error {
	if !o.MarketplaceStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.MarketplaceStatus, next)
	}
	if o.MarketplaceStatus == OrderStatusUnpaid && next != OrderStatusUnpaid && next != OrderStatusCancelled {
		o.PaymentStatus = PaymentStatusPaid
	}
	o.MarketplaceStatus = next
	o.StatusUpdatedAt = at
	o.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// Inventory
// ---------------------------------------------------------------------------

// MaterialRequestType classifies material requests
type MaterialRequestType string

// MaterialRequestPurchase asks purchasing to buy the missing quantity
const MaterialRequestPurchase MaterialRequestType = "Purchase"

// StockLevel is the on-hand quantity of an item in a warehouse
type StockLevel struct {
	ItemCode  string
	Warehouse string
	ActualQty decimal.Decimal
}

// Shortfall returns how much of required is not on hand, or zero
func (s StockLevel) Shortfall(required decimal.Decimal) decimal.Decimal {
	gap := required.Sub(s.ActualQty)
	if gap.IsPositive() {
		return gap
	}
	return decimal.Zero
}

// MaterialRequest asks for stock to cover a sales order shortfall
type MaterialRequest struct {
	ID           uuid.UUID
	Type         MaterialRequestType
	ItemCode     string
	Quantity     decimal.Decimal
	Warehouse    string
	SalesOrderID uuid.UUID
	ScheduleDate time.Time
	CreatedAt    time.Time
}

// NewPurchaseRequest creates a purchase material request for an order shortfall
func NewPurchaseRequest(order *SalesOrder, itemCode, warehouse string, qty decimal.Decimal) *MaterialRequest {
	now := time.Now()
	return &MaterialRequest{
		ID:           uuid.New(),
		Type:         MaterialRequestPurchase,
		ItemCode:     itemCode,
		Quantity:     qty,
		Warehouse:    warehouse,
		SalesOrderID: order.ID,
		ScheduleDate: order.DeliveryDate,
		CreatedAt:    now,
	}
}

// ShortfallNote is the order note recorded for a material request
func ShortfallNote(req *MaterialRequest) string {
	return fmt.Sprintf("Material Request %s created for insufficient inventory of %s", req.ID, req.ItemCode)
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

// OrderNotification is an order event pushed or polled from the marketplace
type OrderNotification struct {
	Marketplace        MarketplaceCode
	MarketplaceOrderID string
	MarketplaceLineID  string
	Status             string
	UpdatedAt          time.Time
	NotifiedAt         time.Time
	Site               string
	SellerID           string
	BuyerID            string
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// SalesOrderRepository persists sales orders
type SalesOrderRepository interface {
	// FindByMarketplaceOrderID returns ErrOrderNotFound when absent
	FindByMarketplaceOrderID(ctx context.Context, marketplace MarketplaceCode, orderID string) (*SalesOrder, error)
	// Create inserts the order with its lines and address
	Create(ctx context.Context, order *SalesOrder) error
	// Update writes status, payment and notes
	Update(ctx context.Context, order *SalesOrder) error
}

// CustomerRepository persists customers
type CustomerRepository interface {
	// FindByName returns nil, nil when no customer has the name
	FindByName(ctx context.Context, name string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
}

// StockRepository reads stock levels
type StockRepository interface {
	// GetStockLevel returns a zero level when nothing is recorded
	GetStockLevel(ctx context.Context, itemCode, warehouse string) (StockLevel, error)
}

// MaterialRequestRepository persists material requests
type MaterialRequestRepository interface {
	Create(ctx context.Context, req *MaterialRequest) error
}
