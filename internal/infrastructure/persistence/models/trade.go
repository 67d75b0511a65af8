package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/marketplace/internal/domain/integration"
)

// CustomerModel is a customer created from a marketplace buyer
type CustomerModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Name        string                      `gorm:"type:varchar(255);not null;index"`
	Email       string                      `gorm:"type:varchar(255)"`
	Phone       string                      `gorm:"type:varchar(50)"`
	Marketplace integration.MarketplaceCode `gorm:"type:varchar(20)"`
	CreatedAt   time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() *integration.Customer {
	return &integration.Customer{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Marketplace: m.Marketplace,
		CreatedAt:   m.CreatedAt,
	}
}

// CustomerModelFromDomain creates a model from a domain customer
func CustomerModelFromDomain(c *integration.Customer) *CustomerModel {
	return &CustomerModel{
		ID:          ensureID(c.ID),
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Marketplace: c.Marketplace,
		CreatedAt:   c.CreatedAt,
	}
}

// SalesOrderModel is the persistence model for integration.SalesOrder
type SalesOrderModel struct {
	BaseModel
	Marketplace        integration.MarketplaceCode  `gorm:"type:varchar(20);not null;uniqueIndex:idx_sales_order_marketplace_id,priority:1"`
	MarketplaceOrderID string                       `gorm:"type:varchar(100);not null;uniqueIndex:idx_sales_order_marketplace_id,priority:2"`
	MarketplaceLineID  string                       `gorm:"type:varchar(100)"`
	MarketplaceStatus  integration.OrderStatus      `gorm:"type:varchar(30);not null"`
	StatusUpdatedAt    time.Time                    `gorm:"not null"`
	NotifiedAt         *time.Time
	CustomerID         uuid.UUID                    `gorm:"type:uuid;index"`
	CustomerName       string                       `gorm:"type:varchar(255)"`
	Site               string                       `gorm:"type:varchar(20)"`
	SellerID           string                       `gorm:"type:varchar(100)"`
	BuyerID            string                       `gorm:"type:varchar(100)"`
	TransactionDate    time.Time                    `gorm:"not null"`
	DeliveryDate       time.Time                    `gorm:"not null"`
	PaymentStatus      integration.PaymentStatus    `gorm:"type:varchar(20);not null"`
	ShippingAddress    *integration.ShippingAddress `gorm:"type:text;serializer:json"`
	Notes              []string                     `gorm:"type:text;serializer:json"`
	Lines              []SalesOrderLineModel        `gorm:"foreignKey:SalesOrderID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the model and its preloaded lines to a domain order
func (m *SalesOrderModel) ToDomain() *integration.SalesOrder {
	order := &integration.SalesOrder{
		ID:                 m.ID,
		Marketplace:        m.Marketplace,
		CustomerID:         m.CustomerID,
		CustomerName:       m.CustomerName,
		MarketplaceOrderID: m.MarketplaceOrderID,
		MarketplaceLineID:  m.MarketplaceLineID,
		MarketplaceStatus:  m.MarketplaceStatus,
		StatusUpdatedAt:    m.StatusUpdatedAt,
		NotifiedAt:         m.NotifiedAt,
		Site:               m.Site,
		SellerID:           m.SellerID,
		BuyerID:            m.BuyerID,
		TransactionDate:    m.TransactionDate,
		DeliveryDate:       m.DeliveryDate,
		PaymentStatus:      m.PaymentStatus,
		ShippingAddress:    m.ShippingAddress,
		Notes:              m.Notes,
		Lines:              make([]integration.OrderLine, 0, len(m.Lines)),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	for _, l := range m.Lines {
		order.Lines = append(order.Lines, l.ToDomain())
	}
	return order
}

// SalesOrderModelFromDomain creates a model with lines from a domain order
func SalesOrderModelFromDomain(o *integration.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		BaseModel: BaseModel{
			ID:        ensureID(o.ID),
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		},
		Marketplace:        o.Marketplace,
		MarketplaceOrderID: o.MarketplaceOrderID,
		MarketplaceLineID:  o.MarketplaceLineID,
		MarketplaceStatus:  o.MarketplaceStatus,
		StatusUpdatedAt:    o.StatusUpdatedAt,
		NotifiedAt:         o.NotifiedAt,
		CustomerID:         o.CustomerID,
		CustomerName:       o.CustomerName,
		Site:               o.Site,
		SellerID:           o.SellerID,
		BuyerID:            o.BuyerID,
		TransactionDate:    o.TransactionDate,
		DeliveryDate:       o.DeliveryDate,
		PaymentStatus:      o.PaymentStatus,
		ShippingAddress:    o.ShippingAddress,
		Notes:              o.Notes,
	}
	for i, l := range o.Lines {
		m.Lines = append(m.Lines, SalesOrderLineModel{
			ID:                ensureID(l.ID),
			SalesOrderID:      m.ID,
			LineNo:            i + 1,
			ItemCode:          l.ItemCode,
			ItemName:          l.ItemName,
			MarketplaceLineID: l.MarketplaceLineID,
			Quantity:          l.Quantity,
			Rate:              l.Rate,
			Amount:            l.Amount,
		})
	}
	return m
}

// SalesOrderLineModel is one item line of a sales order
type SalesOrderLineModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesOrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo            int             `gorm:"not null"`
	ItemCode          string          `gorm:"type:varchar(140);not null"`
	ItemName          string          `gorm:"type:varchar(255)"`
	MarketplaceLineID string          `gorm:"type:varchar(100)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Rate              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the model to a domain order line
func (m *SalesOrderLineModel) ToDomain() integration.OrderLine {
	return integration.OrderLine{
		ID:                m.ID,
		ItemCode:          m.ItemCode,
		ItemName:          m.ItemName,
		MarketplaceLineID: m.MarketplaceLineID,
		Quantity:          m.Quantity,
		Rate:              m.Rate,
		Amount:            m.Amount,
	}
}

// StockLevelModel is the on-hand quantity of an item per warehouse
type StockLevelModel struct {
	ItemCode  string          `gorm:"type:varchar(140);primaryKey"`
	Warehouse string          `gorm:"type:varchar(140);primaryKey"`
	ActualQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// MaterialRequestModel is a purchase request raised for an order shortfall
type MaterialRequestModel struct {
	ID           uuid.UUID                       `gorm:"type:uuid;primaryKey"`
	Type         integration.MaterialRequestType `gorm:"type:varchar(30);not null"`
	ItemCode     string                          `gorm:"type:varchar(140);not null"`
	Quantity     decimal.Decimal                 `gorm:"type:decimal(18,4);not null"`
	Warehouse    string                          `gorm:"type:varchar(140)"`
	SalesOrderID uuid.UUID                       `gorm:"type:uuid;index"`
	ScheduleDate time.Time                       `gorm:"not null"`
	CreatedAt    time.Time                       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MaterialRequestModel) TableName() string {
	return "material_requests"
}

// MaterialRequestModelFromDomain creates a model from a domain material request
func MaterialRequestModelFromDomain(r *integration.MaterialRequest) *MaterialRequestModel {
	return &MaterialRequestModel{
		ID:           ensureID(r.ID),
		Type:         r.Type,
		ItemCode:     r.ItemCode,
		Quantity:     r.Quantity,
		Warehouse:    r.Warehouse,
		SalesOrderID: r.SalesOrderID,
		ScheduleDate: r.ScheduleDate,
		CreatedAt:    r.CreatedAt,
	}
}
