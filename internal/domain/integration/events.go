package integration

import (
	"time"

	"github.com/erp/marketplace/internal/domain/shared"
)

const (
	// EventTypeOrderCreated is published when a marketplace order is created locally
	EventTypeOrderCreated = "new_order"

	// AggregateTypeSalesOrder is the aggregate type of order events
	AggregateTypeSalesOrder = "SalesOrder"
)

// OrderCreatedEvent announces a sales order created from a marketplace order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	Marketplace        MarketplaceCode `json:"marketplace"`
	MarketplaceOrderID string          `json:"order_id"`
	OrderStatus        OrderStatus     `json:"order_status"`
	UpdateTime         time.Time       `json:"update_time"`
}

// NewOrderCreatedEvent builds the event for a freshly created order
func NewOrderCreatedEvent(order *SalesOrder) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeSalesOrder, order.ID),
		Marketplace:        order.Marketplace,
		MarketplaceOrderID: order.MarketplaceOrderID,
		OrderStatus:        order.MarketplaceStatus,
		UpdateTime:         order.StatusUpdatedAt,
	}
}
