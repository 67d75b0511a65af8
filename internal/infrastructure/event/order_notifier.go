package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/domain/shared"
)

// OrderNotifier announces newly created marketplace orders in the service log,
// which is where operators watch for new sales.
type OrderNotifier struct {
	logger *zap.Logger
}

// NewOrderNotifier creates an OrderNotifier
func NewOrderNotifier(logger *zap.Logger) *OrderNotifier {
	return &OrderNotifier{logger: logger.Named("order_notifier")}
}

// Handle logs the order; events of other types are ignored
func (n *OrderNotifier) Handle(_ context.Context, e shared.DomainEvent) error {
	created, ok := e.(*integration.OrderCreatedEvent)
	if !ok {
		return nil
	}
	n.logger.Info("New marketplace order",
		zap.String("marketplace", string(created.Marketplace)),
		zap.String("order_id", created.MarketplaceOrderID),
		zap.String("status", string(created.OrderStatus)),
		zap.String("sales_order_id", created.AggregateID().String()),
		zap.Time("update_time", created.UpdateTime),
	)
	return nil
}

// EventTypes subscribes to order creation only
func (n *OrderNotifier) EventTypes() []string {
	return []string{integration.EventTypeOrderCreated}
}
