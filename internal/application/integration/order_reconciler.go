package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/domain/shared"
)

// ReconcileResult describes what a notification did to the local order
type ReconcileResult struct {
	SalesOrderID       uuid.UUID               `json:"sales_order_id"`
	MarketplaceOrderID string                  `json:"marketplace_order_id"`
	Status             integration.OrderStatus `json:"status"`
	Created            bool                    `json:"created"`
	MaterialRequests   int                     `json:"material_requests"`
}

// statusHandler applies one marketplace status to the local order
type statusHandler func(ctx context.Context, shop string, n integration.OrderNotification, status integration.OrderStatus) (*ReconcileResult, error)

// OrderReconciler keeps local sales orders in step with marketplace order
// notifications. Every status has an explicit handler; states the ERP does
// not act on yet report ErrTransitionNotImplemented.
type OrderReconciler struct {
	credentials CredentialSource
	gateway     integration.MarketplaceGateway
	orders      integration.SalesOrderRepository
	customers   integration.CustomerRepository
	stock       integration.StockRepository
	requests    integration.MaterialRequestRepository
	events      shared.EventPublisher
	shop        string
	warehouse   string
	logger      *zap.Logger
	now         func() time.Time

	handlers map[integration.OrderStatus]statusHandler
}

// NewOrderReconciler creates an OrderReconciler. shop names the credential
// used for order lookups; warehouse is the stock location used when the shop
// has none.
func NewOrderReconciler(
	credentials CredentialSource,
	gateway integration.MarketplaceGateway,
	orders integration.SalesOrderRepository,
	customers integration.CustomerRepository,
	stock integration.StockRepository,
	requests integration.MaterialRequestRepository,
	events shared.EventPublisher,
	shop, warehouse string,
	logger *zap.Logger,
) *OrderReconciler {
	r := &OrderReconciler{
		credentials: credentials,
		gateway:     gateway,
		orders:      orders,
		customers:   customers,
		stock:       stock,
		requests:    requests,
		events:      events,
		shop:        shop,
		warehouse:   warehouse,
		logger:      logger.Named("order_reconciler"),
		now:         time.Now,
	}
	r.handlers = map[integration.OrderStatus]statusHandler{
		integration.OrderStatusUnpaid:      r.handleOpenOrder,
		integration.OrderStatusPending:     r.handleOpenOrder,
		integration.OrderStatusReadyToShip: r.notImplemented,
		integration.OrderStatusShipping:    r.notImplemented,
		integration.OrderStatusDelivered:   r.notImplemented,
		integration.OrderStatusCancelled:   r.notImplemented,
	}
	return r
}

// Reconcile applies a notification for the default shop. Unknown statuses
// change nothing.
func (r *OrderReconciler) Reconcile(ctx context.Context, n integration.OrderNotification) (*ReconcileResult, error) {
	return r.ReconcileShop(ctx, r.shop, n)
}

// ReconcileShop applies a notification using the credentials of shop
func (r *OrderReconciler) ReconcileShop(ctx context.Context, shop string, n integration.OrderNotification) (*ReconcileResult, error) {
	log := r.logger.With(zap.String("order_id", n.MarketplaceOrderID), zap.String("status", n.Status))

	if n.MarketplaceOrderID == "" {
		return nil, integration.ErrMissingMarketplaceOrderID
	}
	status, err := integration.ParseOrderStatus(n.Status)
	if err != nil {
		log.Error("Unknown order status", zap.Error(err))
		return nil, err
	}
	handler, ok := r.handlers[status]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrTransitionNotImplemented, status)
	}
	if n.Marketplace == "" {
		n.Marketplace = r.gateway.Marketplace()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = r.now()
	}
	return handler(ctx, shop, n, status)
}

func (r *OrderReconciler) notImplemented(_ context.Context, _ string, n integration.OrderNotification, status integration.OrderStatus) (*ReconcileResult, error) {
	r.logger.Info("Order status not handled",
		zap.String("order_id", n.MarketplaceOrderID),
		zap.String("status", string(status)),
	)
	return nil, fmt.Errorf("%w: %s", integration.ErrTransitionNotImplemented, status)
}

// handleOpenOrder covers Unpaid and Pending. A known order only moves state;
// an unseen one is created from the marketplace order details.
func (r *OrderReconciler) handleOpenOrder(ctx context.Context, shop string, n integration.OrderNotification, status integration.OrderStatus) (*ReconcileResult, error) {
	existing, err := r.orders.FindByMarketplaceOrderID(ctx, n.Marketplace, n.MarketplaceOrderID)
	switch {
	case err == nil:
		return r.updateStatus(ctx, existing, n, status)
	case !errors.Is(err, integration.ErrOrderNotFound):
		return nil, err
	}
	return r.createOrder(ctx, shop, n, status)
}

func (r *OrderReconciler) updateStatus(ctx context.Context, order *integration.SalesOrder, n integration.OrderNotification, status integration.OrderStatus) (*ReconcileResult, error) {
	if err := order.ApplyStatus(status, n.UpdatedAt); err != nil {
		r.logger.Warn("Ignoring out of order notification",
			zap.String("order_id", n.MarketplaceOrderID),
			zap.String("current", string(order.MarketplaceStatus)),
			zap.String("reported", string(status)),
		)
		return nil, err
	}
	if !n.NotifiedAt.IsZero() {
		notified := n.NotifiedAt
		order.NotifiedAt = &notified
	}
	if err := r.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order %s: %w", n.MarketplaceOrderID, err)
	}

	r.logger.Info("Order status updated",
		zap.String("order_id", n.MarketplaceOrderID),
		zap.String("status", string(status)),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	return &ReconcileResult{SalesOrderID: order.ID, MarketplaceOrderID: n.MarketplaceOrderID, Status: status}, nil
}

func (r *OrderReconciler) createOrder(ctx context.Context, shop string, n integration.OrderNotification, status integration.OrderStatus) (*ReconcileResult, error) {
	log := r.logger.With(zap.String("order_id", n.MarketplaceOrderID))

	cred, err := r.credentials.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}
	remote, err := r.gateway.GetOrder(ctx, cred, n.MarketplaceOrderID)
	if err != nil {
		log.Error("Failed to fetch order details", zap.Error(err))
		return nil, err
	}
	items, err := r.gateway.GetOrderItems(ctx, cred, n.MarketplaceOrderID)
	if err != nil {
		log.Error("Failed to fetch order items", zap.Error(err))
		return nil, err
	}

	customer, err := r.customerFor(ctx, remote, n.Marketplace)
	if err != nil {
		return nil, err
	}

	order, err := integration.NewSalesOrder(n.Marketplace, n.MarketplaceOrderID, status, n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.SetCustomer(customer)
	order.MarketplaceLineID = n.MarketplaceLineID
	order.Site = n.Site
	order.SellerID = n.SellerID
	order.BuyerID = n.BuyerID
	if !n.NotifiedAt.IsZero() {
		notified := n.NotifiedAt
		order.NotifiedAt = &notified
	}
	order.ShippingAddress = integration.ShippingAddressFrom(remote.AddressShip)
	for _, item := range items {
		order.AddLine(integration.NewOrderLine(item))
	}

	if err := r.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order %s: %w", n.MarketplaceOrderID, err)
	}
	log.Info("Sales order created",
		zap.String("sales_order_id", order.ID.String()),
		zap.String("status", string(status)),
		zap.String("customer", customer.Name),
		zap.Int("lines", len(order.Lines)),
	)

	result := &ReconcileResult{
		SalesOrderID:       order.ID,
		MarketplaceOrderID: n.MarketplaceOrderID,
		Status:             status,
		Created:            true,
	}
	if status == integration.OrderStatusPending {
		result.MaterialRequests = r.checkInventory(ctx, order, r.stockWarehouse(cred))
	}

	if err := r.events.Publish(ctx, integration.NewOrderCreatedEvent(order)); err != nil {
		log.Warn("Failed to publish order created event", zap.Error(err))
	}
	return result, nil
}

// customerFor matches the buyer to an existing customer by name or creates one
func (r *OrderReconciler) customerFor(ctx context.Context, remote *integration.RemoteOrder, marketplace integration.MarketplaceCode) (*integration.Customer, error) {
	name := remote.BuyerName
	if name == "" {
		name = integration.DefaultCustomerName
	}
	existing, err := r.customers.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	c := integration.NewCustomer(name, remote.BuyerEmail, remote.BuyerPhone, marketplace)
	if err := r.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// checkInventory raises a purchase request for every line the warehouse
// cannot cover. It never fails the order; problems are logged.
func (r *OrderReconciler) checkInventory(ctx context.Context, order *integration.SalesOrder, warehouse string) int {
	log := r.logger.With(zap.String("order_id", order.MarketplaceOrderID))
	if warehouse == "" {
		log.Error("No default warehouse configured, skipping inventory check")
		return 0
	}

	created := 0
	for _, line := range order.Lines {
		level, err := r.stock.GetStockLevel(ctx, line.ItemCode, warehouse)
		if err != nil {
			log.Error("Stock lookup failed", zap.String("item_code", line.ItemCode), zap.Error(err))
			continue
		}
		gap := level.Shortfall(line.Quantity)
		if !gap.IsPositive() {
			continue
		}

		req := integration.NewPurchaseRequest(order, line.ItemCode, warehouse, gap)
		if err := r.requests.Create(ctx, req); err != nil {
			log.Error("Failed to create material request", zap.String("item_code", line.ItemCode), zap.Error(err))
			continue
		}
		order.AddNote(integration.ShortfallNote(req))
		created++
		log.Info("Material request created for shortfall",
			zap.String("item_code", line.ItemCode),
			zap.String("shortfall", gap.String()),
		)
	}

	if created > 0 {
		if err := r.orders.Update(ctx, order); err != nil {
			log.Error("Failed to save inventory notes", zap.Error(err))
		}
	}
	return created
}

func (r *OrderReconciler) stockWarehouse(cred *integration.Credential) string {
	if cred.DefaultWarehouse != "" {
		return cred.DefaultWarehouse
	}
	return r.warehouse
}
