package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

// PollSummary counts what a poll of one shop did
type PollSummary struct {
	Shop    string `json:"shop"`
	Fetched int    `json:"fetched"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// ShopReconciler applies notifications on behalf of a specific shop
type ShopReconciler interface {
	ReconcileShop(ctx context.Context, shop string, n integration.OrderNotification) (*ReconcileResult, error)
}

// OrderPoller catches orders whose push notification was lost by listing
// recently updated orders and feeding them through the reconciler
type OrderPoller struct {
	credentials integration.CredentialRepository
	tokens      CredentialSource
	gateway     integration.MarketplaceGateway
	reconciler  ShopReconciler
	lookback    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderPoller creates an OrderPoller
func NewOrderPoller(
	credentials integration.CredentialRepository,
	tokens CredentialSource,
	gateway integration.MarketplaceGateway,
	reconciler ShopReconciler,
	lookback time.Duration,
	logger *zap.Logger,
) *OrderPoller {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &OrderPoller{
		credentials: credentials,
		tokens:      tokens,
		gateway:     gateway,
		reconciler:  reconciler,
		lookback:    lookback,
		logger:      logger.Named("order_poller"),
		now:         time.Now,
	}
}

// PollAll polls every shop of the gateway's marketplace
func (p *OrderPoller) PollAll(ctx context.Context) error {
	creds, err := p.credentials.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	var errs []error
	for _, cred := range creds {
		if cred.Marketplace != p.gateway.Marketplace() {
			continue
		}
		if _, err := p.PollRecent(ctx, cred.ShopName); err != nil {
			errs = append(errs, fmt.Errorf("shop %s: %w", cred.ShopName, err))
		}
	}
	return errors.Join(errs...)
}

// PollRecent reconciles the orders of shop updated within the lookback
// window. Individual order failures are counted, not returned.
func (p *OrderPoller) PollRecent(ctx context.Context, shop string) (*PollSummary, error) {
	log := p.logger.With(zap.String("shop", shop))
	summary := &PollSummary{Shop: shop}

	cred, err := p.tokens.ActiveCredentials(ctx, shop)
	if err != nil {
		return summary, err
	}
	now := p.now()
	orders, err := p.gateway.GetOrders(ctx, cred, now.Add(-p.lookback))
	if err != nil {
		log.Error("Failed to list recent orders", zap.Error(err))
		return summary, err
	}
	summary.Fetched = len(orders)

	for _, order := range orders {
		updated := order.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		n := integration.OrderNotification{
			Marketplace:        p.gateway.Marketplace(),
			MarketplaceOrderID: order.OrderID,
			Status:             order.Status(),
			UpdatedAt:          updated,
			NotifiedAt:         now,
		}
		result, err := p.reconciler.ReconcileShop(ctx, shop, n)
		switch {
		case err == nil && result != nil && result.Created:
			summary.Created++
		case err == nil:
			summary.Updated++
		case errors.Is(err, integration.ErrTransitionNotImplemented),
			errors.Is(err, integration.ErrInvalidTransition),
			errors.Is(err, integration.ErrUnknownOrderStatus):
			summary.Skipped++
		default:
			summary.Failed++
			log.Warn("Failed to reconcile polled order", zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}

	log.Info("Order poll completed",
		zap.Int("fetched", summary.Fetched),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
