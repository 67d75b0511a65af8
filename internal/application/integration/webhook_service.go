package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/cache"
	"github.com/erp/marketplace/internal/infrastructure/scheduler"
)

// ErrInvalidWebhookPayload is returned for bodies that are not JSON objects
var ErrInvalidWebhookPayload = errors.New("integration: invalid webhook payload")

const (
	webhookJobTimeout = 2 * time.Minute
	// deliveryTTL bounds how long a notification is remembered for redelivery checks
	deliveryTTL = 24 * time.Hour
)

// WebhookPayload is the push notification body
type WebhookPayload struct {
	MessageType integration.FlexString `json:"message_type"`
	SellerID    integration.FlexString `json:"seller_id"`
	Site        string                 `json:"site"`
	// Timestamp is when the notification was sent, in milliseconds
	Timestamp integration.FlexString `json:"timestamp"`
	Data      WebhookData            `json:"data"`
	Raw       json.RawMessage        `json:"-"`
}

// WebhookData is the order part of a notification
type WebhookData struct {
	TradeOrderID     integration.FlexString `json:"trade_order_id"`
	TradeOrderLineID integration.FlexString `json:"trade_order_line_id"`
	OrderStatus      string                 `json:"order_status"`
	// StatusUpdateTime is the status change time in seconds
	StatusUpdateTime integration.FlexString `json:"status_update_time"`
	BuyerID          integration.FlexString `json:"buyer_id"`
	SellerID         integration.FlexString `json:"seller_id"`
	Site             string                 `json:"site"`
}

// Notification converts the payload into a domain notification
func (p *WebhookPayload) Notification(now time.Time) integration.OrderNotification {
	seller := string(p.SellerID)
	if seller == "" {
		seller = string(p.Data.SellerID)
	}
	site := p.Site
	if site == "" {
		site = p.Data.Site
	}
	notified := unixTime(string(p.Timestamp))
	if notified.IsZero() {
		notified = now
	}
	return integration.OrderNotification{
		Marketplace:        integration.MarketplaceLazada,
		MarketplaceOrderID: string(p.Data.TradeOrderID),
		MarketplaceLineID:  string(p.Data.TradeOrderLineID),
		Status:             p.Data.OrderStatus,
		UpdatedAt:          unixTime(string(p.Data.StatusUpdateTime)),
		NotifiedAt:         notified,
		Site:               site,
		SellerID:           seller,
		BuyerID:            string(p.Data.BuyerID),
	}
}

// deliveryKey identifies one notification across redeliveries
func (p *WebhookPayload) deliveryKey() string {
	return strings.Join([]string{string(p.Data.TradeOrderID), strings.ToLower(p.Data.OrderStatus), string(p.Data.StatusUpdateTime)}, "|")
}

// unixTime parses seconds or milliseconds since the epoch
func unixTime(raw string) time.Time {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return time.Time{}
	}
	if v > 1e12 {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}

// OrderReconcilerPort applies order notifications
type OrderReconcilerPort interface {
	Reconcile(ctx context.Context, n integration.OrderNotification) (*ReconcileResult, error)
}

// WebhookService acknowledges push notifications immediately and reconciles
// them on the short job queue
type WebhookService struct {
	jobs       JobRunner
	reconciler OrderReconcilerPort
	deliveries cache.DeliveryStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewWebhookService creates a WebhookService. deliveries may be nil to
// disable redelivery detection.
func NewWebhookService(jobs JobRunner, reconciler OrderReconcilerPort, deliveries cache.DeliveryStore, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		jobs:       jobs,
		reconciler: reconciler,
		deliveries: deliveries,
		logger:     logger.Named("webhook_service"),
		now:        time.Now,
	}
}

// Accept validates the body and queues it. Nothing is written and no
// marketplace call is made before the caller is answered.
func (s *WebhookService) Accept(body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	payload := append([]byte(nil), body...)
	return s.jobs.Submit(&scheduler.Job{
		Name:    "process_webhook",
		Queue:   scheduler.QueueShort,
		Timeout: webhookJobTimeout,
		Args:    map[string]any{"bytes": len(payload)},
		Run: func(ctx context.Context) error {
			_, err := s.Process(ctx, payload)
			return err
		},
	})
}

// Process handles a queued notification. Redelivered notifications return
// nil, nil.
func (s *WebhookService) Process(ctx context.Context, body []byte) (*ReconcileResult, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	if mt, ok := payload.MessageType.Int(); !ok || mt != integration.OrderMessageType {
		s.logger.Warn("Unsupported webhook message", zap.String("message_type", payload.MessageType.String()))
		return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedMessageType, payload.MessageType)
	}
	if payload.Data.TradeOrderID == "" {
		return nil, integration.ErrMissingMarketplaceOrderID
	}

	key := payload.deliveryKey()
	marked := false
	if s.deliveries != nil {
		first, err := s.deliveries.MarkDelivered(ctx, key, deliveryTTL)
		switch {
		case err != nil:
			s.logger.Warn("Delivery check failed, processing anyway", zap.Error(err))
		case !first:
			s.logger.Info("Dropping redelivered notification",
				zap.String("order_id", string(payload.Data.TradeOrderID)),
				zap.String("status", payload.Data.OrderStatus),
			)
			return nil, nil
		default:
			marked = true
		}
	}

	n := payload.Notification(s.now())
	result, err := s.reconciler.Reconcile(ctx, n)
	if err == nil {
		return result, nil
	}
	if settled(err) {
		s.logger.Info("Order notification acknowledged without action",
			zap.String("order_id", n.MarketplaceOrderID),
			zap.String("status", n.Status),
			zap.Error(err),
		)
		return nil, err
	}
	// the marketplace redelivers failed pushes; they must not be dropped as replays
	if marked {
		if ferr := s.deliveries.Forget(ctx, key); ferr != nil {
			s.logger.Warn("Could not release delivery key", zap.String("key", key), zap.Error(ferr))
		}
	}
	return nil, err
}

// settled reports errors that a redelivery of the same notification would hit again.
func settled(err error) bool {
	return errors.Is(err, integration.ErrTransitionNotImplemented) ||
		errors.Is(err, integration.ErrUnknownOrderStatus) ||
		errors.Is(err, integration.ErrInvalidTransition)
}
