package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/cache"
)

type recordingReconciler struct {
	seen []integration.OrderNotification
	err  error
}

func (r *recordingReconciler) Reconcile(_ context.Context, n integration.OrderNotification) (*ReconcileResult, error) {
	r.seen = append(r.seen, n)
	if r.err != nil {
		return nil, r.err
	}
	return &ReconcileResult{MarketplaceOrderID: n.MarketplaceOrderID}, nil
}

type failingDeliveries struct{}

func (failingDeliveries) MarkDelivered(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis unavailable")
}

func (failingDeliveries) Forget(context.Context, string) error {
	return errors.New("redis unavailable")
}

const pendingWebhook = `{
	"message_type": 0,
	"seller_id": "1234567",
	"site": "lazada_vn",
	"timestamp": 1709287201000,
	"data": {
		"trade_order_id": 260422900000001,
		"trade_order_line_id": "260422900000002",
		"order_status": "pending",
		"status_update_time": 1709287200,
		"buyer_id": 998877
	}
}`

func TestWebhookService_Accept(t *testing.T) {
	t.Run("queues valid JSON without processing", func(t *testing.T) {
		jobs := &queuedJobs{}
		rec := &recordingReconciler{}
		svc := NewWebhookService(jobs, rec, nil, zap.NewNop())

		require.NoError(t, svc.Accept([]byte(pendingWebhook)))

		require.Len(t, jobs.submitted, 1)
		assert.Equal(t, "process_webhook", jobs.submitted[0].Name)
		assert.Empty(t, rec.seen)

		require.NoError(t, jobs.submitted[0].Run(context.Background()))
		assert.Len(t, rec.seen, 1)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		jobs := &queuedJobs{}
		svc := NewWebhookService(jobs, &recordingReconciler{}, nil, zap.NewNop())

		err := svc.Accept([]byte(`{"message_type": 0,`))

		assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
		assert.Empty(t, jobs.submitted)
	})

	t.Run("queue rejection is returned", func(t *testing.T) {
		jobs := &inlineJobs{submitErr: errors.New("queue full")}
		svc := NewWebhookService(jobs, &recordingReconciler{}, nil, zap.NewNop())

		assert.EqualError(t, svc.Accept([]byte(`{}`)), "queue full")
	})
}

func TestWebhookService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("maps the payload to a notification", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, cache.NewInMemoryDeliveryStore(), zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))

		require.NoError(t, err)
		require.Len(t, rec.seen, 1)
		n := rec.seen[0]
		assert.Equal(t, integration.MarketplaceLazada, n.Marketplace)
		assert.Equal(t, "260422900000001", n.MarketplaceOrderID)
		assert.Equal(t, "260422900000002", n.MarketplaceLineID)
		assert.Equal(t, "pending", n.Status)
		assert.Equal(t, time.Unix(1709287200, 0), n.UpdatedAt)
		assert.Equal(t, time.UnixMilli(1709287201000), n.NotifiedAt)
		assert.Equal(t, "1234567", n.SellerID)
		assert.Equal(t, "998877", n.BuyerID)
		assert.Equal(t, "lazada_vn", n.Site)
	})

	t.Run("redelivery is dropped", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, cache.NewInMemoryDeliveryStore(), zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))
		require.NoError(t, err)
		result, err := svc.Process(ctx, []byte(pendingWebhook))
		require.NoError(t, err)

		assert.Nil(t, result)
		assert.Len(t, rec.seen, 1)
	})

	t.Run("delivery store failure does not block processing", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, failingDeliveries{}, zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))

		require.NoError(t, err)
		assert.Len(t, rec.seen, 1)
	})

	t.Run("other message types are not reconciled", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, nil, zap.NewNop())

		_, err := svc.Process(ctx, []byte(`{"message_type": 3, "data": {"trade_order_id": "1"}}`))

		assert.ErrorIs(t, err, integration.ErrUnsupportedMessageType)
		assert.Empty(t, rec.seen)
	})

	t.Run("message type may arrive as a string", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, nil, zap.NewNop())

		_, err := svc.Process(ctx, []byte(`{"message_type": "0", "data": {"trade_order_id": "1", "order_status": "pending"}}`))

		require.NoError(t, err)
		require.Len(t, rec.seen, 1)
		assert.Equal(t, "1", rec.seen[0].MarketplaceOrderID)

		_, err = svc.Process(ctx, []byte(`{"message_type": "order", "data": {"trade_order_id": "1"}}`))
		assert.ErrorIs(t, err, integration.ErrUnsupportedMessageType)
	})

	t.Run("order id is required", func(t *testing.T) {
		rec := &recordingReconciler{}
		svc := NewWebhookService(&queuedJobs{}, rec, nil, zap.NewNop())

		_, err := svc.Process(ctx, []byte(`{"message_type": 0, "data": {"order_status": "pending"}}`))

		assert.ErrorIs(t, err, integration.ErrMissingMarketplaceOrderID)
		assert.Empty(t, rec.seen)
	})

	t.Run("reconciler errors surface", func(t *testing.T) {
		rec := &recordingReconciler{err: integration.ErrTransitionNotImplemented}
		svc := NewWebhookService(&queuedJobs{}, rec, nil, zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))

		assert.ErrorIs(t, err, integration.ErrTransitionNotImplemented)
	})

	t.Run("redelivery after a failed attempt is processed", func(t *testing.T) {
		rec := &recordingReconciler{err: errors.New("connection reset")}
		svc := NewWebhookService(&queuedJobs{}, rec, cache.NewInMemoryDeliveryStore(), zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))
		require.Error(t, err)

		rec.err = nil
		result, err := svc.Process(ctx, []byte(pendingWebhook))

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "260422900000001", result.MarketplaceOrderID)
		assert.Len(t, rec.seen, 2)

		result, err = svc.Process(ctx, []byte(pendingWebhook))
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Len(t, rec.seen, 2)
	})

	t.Run("settled errors keep the delivery marked", func(t *testing.T) {
		rec := &recordingReconciler{err: integration.ErrTransitionNotImplemented}
		svc := NewWebhookService(&queuedJobs{}, rec, cache.NewInMemoryDeliveryStore(), zap.NewNop())

		_, err := svc.Process(ctx, []byte(pendingWebhook))
		require.ErrorIs(t, err, integration.ErrTransitionNotImplemented)
		result, err := svc.Process(ctx, []byte(pendingWebhook))

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Len(t, rec.seen, 1)
	})
}

func TestUnixTime(t *testing.T) {
	assert.True(t, unixTime("").IsZero())
	assert.True(t, unixTime("abc").IsZero())
	assert.Equal(t, time.Unix(1700000000, 0), unixTime("1700000000"))
	assert.Equal(t, time.UnixMilli(1700000000123), unixTime("1700000000123"))
}
