package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

type scriptedReconciler struct {
	results map[string]error
	created map[string]bool
	shops   []string
}

func (r *scriptedReconciler) ReconcileShop(_ context.Context, shop string, n integration.OrderNotification) (*ReconcileResult, error) {
	r.shops = append(r.shops, shop)
	if err := r.results[n.MarketplaceOrderID]; err != nil {
		return nil, err
	}
	return &ReconcileResult{Created: r.created[n.MarketplaceOrderID]}, nil
}

func TestOrderPoller_PollRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tokens := new(MockCredentialSource)
	gw := new(MockGateway)
	tokens.On("ActiveCredentials", ctx, "Lazada").Return(testCredential(nil), nil)
	gw.On("GetOrders", ctx, mock.Anything, now.Add(-6*time.Hour)).Return([]integration.RemoteOrder{
		{OrderID: "1", Statuses: []string{"pending"}},
		{OrderID: "2", Statuses: []string{"unpaid"}},
		{OrderID: "3", Statuses: []string{"delivered"}},
		{OrderID: "4", Statuses: []string{"pending"}},
	}, nil)
	rec := &scriptedReconciler{
		created: map[string]bool{"1": true},
		results: map[string]error{
			"3": integration.ErrTransitionNotImplemented,
			"4": errors.New("db down"),
		},
	}

	poller := NewOrderPoller(new(MockCredentialRepository), tokens, gw, rec, 6*time.Hour, zap.NewNop())
	poller.now = func() time.Time { return now }

	summary, err := poller.PollRecent(ctx, "Lazada")

	require.NoError(t, err)
	assert.Equal(t, 4, summary.Fetched)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"Lazada", "Lazada", "Lazada", "Lazada"}, rec.shops)
}

func TestOrderPoller_PollAll(t *testing.T) {
	ctx := context.Background()

	creds := new(MockCredentialRepository)
	tokens := new(MockCredentialSource)
	gw := new(MockGateway)
	creds.On("FindAll", ctx).Return([]integration.Credential{
		{ShopName: "vn", Marketplace: integration.MarketplaceLazada},
		{ShopName: "th", Marketplace: integration.MarketplaceLazada},
		{ShopName: "other", Marketplace: integration.MarketplaceCode("Shopee")},
	}, nil)
	tokens.On("ActiveCredentials", ctx, "vn").Return(testCredential(nil), nil)
	tokens.On("ActiveCredentials", ctx, "th").Return(nil, integration.ErrTokenRefreshFailed)
	gw.On("GetOrders", ctx, mock.Anything, mock.Anything).Return([]integration.RemoteOrder{}, nil)

	err := NewOrderPoller(creds, tokens, gw, &scriptedReconciler{}, 0, zap.NewNop()).PollAll(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrTokenRefreshFailed)
	assert.Contains(t, err.Error(), "shop th")
	tokens.AssertNotCalled(t, "ActiveCredentials", ctx, "other")
	gw.AssertNumberOfCalls(t, "GetOrders", 1)
}
