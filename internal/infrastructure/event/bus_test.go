package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/domain/shared"
)

type recordingHandler struct {
	types []string
	err   error
	mu    sync.Mutex
	seen  []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func newStartedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func sampleOrderEvent() *integration.OrderCreatedEvent {
	return integration.NewOrderCreatedEvent(&integration.SalesOrder{
		ID:                 uuid.New(),
		Marketplace:        integration.MarketplaceLazada,
		MarketplaceOrderID: "ORD-1",
		MarketplaceStatus:  integration.OrderStatusPending,
	})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := newStartedBus(t)

	orders := &recordingHandler{types: []string{integration.EventTypeOrderCreated}}
	other := &recordingHandler{types: []string{"item_published"}}
	all := &recordingHandler{}
	bus.Subscribe(orders)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))

	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 0, other.count())
	assert.Equal(t, 1, all.count())
	assert.Equal(t, int64(1), bus.Published())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := newStartedBus(t)
	h := &recordingHandler{types: []string{"ignored"}}
	bus.Subscribe(h, integration.EventTypeOrderCreated)

	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := newStartedBus(t)

	failing := &recordingHandler{err: errors.New("boom")}
	panicking := &HandlerFunc{Fn: func(context.Context, shared.DomainEvent) error { panic("bad") }}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), sampleOrderEvent())
	require.NoError(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := newStartedBus(t)
	h := &recordingHandler{types: []string{integration.EventTypeOrderCreated}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))
	assert.Equal(t, 0, h.count())
}

func TestInMemoryEventBus_StoppedDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))
	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))
	assert.Equal(t, 1, h.count())
}

func TestOrderNotifier_LogsNewOrders(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := newStartedBus(t)
	bus.Subscribe(NewOrderNotifier(zap.New(core)))

	require.NoError(t, bus.Publish(context.Background(), sampleOrderEvent()))

	entries := logs.FilterMessage("New marketplace order").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ORD-1", fields["order_id"])
	assert.Equal(t, "Lazada", fields["marketplace"])
}
