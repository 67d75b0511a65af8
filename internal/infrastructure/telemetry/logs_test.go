package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, "erp-marketplace"))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_Bridge(t *testing.T) {
	exp := &recordingExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp))),
		logger:   zap.NewNop(),
	}
	defer lp.Shutdown(context.Background())

	core, local := observer.New(zapcore.InfoLevel)
	log := lp.Bridge(zap.New(core), "erp-marketplace")

	log.Debug("below the base level")
	log.Info("Order reconciled", zap.String("order_id", "LZ-1"))
	log.With(zap.String("shop", "Lazada")).Warn("Token refresh failed")

	assert.Equal(t, 2, local.Len())

	exp.mu.Lock()
	defer exp.mu.Unlock()
	require.Len(t, exp.records, 2)
	assert.Equal(t, "Order reconciled", exp.records[0].Body().AsString())
	assert.Equal(t, "Token refresh failed", exp.records[1].Body().AsString())
}
