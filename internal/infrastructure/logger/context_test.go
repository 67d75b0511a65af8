package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewNop()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestContextFields(t *testing.T) {
	base := zap.NewNop()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, base, "req-1")
	ctx, _ = WithShop(ctx, base, "Lazada")
	ctx, _ = WithJobID(ctx, base, "job-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "Lazada", GetShop(ctx))
	assert.Equal(t, "job-9", GetJobID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestL_UsesBoundLoggerWithoutDuplicates(t *testing.T) {
	base, buf := bufferLogger()
	ctx, l := WithShop(context.Background(), base, "Lazada")
	ctx, _ = WithRequestID(ctx, l, "req-7")

	L(ctx).Info("order ingested", zap.String("order_id", "1001"))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"shop":"Lazada"`))
	assert.Equal(t, 1, strings.Count(out, `"request_id":"req-7"`))
	assert.Contains(t, out, `"order_id":"1001"`)
}

func TestWithLogger_EnrichesFromContext(t *testing.T) {
	base, buf := bufferLogger()
	ctx := context.WithValue(context.Background(), shopKey, "Lazada")
	ctx = context.WithValue(ctx, jobIDKey, "job-1")

	WithLogger(ctx, base).With(zap.String("queue", "short")).Warn("retrying")

	out := buf.String()
	assert.Contains(t, out, `"shop":"Lazada"`)
	assert.Contains(t, out, `"job_id":"job-1"`)
	assert.Contains(t, out, `"queue":"short"`)
	assert.NotContains(t, out, `"request_id"`)
}

func TestContextLogger_TraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	base, buf := bufferLogger()
	WithLogger(ctx, base).Info("traced")

	traceID := GetTraceID(ctx)
	require.Len(t, traceID, 32)
	assert.Contains(t, buf.String(), traceID)
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() {
		cl.Info("test")
		cl.With(zap.Int("n", 1)).Debug("child")
		_ = cl.Zap()
	})
}
