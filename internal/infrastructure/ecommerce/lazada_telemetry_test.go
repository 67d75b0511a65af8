package ecommerce

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/telemetry"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestLazadaClient_SpanRecordsMarketplaceError(t *testing.T) {
	sr := recordSpans(t)
	server := createMockLazadaServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": "IllegalAccessToken", "message": "The specified access token is invalid"})
	})
	defer server.Close()

	_, err := createTestLazadaClient(t, server.URL).GetCategoryTree(context.Background(), testLazadaCredential())
	require.True(t, integration.IsMarketplaceError(err))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "lazada/category/tree/get", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)

	var code string
	for _, kv := range span.Attributes() {
		if kv.Key == "lazada.error_code" {
			code = kv.Value.AsString()
		}
	}
	assert.Equal(t, "IllegalAccessToken", code)
}

func TestLazadaClient_SpanOKOnSuccess(t *testing.T) {
	sr := recordSpans(t)
	server := createMockLazadaServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": "0", "data": []any{}})
	})
	defer server.Close()

	_, err := createTestLazadaClient(t, server.URL).GetCategoryTree(context.Background(), testLazadaCredential())
	require.NoError(t, err)

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, codes.Ok, sr.Ended()[0].Status().Code)
}

func TestLazadaClient_RecordsCallMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)
	metrics, err := telemetry.NewCallMetrics(provider.Meter("test"))
	require.NoError(t, err)

	fail := false
	server := createMockLazadaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			writeJSON(w, map[string]any{"code": "ApiCallLimit", "message": "too many calls"})
			return
		}
		writeJSON(w, map[string]any{"code": "0", "data": []any{}})
	})
	defer server.Close()

	client := createTestLazadaClient(t, server.URL).WithMetrics(metrics)
	_, err = client.GetCategoryTree(ctx, testLazadaCredential())
	require.NoError(t, err)
	fail = true
	_, err = client.GetCategoryTree(ctx, testLazadaCredential())
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byCode := map[string]int64{}
	var latencyPoints uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "marketplace_api_calls_total" {
					continue
				}
				for _, dp := range data.DataPoints {
					api, _ := dp.Attributes.Value(telemetry.AttrAPI)
					assert.Equal(t, "/category/tree/get", api.AsString())
					code, _ := dp.Attributes.Value(telemetry.AttrErrorCode)
					byCode[code.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if m.Name != "marketplace_api_call_duration_seconds" {
					continue
				}
				for _, dp := range data.DataPoints {
					latencyPoints += dp.Count
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{"": 1, "ApiCallLimit": 1}, byCode)
	assert.Equal(t, uint64(2), latencyPoints)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "E0", errorCode(&integration.MarketplaceError{Code: "E0"}))
	assert.Equal(t, "invalid_response", errorCode(integration.ErrPlatformInvalidResponse))
	assert.Equal(t, "request_failed", errorCode(integration.ErrPlatformRequestFailed))
}
