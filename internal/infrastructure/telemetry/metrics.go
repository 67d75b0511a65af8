package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = 60 * time.Second

// MeterProvider owns the metrics pipeline. With telemetry off it holds
// nothing and Meter returns the global no-op meter.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider exports to the collector every cfg.MetricsInterval and
// installs the provider globally.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return mp, nil
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metrics exporter: %w", err)
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("build metrics resource: %w", err)
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("Metrics enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Meter returns a named meter, falling back to the global provider when metrics are off.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

func (mp *MeterProvider) IsEnabled() bool { return mp.provider != nil }

// Shutdown exports what is buffered, giving the exporter at most ten seconds.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := mp.provider.Shutdown(ctx); err != nil {
		mp.logger.Error("Meter shutdown failed", zap.Error(err))
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}

// Duration buckets in seconds. Marketplace calls run from tens of
// milliseconds to the client timeout; jobs can take minutes.
var (
	CallDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	JobDurationBuckets  = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}
)

// Metric attribute keys
var (
	AttrMarketplace = attribute.Key("marketplace")
	AttrAPI         = attribute.Key("api")
	AttrOutcome     = attribute.Key("outcome")
	AttrErrorCode   = attribute.Key("error_code")
	AttrJobName     = attribute.Key("job")
	AttrQueue       = attribute.Key("queue")
)

// Outcome labels
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// CallMetrics counts marketplace API calls and their latency. A nil
// *CallMetrics records nothing.
type CallMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

func NewCallMetrics(meter metric.Meter) (*CallMetrics, error) {
	calls, err := meter.Int64Counter("marketplace_api_calls_total",
		metric.WithDescription("Marketplace API calls by endpoint, outcome and error code"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter marketplace_api_calls_total: %w", err)
	}
	duration, err := meter.Float64Histogram("marketplace_api_call_duration_seconds",
		metric.WithDescription("Marketplace API round trip time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(CallDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram marketplace_api_call_duration_seconds: %w", err)
	}
	return &CallMetrics{calls: calls, duration: duration}, nil
}

// Record counts one call. code is the marketplace error code, or empty on success.
func (m *CallMetrics) Record(ctx context.Context, marketplace, api, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if code != "" {
		outcome = OutcomeError
	}
	attrs := metric.WithAttributes(
		AttrMarketplace.String(marketplace),
		AttrAPI.String(api),
		AttrOutcome.String(outcome),
		AttrErrorCode.String(code),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		AttrMarketplace.String(marketplace),
		AttrAPI.String(api),
		AttrOutcome.String(outcome),
	))
}

// JobMetrics counts finished background jobs. A nil *JobMetrics records nothing.
type JobMetrics struct {
	jobs     metric.Int64Counter
	duration metric.Float64Histogram
}

func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	jobs, err := meter.Int64Counter("marketplace_jobs_total",
		metric.WithDescription("Background jobs by name, queue and outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter marketplace_jobs_total: %w", err)
	}
	duration, err := meter.Float64Histogram("marketplace_job_duration_seconds",
		metric.WithDescription("Background job run time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(JobDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram marketplace_job_duration_seconds: %w", err)
	}
	return &JobMetrics{jobs: jobs, duration: duration}, nil
}

func (m *JobMetrics) Record(ctx context.Context, name, queue, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrJobName.String(name),
		AttrQueue.String(queue),
		AttrOutcome.String(outcome),
	)
	m.jobs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
