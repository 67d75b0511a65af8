package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	integrationapp "github.com/erp/marketplace/internal/application/integration"
	"github.com/erp/marketplace/internal/infrastructure/cache"
	"github.com/erp/marketplace/internal/infrastructure/config"
	"github.com/erp/marketplace/internal/infrastructure/ecommerce"
	"github.com/erp/marketplace/internal/infrastructure/event"
	"github.com/erp/marketplace/internal/infrastructure/persistence"
	"github.com/erp/marketplace/internal/infrastructure/scheduler"
	"github.com/erp/marketplace/internal/infrastructure/storage"
	"github.com/erp/marketplace/internal/infrastructure/telemetry"
	"github.com/erp/marketplace/internal/interfaces/http/handler"
)

const (
	redisKeyPrefix = "marketplace:"
	imageURITTL    = 30 * 24 * time.Hour
)

// app holds the long-lived components main starts and stops
type app struct {
	queue    *scheduler.JobQueue
	cron     *scheduler.MarketplaceCron
	bus      *event.InMemoryEventBus
	webhooks *handler.WebhookHandler
	operator *handler.MarketplaceHandler
	system   *handler.SystemHandler
	closers  []func() error
	log      *zap.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Close failed", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *persistence.Database, meters *telemetry.MeterProvider, log *zap.Logger) (*app, error) {
	a := &app{log: log}

	meter := meters.Meter(telemetry.TracerName)
	callMetrics, err := telemetry.NewCallMetrics(meter)
	if err != nil {
		return nil, err
	}
	jobMetrics, err := telemetry.NewJobMetrics(meter)
	if err != nil {
		return nil, err
	}

	credentials := persistence.NewGormCredentialRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	attributes := persistence.NewGormAttributeRepository(db.DB)
	items := persistence.NewGormItemRepository(db.DB)
	mappings := persistence.NewGormProductMappingRepository(db.DB)
	imageCacheRepo := persistence.NewGormImageCacheRepository(db.DB)
	orders := persistence.NewGormSalesOrderRepository(db.DB)
	customers := persistence.NewGormCustomerRepository(db.DB)
	inventory := persistence.NewGormInventoryRepository(db.DB)

	// Redis is optional: without it the URI cache is per-process and webhook
	// redelivery is only detected within one instance
	var redisClient *redis.Client
	uriCacheOpts := []cache.ImageURICacheOption{cache.WithLogger(log)}
	var deliveries cache.DeliveryStore = cache.NewInMemoryDeliveryStore()
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		redisClient = client
		a.closers = append(a.closers, client.Close)
		uriCacheOpts = append(uriCacheOpts, cache.WithSharedStore(cache.NewRedisURIStore(client, redisKeyPrefix, imageURITTL)))
		deliveries = cache.NewRedisDeliveryStore(client, redisKeyPrefix)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	uriCache := cache.NewImageURICache(imageCacheRepo, uriCacheOpts...)
	if err := uriCache.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}

	var objects storage.Fetcher
	if cfg.Storage.S3Enabled {
		store, err := storage.NewS3ImageStore(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		objects = store
	}
	images := storage.NewImageSource(objects,
		storage.NewHTTPImageFetcher(cfg.Storage.DownloadTimeout, cfg.Storage.MaxImageBytes),
		cfg.Storage.FilesPrefix,
	)

	lazadaCfg := ecommerce.NewLazadaConfig()
	lazadaCfg.APIBaseURL = cfg.Lazada.APIBaseURL
	lazadaCfg.AuthBaseURL = cfg.Lazada.AuthBaseURL
	lazadaCfg.LanguageCode = cfg.Lazada.LanguageCode
	lazadaCfg.TimeoutSeconds = cfg.Lazada.TimeoutSeconds
	lazadaCfg.RequestsPerSecond = cfg.Lazada.RequestsPerSecond
	lazadaCfg.Burst = cfg.Lazada.Burst
	gateway, err := ecommerce.NewLazadaClient(lazadaCfg, log)
	if err != nil {
		return nil, fmt.Errorf("lazada client: %w", err)
	}
	gateway.WithMetrics(callMetrics)

	a.queue = scheduler.NewJobQueue(cfg.Queue, log).WithMetrics(jobMetrics)
	a.bus = event.NewInMemoryEventBus(log)
	a.bus.Subscribe(event.NewOrderNotifier(log))

	tokens := integrationapp.NewTokenManager(credentials, gateway, log)
	categoryService := integrationapp.NewCategoryService(tokens, gateway, categories, categories, items,
		cfg.Product.FallbackCategoryID, log)
	attributeService := integrationapp.NewAttributeService(tokens, gateway, attributes, log)
	pipeline := integrationapp.NewImagePipeline(images, uriCache, gateway, log)
	builder := integrationapp.NewPayloadBuilder(tokens, categoryService, attributeService, pipeline,
		inventory, mappings, cfg.Product, cfg.Order.DefaultWarehouse, log)
	publisher := integrationapp.NewPublishService(tokens, gateway, items, mappings, builder, a.queue, log)

	reconciler := integrationapp.NewOrderReconciler(tokens, gateway, orders, customers, inventory, inventory,
		a.bus, cfg.Lazada.DefaultShop, cfg.Order.DefaultWarehouse, log)
	webhooks := integrationapp.NewWebhookService(a.queue, reconciler, deliveries, log)
	poller := integrationapp.NewOrderPoller(credentials, tokens, gateway, reconciler, cfg.Order.PollLookback, log)

	if cfg.Scheduler.Enabled {
		a.cron, err = scheduler.NewMarketplaceCron(cfg.Scheduler, a.queue, tokens, poller, log)
		if err != nil {
			return nil, fmt.Errorf("cron: %w", err)
		}
	}

	a.webhooks = handler.NewWebhookHandler(webhooks, cfg.HTTP.WebhookMaxBody, log)
	a.operator = handler.NewMarketplaceHandler(categoryService, attributeService, publisher, tokens, poller,
		handler.MarketplaceHandlerConfig{
			DefaultShop:       cfg.Lazada.DefaultShop,
			RequestsPerSecond: cfg.HTTP.OperatorRequestsPerSecond,
			Burst:             cfg.HTTP.OperatorBurst,
		}, log)

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	a.system = handler.NewSystemHandler(checks)

	return a, nil
}
