package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/infrastructure/config"
)

// TokenRefresher refreshes the access token of every stored shop
type TokenRefresher interface {
	RefreshAll(ctx context.Context) error
}

// OrderPoller reconciles recently updated orders of every shop
type OrderPoller interface {
	PollAll(ctx context.Context) error
}

const (
	tokenRefreshTimeout = 5 * time.Minute
	orderPollTimeout    = 10 * time.Minute
)

// MarketplaceCron submits the daily token refresh and the optional order poll
// to the job queue on their cron schedules (six fields, seconds first).
type MarketplaceCron struct {
	cfg       config.SchedulerConfig
	queue     *JobQueue
	refresher TokenRefresher
	poller    OrderPoller
	logger    *zap.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewMarketplaceCron registers the enabled tasks. poller may be nil when order polling is off.
func NewMarketplaceCron(cfg config.SchedulerConfig, queue *JobQueue, refresher TokenRefresher, poller OrderPoller, logger *zap.Logger) (*MarketplaceCron, error) {
	c := &MarketplaceCron{
		cfg:       cfg,
		queue:     queue,
		refresher: refresher,
		poller:    poller,
		logger:    logger.Named("marketplace_cron"),
		cron:      cron.New(cron.WithSeconds()),
	}

	if _, err := c.cron.AddFunc(cfg.TokenRefreshSchedule, c.submitTokenRefresh); err != nil {
		return nil, fmt.Errorf("%w: token refresh %q: %v", ErrInvalidSchedule, cfg.TokenRefreshSchedule, err)
	}
	if cfg.OrderPollEnabled && poller != nil {
		if _, err := c.cron.AddFunc(cfg.OrderPollSchedule, c.submitOrderPoll); err != nil {
			return nil, fmt.Errorf("%w: order poll %q: %v", ErrInvalidSchedule, cfg.OrderPollSchedule, err)
		}
	}
	return c, nil
}

// Start begins firing the schedules
func (c *MarketplaceCron) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.cron.Start()
	c.running = true
	c.logger.Info("Marketplace cron started",
		zap.String("token_refresh", c.cfg.TokenRefreshSchedule),
		zap.Bool("order_poll", c.cfg.OrderPollEnabled && c.poller != nil),
		zap.String("order_poll_schedule", c.cfg.OrderPollSchedule),
	)
}

// Stop prevents new firings and waits for a running trigger to return or ctx to end
func (c *MarketplaceCron) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	select {
	case <-c.cron.Stop().Done():
		c.logger.Info("Marketplace cron stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns the number of registered schedules
func (c *MarketplaceCron) Entries() int {
	return len(c.cron.Entries())
}

func (c *MarketplaceCron) submitTokenRefresh() {
	c.submit(&Job{
		Name:    "refresh_access_tokens",
		Queue:   QueueLong,
		Timeout: tokenRefreshTimeout,
		Run:     c.refresher.RefreshAll,
	})
}

func (c *MarketplaceCron) submitOrderPoll() {
	c.submit(&Job{
		Name:    "poll_marketplace_orders",
		Queue:   QueueLong,
		Timeout: orderPollTimeout,
		Run:     c.poller.PollAll,
	})
}

func (c *MarketplaceCron) submit(job *Job) {
	if err := c.queue.Submit(job); err != nil {
		c.logger.Error("Failed to submit scheduled job", zap.String("job", job.Name), zap.Error(err))
	}
}
