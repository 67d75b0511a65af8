package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/scheduler"
)

const (
	publishJobTimeout = 60 * time.Second
	deleteJobTimeout  = 20 * time.Second

	missingCategoryReason = "missing category"
)

// PublishAction selects what a bulk publish does with each item
type PublishAction string

const (
	PublishActionCreate PublishAction = "create"
	PublishActionUpdate PublishAction = "update"
)

// JobRunner runs background jobs
type JobRunner interface {
	Submit(job *scheduler.Job) error
	RunInline(ctx context.Context, job *scheduler.Job) error
}

// ProductPayloadBuilder builds create and update payloads
type ProductPayloadBuilder interface {
	Build(ctx context.Context, shop string, item *integration.Item) (*integration.ProductPayload, error)
	BuildUpdate(ctx context.Context, payload *integration.ProductPayload, itemID string) (*integration.ProductPayload, error)
}

// ProductMappingStore is the mapping persistence the publish service needs
type ProductMappingStore interface {
	integration.ProductMappingRepository
	integration.SKUMappingRepository
}

// PublishResult describes the outcome of publishing one item
type PublishResult struct {
	ItemCode  string `json:"item_code"`
	ProductID string `json:"product_id,omitempty"`
	Created   bool   `json:"created"`
}

// BulkFailure is one item a bulk publish could not process
type BulkFailure struct {
	ItemCode string `json:"item_code"`
	Reason   string `json:"reason"`
}

// BulkPublishReport summarizes a bulk publish
type BulkPublishReport struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// PublishService creates, updates and removes marketplace products
type PublishService struct {
	credentials CredentialSource
	gateway     integration.MarketplaceGateway
	items       integration.ItemRepository
	mappings    ProductMappingStore
	builder     ProductPayloadBuilder
	jobs        JobRunner
	logger      *zap.Logger
}

// NewPublishService creates a PublishService
func NewPublishService(
	credentials CredentialSource,
	gateway integration.MarketplaceGateway,
	items integration.ItemRepository,
	mappings ProductMappingStore,
	builder ProductPayloadBuilder,
	jobs JobRunner,
	logger *zap.Logger,
) *PublishService {
	return &PublishService{
		credentials: credentials,
		gateway:     gateway,
		items:       items,
		mappings:    mappings,
		builder:     builder,
		jobs:        jobs,
		logger:      logger.Named("publish_service"),
	}
}

// UpdateOrCreate publishes the item: without a published active mapping the
// product is created, otherwise it is updated. The sync outcome is recorded
// on the mapping either way.
func (s *PublishService) UpdateOrCreate(ctx context.Context, shop, itemCode string) (*PublishResult, error) {
	marketplace := s.gateway.Marketplace()
	log := s.logger.With(zap.String("item_code", itemCode), zap.String("shop", shop))

	item, err := s.items.FindByCode(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	mapping, err := s.mappings.FindActive(ctx, itemCode, marketplace, shop)
	if err != nil && !errors.Is(err, integration.ErrMappingNotFound) {
		return nil, err
	}

	payload, err := s.builder.Build(ctx, shop, item)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, integration.ErrCategoryNotFound) {
			reason = missingCategoryReason
		}
		s.recordFailure(ctx, mapping, item, shop, reason)
		return nil, fmt.Errorf("build payload for %s: %w", itemCode, err)
	}

	cred, err := s.credentials.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}

	if mapping == nil || !mapping.IsPublished() {
		return s.create(ctx, log, cred, item, mapping, shop, payload)
	}
	return s.update(ctx, log, cred, mapping, payload)
}

func (s *PublishService) create(
	ctx context.Context,
	log *zap.Logger,
	cred *integration.Credential,
	item *integration.Item,
	mapping *integration.ItemMarketplaceMapping,
	shop string,
	payload *integration.ProductPayload,
) (*PublishResult, error) {
	created, err := s.gateway.CreateProduct(ctx, cred, payload)
	if err != nil {
		log.Error("Create product failed", zap.Error(err))
		s.recordFailure(ctx, mapping, item, shop, err.Error())
		return nil, err
	}

	if mapping == nil {
		if mapping, err = integration.NewItemMarketplaceMapping(item.Code, s.gateway.Marketplace(), shop); err != nil {
			return nil, err
		}
	}
	mapping.RecordSyncSuccess(created.ItemID, item.SellerSKU())
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}

	if item.HasVariants() {
		s.saveVariantMappings(ctx, log, item, shop, created)
	}
	if skus := integration.NewSKUMappings(s.gateway.Marketplace(), created.SKUs); len(skus) > 0 {
		if err := s.mappings.SaveAll(ctx, skus); err != nil {
			log.Error("Failed to save SKU mappings", zap.Error(err))
		}
	}

	log.Info("Product created", zap.String("product_id", created.ItemID), zap.Int("skus", len(created.SKUs)))
	return &PublishResult{ItemCode: item.Code, ProductID: created.ItemID, Created: true}, nil
}

// saveVariantMappings records one mapping per variant found in the response
func (s *PublishService) saveVariantMappings(ctx context.Context, log *zap.Logger, item *integration.Item, shop string, created *integration.CreatedProduct) {
	bySellerSKU := make(map[string]string, len(item.Variants))
	for _, v := range item.Variants {
		bySellerSKU[v.SellerSKU()] = v.ItemCode
	}
	for _, sku := range created.SKUs {
		code, ok := bySellerSKU[sku.SellerSKU]
		if !ok {
			log.Warn("Created SKU matches no variant", zap.String("seller_sku", sku.SellerSKU))
			continue
		}
		m, err := integration.NewItemMarketplaceMapping(code, s.gateway.Marketplace(), shop)
		if err != nil {
			continue
		}
		m.RecordSyncSuccess(created.ItemID, sku.SellerSKU)
		if err := s.mappings.Save(ctx, m); err != nil {
			log.Error("Failed to save variant mapping", zap.String("variant", code), zap.Error(err))
		}
	}
}

func (s *PublishService) update(
	ctx context.Context,
	log *zap.Logger,
	cred *integration.Credential,
	mapping *integration.ItemMarketplaceMapping,
	payload *integration.ProductPayload,
) (*PublishResult, error) {
	update, err := s.builder.BuildUpdate(ctx, payload, mapping.MarketplaceProductID)
	if err == nil {
		err = s.gateway.UpdateProduct(ctx, cred, update)
	}
	if err != nil {
		log.Error("Update product failed", zap.String("product_id", mapping.MarketplaceProductID), zap.Error(err))
		mapping.RecordSyncFailure(err.Error())
		if saveErr := s.mappings.Save(ctx, mapping); saveErr != nil {
			log.Error("Failed to record sync failure", zap.Error(saveErr))
		}
		return nil, err
	}

	mapping.RecordSyncSuccess("", "")
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	log.Info("Product updated", zap.String("product_id", mapping.MarketplaceProductID))
	return &PublishResult{ItemCode: mapping.ItemCode, ProductID: mapping.MarketplaceProductID}, nil
}

// recordFailure stores a Failed sync status on the active mapping, creating
// an unpublished one when the item has none yet
func (s *PublishService) recordFailure(ctx context.Context, mapping *integration.ItemMarketplaceMapping, item *integration.Item, shop, reason string) {
	if mapping == nil {
		var err error
		if mapping, err = integration.NewItemMarketplaceMapping(item.Code, s.gateway.Marketplace(), shop); err != nil {
			return
		}
		mapping.MarketplaceSKU = item.SellerSKU()
	}
	mapping.RecordSyncFailure(reason)
	if err := s.mappings.Save(ctx, mapping); err != nil {
		s.logger.Error("Failed to record sync failure", zap.String("item_code", item.Code), zap.Error(err))
	}
}

// Enqueue submits a publish job. In inline mode the job runs on the caller's
// goroutine and its result is returned.
func (s *PublishService) Enqueue(ctx context.Context, shop, itemCode string, inline bool) (*PublishResult, error) {
	var result *PublishResult
	job := &scheduler.Job{
		Name:    "publish_product",
		Queue:   scheduler.QueueShort,
		Timeout: publishJobTimeout,
		Args:    map[string]any{"item_code": itemCode, "shop": shop},
		Run: func(ctx context.Context) error {
			r, err := s.UpdateOrCreate(ctx, shop, itemCode)
			result = r
			return err
		},
	}
	if inline {
		err := s.jobs.RunInline(ctx, job)
		return result, err
	}
	return nil, s.jobs.Submit(job)
}

// Delete deactivates the active mapping and queues removal of the product's
// seller SKU from the marketplace
func (s *PublishService) Delete(ctx context.Context, shop, itemCode string) error {
	mapping, err := s.mappings.FindActive(ctx, itemCode, s.gateway.Marketplace(), shop)
	if err != nil {
		if errors.Is(err, integration.ErrMappingNotFound) {
			return fmt.Errorf("%w: %s", integration.ErrMappingNotPublished, itemCode)
		}
		return err
	}
	if !mapping.IsPublished() {
		return fmt.Errorf("%w: %s", integration.ErrMappingNotPublished, itemCode)
	}

	mapping.Deactivate()
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return fmt.Errorf("deactivate mapping: %w", err)
	}

	sellerSKU := mapping.MarketplaceSKU
	if sellerSKU == "" {
		sellerSKU = itemCode
	}
	shopName := mapping.ShopName
	if shopName == "" {
		shopName = shop
	}

	return s.jobs.Submit(&scheduler.Job{
		Name:    "delete_product",
		Queue:   scheduler.QueueShort,
		Timeout: deleteJobTimeout,
		Args:    map[string]any{"seller_sku": sellerSKU, "shop": shopName},
		Run: func(ctx context.Context) error {
			cred, err := s.credentials.ActiveCredentials(ctx, shopName)
			if err != nil {
				return err
			}
			return s.gateway.RemoveProduct(ctx, cred, []string{sellerSKU}, nil)
		},
	})
}

// BulkPublish publishes items one after another. Failures are collected and
// never stop the batch. The update action only touches published items.
func (s *PublishService) BulkPublish(ctx context.Context, shop string, itemCodes []string, action PublishAction) *BulkPublishReport {
	report := &BulkPublishReport{Total: len(itemCodes), Failed: make([]BulkFailure, 0)}
	for _, code := range itemCodes {
		if action == PublishActionUpdate {
			m, err := s.mappings.FindActive(ctx, code, s.gateway.Marketplace(), shop)
			if err != nil || !m.IsPublished() {
				report.Failed = append(report.Failed, BulkFailure{ItemCode: code, Reason: "item is not published on this marketplace"})
				continue
			}
		}
		if _, err := s.UpdateOrCreate(ctx, shop, code); err != nil {
			report.Failed = append(report.Failed, BulkFailure{ItemCode: code, Reason: integration.TruncateReason(err.Error())})
			continue
		}
		report.Succeeded++
	}

	s.logger.Info("Bulk publish finished",
		zap.String("action", string(action)),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}
