package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/erp/marketplace/internal/application/integration"
	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/interfaces/http/dto"
	"github.com/erp/marketplace/internal/interfaces/http/middleware"
)

// CategoryOperations is what the operator API needs from the category service
type CategoryOperations interface {
	SyncCategoryTree(ctx context.Context, shop string) (*integrationapp.CategorySyncResult, error)
	SuggestCategories(ctx context.Context, shop, productName string) ([]integration.CategorySuggestion, error)
}

// AttributeOperations is what the operator API needs from the attribute service
type AttributeOperations interface {
	SyncCategoryAttributes(ctx context.Context, shop, categoryID string) (*integrationapp.AttributeSyncResult, error)
	MandatoryAttributes(ctx context.Context, shop, categoryID string) ([]integration.RemoteAttribute, error)
}

// PublishOperations is what the operator API needs from the publish service
type PublishOperations interface {
	Enqueue(ctx context.Context, shop, itemCode string, inline bool) (*integrationapp.PublishResult, error)
	Delete(ctx context.Context, shop, itemCode string) error
	BulkPublish(ctx context.Context, shop string, itemCodes []string, action integrationapp.PublishAction) *integrationapp.BulkPublishReport
}

// TokenOperations refreshes stored marketplace credentials
type TokenOperations interface {
	RefreshAll(ctx context.Context) error
}

// OrderPolling pulls recent orders for one shop
type OrderPolling interface {
	PollRecent(ctx context.Context, shop string) (*integrationapp.PollSummary, error)
}

// MarketplaceHandler serves the Lazada operator API
type MarketplaceHandler struct {
	BaseHandler
	categories  CategoryOperations
	attributes  AttributeOperations
	publisher   PublishOperations
	tokens      TokenOperations
	orders      OrderPolling
	defaultShop string
	limiter     gin.HandlerFunc
}

// MarketplaceHandlerConfig configures a MarketplaceHandler
type MarketplaceHandlerConfig struct {
	DefaultShop       string
	RequestsPerSecond float64
	Burst             int
}

// NewMarketplaceHandler creates a MarketplaceHandler
func NewMarketplaceHandler(
	categories CategoryOperations,
	attributes AttributeOperations,
	publisher PublishOperations,
	tokens TokenOperations,
	orders OrderPolling,
	cfg MarketplaceHandlerConfig,
	logger *zap.Logger,
) *MarketplaceHandler {
	return &MarketplaceHandler{
		BaseHandler: BaseHandler{logger: logger.Named("marketplace_handler")},
		categories:  categories,
		attributes:  attributes,
		publisher:   publisher,
		tokens:      tokens,
		orders:      orders,
		defaultShop: cfg.DefaultShop,
		limiter:     middleware.OperatorRateLimit(cfg.RequestsPerSecond, cfg.Burst),
	}
}

func (h *MarketplaceHandler) shop(c *gin.Context) (string, bool) {
	shop, ok := shopParam(c, h.defaultShop)
	if !ok {
		h.BadRequest(c, "Invalid shop parameter")
	}
	return shop, ok
}

// SyncCategories mirrors the marketplace category tree
func (h *MarketplaceHandler) SyncCategories(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	result, err := h.categories.SyncCategoryTree(c.Request.Context(), shop)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SuggestCategories asks the marketplace which categories fit a product name
func (h *MarketplaceHandler) SuggestCategories(c *gin.Context) {
	var q dto.SuggestionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	suggestions, err := h.categories.SuggestCategories(c.Request.Context(), shop, q.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []integration.CategorySuggestion{}
	}
	h.Success(c, suggestions)
}

// SyncAttributes stores the attribute definitions of one category
func (h *MarketplaceHandler) SyncAttributes(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	result, err := h.attributes.SyncCategoryAttributes(c.Request.Context(), shop, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MandatoryAttributes lists the attributes a category requires
func (h *MarketplaceHandler) MandatoryAttributes(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	attrs, err := h.attributes.MandatoryAttributes(c.Request.Context(), shop, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if attrs == nil {
		attrs = []integration.RemoteAttribute{}
	}
	h.Success(c, attrs)
}

// Publish creates or updates one item on the marketplace. With inline=true the
// call waits for the marketplace; otherwise the job is queued and 202 returned.
func (h *MarketplaceHandler) Publish(c *gin.Context) {
	var q dto.PublishQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	itemCode := c.Param("item_code")

	result, err := h.publisher.Enqueue(c.Request.Context(), shop, itemCode, q.Inline)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !q.Inline {
		h.Accepted(c, gin.H{"item_code": itemCode, "queued": true})
		return
	}
	h.Success(c, result)
}

// Unpublish deactivates the item's mapping and queues removal from the marketplace
func (h *MarketplaceHandler) Unpublish(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	itemCode := c.Param("item_code")
	if err := h.publisher.Delete(c.Request.Context(), shop, itemCode); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, gin.H{"item_code": itemCode, "queued": true})
}

// BulkPublish publishes many items and reports per-item failures
func (h *MarketplaceHandler) BulkPublish(c *gin.Context) {
	var req dto.BulkPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	report := h.publisher.BulkPublish(c.Request.Context(), shop, req.Items, integrationapp.PublishAction(req.Action))
	h.Success(c, report)
}

// RefreshTokens refreshes every stored credential
func (h *MarketplaceHandler) RefreshTokens(c *gin.Context) {
	if err := h.tokens.RefreshAll(c.Request.Context()); err != nil {
		// Per-shop failures are joined; the caller sees which shops failed
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			h.ErrorWithCode(c, dto.ErrCodeMarketplaceUnavailable, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"refreshed": true})
}

// PollOrders pulls and reconciles recent orders for a shop
func (h *MarketplaceHandler) PollOrders(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	summary, err := h.orders.PollRecent(c.Request.Context(), shop)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RegisterRoutes registers the operator routes
func (h *MarketplaceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lazada := rg.Group("/marketplace/lazada", h.limiter)

	categories := lazada.Group("/categories")
	categories.POST("/sync", h.SyncCategories)
	categories.GET("/suggestions", h.SuggestCategories)
	categories.POST("/:id/attributes/sync", h.SyncAttributes)
	categories.GET("/:id/attributes/mandatory", h.MandatoryAttributes)

	products := lazada.Group("/products")
	products.POST("/bulk", h.BulkPublish)
	products.POST("/:item_code/publish", h.Publish)
	products.DELETE("/:item_code", h.Unpublish)

	lazada.POST("/tokens/refresh", h.RefreshTokens)
	lazada.POST("/orders/poll", h.PollOrders)
}
