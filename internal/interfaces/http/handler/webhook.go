package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/erp/marketplace/internal/application/integration"
	"github.com/erp/marketplace/internal/infrastructure/logger"
	"github.com/erp/marketplace/internal/interfaces/http/dto"
)

// WebhookAcceptor validates a push body and queues it for processing
type WebhookAcceptor interface {
	Accept(body []byte) error
}

// WebhookHandler receives marketplace order pushes. The endpoint is called by
// the marketplace and carries no operator authentication.
type WebhookHandler struct {
	BaseHandler
	acceptor WebhookAcceptor
	maxBody  int64
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(acceptor WebhookAcceptor, maxBody int64, logger *zap.Logger) *WebhookHandler {
	if maxBody <= 0 {
		maxBody = 64 << 10
	}
	return &WebhookHandler{
		BaseHandler: BaseHandler{logger: logger.Named("webhook_handler")},
		acceptor:    acceptor,
		maxBody:     maxBody,
	}
}

// HandleLazada acknowledges a Lazada push once it is queued. Processing
// failures after that point are logged and never reach the marketplace.
func (h *WebhookHandler) HandleLazada(c *gin.Context) {
	log := logger.GetGinLogger(c, h.logger)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.WebhookAck{Success: false, Error: "Failed to read request body"})
		return
	}
	if int64(len(body)) > h.maxBody {
		c.JSON(http.StatusRequestEntityTooLarge, dto.WebhookAck{Success: false, Error: "Payload too large"})
		return
	}

	if err := h.acceptor.Accept(body); err != nil {
		if errors.Is(err, integrationapp.ErrInvalidWebhookPayload) {
			log.Warn("Rejected malformed webhook", zap.Int("bytes", len(body)))
			c.JSON(http.StatusBadRequest, dto.WebhookAck{Success: false, Error: "Invalid JSON"})
			return
		}
		// The marketplace retries on non-2xx, so a full queue is reported
		log.Error("Failed to queue webhook", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.WebhookAck{Success: false, Error: "Temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Success: true, Message: "Webhook received"})
}

// RegisterRoutes registers the webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	webhooks.POST("/lazada", h.HandleLazada)
}
