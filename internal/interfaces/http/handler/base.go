package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/logger"
	"github.com/erp/marketplace/internal/infrastructure/scheduler"
	"github.com/erp/marketplace/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 for work handed to the job queue
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

// HandleError converts service errors to HTTP responses. Unknown errors are
// logged with the request logger and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	code, message := classify(err)
	if code == dto.ErrCodeInternal {
		logger.GetGinLogger(c, h.logger).Error("Request failed", zap.Error(err))
		message = "An internal error occurred"
	}
	h.ErrorWithCode(c, code, message)
}

func classify(err error) (code, message string) {
	var mErr *integration.MarketplaceError
	switch {
	case errors.As(err, &mErr):
		return dto.ErrCodeMarketplaceRejected, mErr.Error()
	case errors.Is(err, integration.ErrCredentialNotFound),
		errors.Is(err, integration.ErrCredentialInvalid),
		errors.Is(err, integration.ErrRefreshTokenMissing),
		errors.Is(err, integration.ErrPlatformNotConfigured):
		return dto.ErrCodeNotConfigured, err.Error()
	case errors.Is(err, integration.ErrPlatformRequestFailed),
		errors.Is(err, integration.ErrPlatformInvalidResponse),
		errors.Is(err, integration.ErrTokenRefreshFailed):
		return dto.ErrCodeMarketplaceUnavailable, err.Error()
	case errors.Is(err, integration.ErrCategoryNotFound):
		return dto.ErrCodeCategoryMissing, err.Error()
	case errors.Is(err, integration.ErrMappingNotPublished):
		return dto.ErrCodeNotPublished, err.Error()
	case errors.Is(err, integration.ErrItemNotFound),
		errors.Is(err, integration.ErrAttributeNotFound),
		errors.Is(err, integration.ErrMappingNotFound):
		return dto.ErrCodeNotFound, err.Error()
	case errors.Is(err, integration.ErrNoSKUs),
		errors.Is(err, integration.ErrMappingInvalidItem):
		return dto.ErrCodeInvalidState, err.Error()
	case errors.Is(err, scheduler.ErrJobQueueFull),
		errors.Is(err, scheduler.ErrQueueNotRunning):
		return dto.ErrCodeQueueFull, "Job queue is unavailable, retry later"
	case errors.Is(err, context.DeadlineExceeded):
		return dto.ErrCodeMarketplaceUnavailable, "Marketplace did not answer in time"
	default:
		return dto.ErrCodeInternal, err.Error()
	}
}

// shopParam returns the shop named in the query string, or fallback
func shopParam(c *gin.Context, fallback string) (string, bool) {
	var q dto.ShopQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return "", false
	}
	if q.Shop == "" {
		return fallback, true
	}
	return q.Shop, true
}
