package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/erp/marketplace/internal/interfaces/http/dto"
)

// OperatorRateLimit throttles the operator API with a single token bucket.
// Every operator call fans out to the marketplace, which enforces its own
// per-app quota, so bursts are rejected here with 429 instead.
func OperatorRateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	retryAfter := strconv.Itoa(int(1/perSecond) + 1)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many operator requests, retry later",
				requestIDOf(c),
			))
			return
		}
		c.Next()
	}
}
