package dto

import "net/http"

// Error codes. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"

	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	ErrCodeQueueFull   = "ERR_QUEUE_FULL"
)

// Marketplace error codes
const (
	// ErrCodeNotConfigured is used when the shop has no usable credential
	ErrCodeNotConfigured = "ERR_MARKETPLACE_NOT_CONFIGURED"
	// ErrCodeMarketplaceRejected is used when the marketplace answered with an error code
	ErrCodeMarketplaceRejected = "ERR_MARKETPLACE_REJECTED"
	// ErrCodeMarketplaceUnavailable is used for transport failures and unparseable replies
	ErrCodeMarketplaceUnavailable = "ERR_MARKETPLACE_UNAVAILABLE"
	// ErrCodeCategoryMissing is used when no category resolves for an item
	ErrCodeCategoryMissing = "ERR_CATEGORY_MISSING"
	// ErrCodeNotPublished is used when deleting an item that was never published
	ErrCodeNotPublished = "ERR_NOT_PUBLISHED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
	ErrCodeQueueFull:   http.StatusServiceUnavailable,

	ErrCodeNotConfigured:          http.StatusPreconditionFailed,
	ErrCodeMarketplaceRejected:    http.StatusBadGateway,
	ErrCodeMarketplaceUnavailable: http.StatusBadGateway,
	ErrCodeCategoryMissing:        http.StatusUnprocessableEntity,
	ErrCodeNotPublished:           http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
