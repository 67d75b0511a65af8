package integration

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// Configuration errors
	ErrPlatformNotConfigured = errors.New("integration: platform not configured")
	ErrCredentialNotFound    = errors.New("integration: marketplace credential not found")
	ErrCredentialInvalid     = errors.New("integration: marketplace credential incomplete")
	ErrRefreshTokenMissing   = errors.New("integration: refresh token missing")

	// Transport and protocol errors
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrTokenRefreshFailed      = errors.New("integration: access token refresh failed")

	// Resolution errors
	ErrCategoryNotFound  = errors.New("integration: marketplace category not found")
	ErrAttributeNotFound = errors.New("integration: marketplace attribute not found")
	ErrItemNotFound      = errors.New("integration: item not found")
	ErrNoSKUs            = errors.New("integration: no SKUs could be built")

	// Mapping errors
	ErrMappingInvalidItem        = errors.New("integration: invalid item code")
	ErrMappingInvalidMarketplace = errors.New("integration: invalid marketplace code")
	ErrMappingNotFound           = errors.New("integration: marketplace mapping not found")
	ErrMappingNotPublished       = errors.New("integration: item not published on this marketplace")

	// Image errors
	ErrImageCacheKeyInvalid = errors.New("integration: image cache key requires hash and use case")
	ErrImageSourceNotFound  = errors.New("integration: image source not found")

	// Order errors
	ErrOrderNotFound             = errors.New("integration: sales order not found")
	ErrUnknownOrderStatus        = errors.New("integration: unknown marketplace order status")
	ErrInvalidTransition         = errors.New("integration: invalid order status transition")
	ErrTransitionNotImplemented  = errors.New("integration: order status transition not implemented")
	ErrMissingMarketplaceOrderID = errors.New("integration: missing marketplace order id")
	ErrUnsupportedMessageType    = errors.New("integration: unsupported webhook message type")
)

// MaxReasonLength caps human readable failure reasons stored on records.
// External log sinks truncate long messages, so reasons stay short.
const MaxReasonLength = 140

// TruncateReason shortens a failure reason to MaxReasonLength runes.
func TruncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) <= MaxReasonLength {
		return reason
	}
	runes := []rune(reason)
	return string(runes[:MaxReasonLength-3]) + "..."
}

// MarketplaceError is an application-level failure reported by the marketplace
// (HTTP 200 with a non-zero response code).
type MarketplaceError struct {
	API       string
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface
func (e *MarketplaceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("integration: marketplace %s returned code %s", e.API, e.Code)
	}
	return fmt.Sprintf("integration: marketplace %s returned code %s: %s", e.API, e.Code, e.Message)
}

// IsMarketplaceError reports whether err carries a marketplace application error.
func IsMarketplaceError(err error) bool {
	var mErr *MarketplaceError
	return errors.As(err, &mErr)
}
