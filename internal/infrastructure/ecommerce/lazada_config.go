package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LazadaConfig holds configuration for the Lazada Open Platform client.
// Credentials are per shop and travel with each call; this only carries endpoints and limits.
type LazadaConfig struct {
	// APIBaseURL is the regional REST endpoint
	APIBaseURL string
	// AuthBaseURL serves token operations
	AuthBaseURL string
	// LanguageCode is sent with category calls
	LanguageCode string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// RequestsPerSecond limits outgoing calls; zero disables limiting
	RequestsPerSecond float64
	// Burst is the rate limiter bucket size
	Burst int
}

const (
	// LazadaVietnamAPIURL is the Vietnam regional endpoint
	LazadaVietnamAPIURL = "https://api.lazada.vn/rest"
	// LazadaAuthAPIURL is the token endpoint shared by all regions
	LazadaAuthAPIURL = "https://auth.lazada.com/rest"
	// LazadaDefaultLanguage is the language of category names
	LazadaDefaultLanguage = "en_US"
	// LazadaSignMethod is the only signing method used
	LazadaSignMethod = "sha256"

	lazadaDefaultTimeoutSeconds = 15
)

// Errors for Lazada configuration
var (
	ErrLazadaConfigMissingAPIURL   = errors.New("lazada: API base URL is required")
	ErrLazadaConfigInvalidRate     = errors.New("lazada: requests per second must not be negative")
	ErrLazadaCredentialMissingKey  = errors.New("lazada: app key is required")
	ErrLazadaCredentialMissingSign = errors.New("lazada: app secret is required")
)

// NewLazadaConfig creates a Lazada configuration with defaults
func NewLazadaConfig() *LazadaConfig {
	return &LazadaConfig{
		APIBaseURL:        LazadaVietnamAPIURL,
		AuthBaseURL:       LazadaAuthAPIURL,
		LanguageCode:      LazadaDefaultLanguage,
		TimeoutSeconds:    lazadaDefaultTimeoutSeconds,
		RequestsPerSecond: 10,
		Burst:             10,
	}
}

// Validate validates the configuration and fills unset optional fields
func (c *LazadaConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrLazadaConfigMissingAPIURL
	}
	if c.RequestsPerSecond < 0 {
		return ErrLazadaConfigInvalidRate
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = LazadaAuthAPIURL
	}
	c.AuthBaseURL = strings.TrimRight(c.AuthBaseURL, "/")
	if c.LanguageCode == "" {
		c.LanguageCode = LazadaDefaultLanguage
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = lazadaDefaultTimeoutSeconds
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}

// SignRequest computes the Lazada request signature:
// the "sign" key and binary values are ignored, remaining keys are sorted
// bytewise and concatenated as key+value after the API path, and the result is
// HMAC-SHA256 keyed with the app secret, rendered as uppercase hex.
func SignRequest(apiPath string, params map[string]any, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" {
			continue
		}
		if _, binary := v.([]byte); binary {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(apiPath)
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(formatParamValue(params[k]))
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(builder.String()))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// formatParamValue renders a parameter the way it is sent on the wire
func formatParamValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		// signed and sent capitalised, as the platform's reference SDKs render them
		if val {
			return "True"
		}
		return "False"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
