package integration

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// MarketplaceCode Tests
// ---------------------------------------------------------------------------

func TestMarketplaceCode_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		code     MarketplaceCode
		expected bool
	}{
		{"Lazada valid", MarketplaceLazada, true},
		{"TikTok Shop valid", MarketplaceTikTokShop, true},
		{"Shopee valid", MarketplaceShopee, true},
		{"Tiki valid", MarketplaceTiki, true},
		{"Invalid code", MarketplaceCode("Amazon"), false},
		{"Empty code", MarketplaceCode(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.IsValid())
		})
	}
}

func TestMarketplaceCode_IsSupported(t *testing.T) {
	assert.True(t, MarketplaceLazada.IsSupported())
	assert.False(t, MarketplaceShopee.IsSupported())
	assert.False(t, MarketplaceTikTokShop.IsSupported())
	assert.False(t, MarketplaceTiki.IsSupported())
}

func TestSyncStatus_IsValid(t *testing.T) {
	assert.True(t, SyncStatusSuccess.IsValid())
	assert.True(t, SyncStatusFailed.IsValid())
	assert.False(t, SyncStatus("Pending").IsValid())
}

func TestRemoteOrder_Status(t *testing.T) {
	assert.Equal(t, "", RemoteOrder{}.Status())
	assert.Equal(t, "pending", RemoteOrder{Statuses: []string{"pending", "unpaid"}}.Status())
}

// ---------------------------------------------------------------------------
// Error Tests
// ---------------------------------------------------------------------------

func TestTruncateReason(t *testing.T) {
	t.Run("short reason unchanged", func(t *testing.T) {
		assert.Equal(t, "missing category", TruncateReason("  missing category "))
	})

	t.Run("long reason capped", func(t *testing.T) {
		reason := TruncateReason(strings.Repeat("x", 500))
		assert.Equal(t, MaxReasonLength, len([]rune(reason)))
		assert.True(t, strings.HasSuffix(reason, "..."))
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		reason := TruncateReason(strings.Repeat("ệ", 200))
		assert.Equal(t, MaxReasonLength, len([]rune(reason)))
	})
}

func TestMarketplaceError(t *testing.T) {
	err := &MarketplaceError{API: "/product/create", Code: "IllegalAccessToken", Message: "token expired", RequestID: "abc"}
	assert.Contains(t, err.Error(), "IllegalAccessToken")
	assert.Contains(t, err.Error(), "token expired")

	wrapped := fmt.Errorf("publish: %w", err)
	assert.True(t, IsMarketplaceError(wrapped))
	assert.False(t, IsMarketplaceError(errors.New("plain")))
	assert.False(t, IsMarketplaceError(ErrPlatformRequestFailed))
}
