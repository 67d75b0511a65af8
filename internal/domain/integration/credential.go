package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenRefreshWindow is how long before expiry an access token is refreshed
const TokenRefreshWindow = 300 * time.Second

// DefaultShopName is the shop used when callers do not name one
const DefaultShopName = "Lazada"

// Credential holds the app credentials and the rotating token pair for one shop.
type Credential struct {
	ID uuid.UUID
	// ShopName identifies the shop account (unique)
	ShopName string
	// Marketplace the credential belongs to
	Marketplace MarketplaceCode
	// AppKey and AppSecret are issued by the marketplace open platform
	AppKey    string
	AppSecret string
	// AccessToken authorizes seller-scoped calls
	AccessToken string
	// AccessTokenExpiry is nil when the expiry is unknown
	AccessTokenExpiry *time.Time
	// RefreshToken is exchanged for a new access token
	RefreshToken       string
	RefreshTokenExpiry *time.Time
	// LastRefreshedAt records the last successful refresh
	LastRefreshedAt *time.Time
	// DefaultWarehouse is used for stock lookups and material requests
	DefaultWarehouse string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the fields every signed call needs
func (c *Credential) Validate() error {
	if c.ShopName == "" || c.AppKey == "" || c.AppSecret == "" {
		return ErrCredentialInvalid
	}
	if !c.Marketplace.IsValid() {
		return ErrMappingInvalidMarketplace
	}
	return nil
}

// NeedsRefresh returns true when the access token expiry is known and now is
// inside the refresh window.
func (c *Credential) NeedsRefresh(now time.Time) bool {
	if c.AccessTokenExpiry == nil {
		return false
	}
	return !now.Before(c.AccessTokenExpiry.Add(-TokenRefreshWindow))
}

// ApplyGrant stores a refreshed token pair. The refresh token and its expiry
// are kept when the grant omits them.
func (c *Credential) ApplyGrant(grant *TokenGrant, now time.Time) {
	c.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		c.RefreshToken = grant.RefreshToken
	}
	expiry := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	c.AccessTokenExpiry = &expiry
	if grant.RefreshExpiresIn > 0 {
		refreshExpiry := now.Add(time.Duration(grant.RefreshExpiresIn) * time.Second)
		c.RefreshTokenExpiry = &refreshExpiry
	}
	c.LastRefreshedAt = &now
	c.UpdatedAt = now
}

// CredentialRepository persists marketplace credentials
type CredentialRepository interface {
	FindByShop(ctx context.Context, shopName string) (*Credential, error)
	FindAll(ctx context.Context) ([]Credential, error)
	Save(ctx context.Context, cred *Credential) error
}
