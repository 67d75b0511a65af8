// Package integration orchestrates marketplace synchronization: credentials,
// category and attribute mirrors, product publishing, image uploads and order
// reconciliation.
package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

// TokenManager keeps shop access tokens fresh. Concurrent refreshes for the
// same shop are not coordinated; the last successful write wins.
type TokenManager struct {
	credentials integration.CredentialRepository
	gateway     integration.MarketplaceGateway
	logger      *zap.Logger
	now         func() time.Time
}

// NewTokenManager creates a TokenManager
func NewTokenManager(credentials integration.CredentialRepository, gateway integration.MarketplaceGateway, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		credentials: credentials,
		gateway:     gateway,
		logger:      logger.Named("token_manager"),
		now:         time.Now,
	}
}

// ActiveCredentials loads the shop credential and refreshes it when needed
func (m *TokenManager) ActiveCredentials(ctx context.Context, shop string) (*integration.Credential, error) {
	return m.EnsureFresh(ctx, shop)
}

// EnsureFresh returns the shop credential, refreshing the access token first
// when it expires within TokenRefreshWindow. Outside the window nothing is
// called and nothing is written.
func (m *TokenManager) EnsureFresh(ctx context.Context, shop string) (*integration.Credential, error) {
	cred, err := m.credentials.FindByShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	if !cred.NeedsRefresh(m.now()) {
		return cred, nil
	}
	if err := m.refresh(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// RefreshAll refreshes every stored credential that has a refresh token.
// A failing shop does not stop the others; failures are joined.
func (m *TokenManager) RefreshAll(ctx context.Context) error {
	creds, err := m.credentials.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	var errs []error
	refreshed := 0
	for i := range creds {
		cred := &creds[i]
		if cred.RefreshToken == "" {
			m.logger.Warn("Skipping shop without refresh token", zap.String("shop", cred.ShopName))
			continue
		}
		if err := m.refresh(ctx, cred); err != nil {
			errs = append(errs, fmt.Errorf("shop %s: %w", cred.ShopName, err))
			continue
		}
		refreshed++
	}

	m.logger.Info("Scheduled token refresh finished",
		zap.Int("shops", len(creds)),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

func (m *TokenManager) refresh(ctx context.Context, cred *integration.Credential) error {
	log := m.logger.With(zap.String("shop", cred.ShopName))

	if cred.RefreshToken == "" {
		log.Error("Cannot refresh access token", zap.Error(integration.ErrRefreshTokenMissing))
		return fmt.Errorf("%w: shop %s", integration.ErrRefreshTokenMissing, cred.ShopName)
	}

	grant, err := m.gateway.RefreshAccessToken(ctx, cred)
	if err != nil {
		log.Error("Access token refresh failed", zap.Error(err))
		return fmt.Errorf("%w: %w", integration.ErrTokenRefreshFailed, err)
	}
	if grant == nil || grant.AccessToken == "" || grant.ExpiresIn <= 0 {
		log.Error("Access token refresh returned an incomplete grant")
		return fmt.Errorf("%w: response lacks access_token or expires_in", integration.ErrTokenRefreshFailed)
	}

	cred.ApplyGrant(grant, m.now())
	if err := m.credentials.Save(ctx, cred); err != nil {
		log.Error("Failed to persist refreshed token", zap.Error(err))
		return fmt.Errorf("save refreshed credential: %w", err)
	}

	log.Info("Access token refreshed", zap.Timep("expires_at", cred.AccessTokenExpiry))
	return nil
}
