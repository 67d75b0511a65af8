package integration

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

// AttributeSyncResult counts the attributes stored by a sync
type AttributeSyncResult struct {
	Created int `json:"created"`
	Existed int `json:"existed"`
}

// AttributeService manages marketplace attribute definitions and the sales
// properties used to build SKUs.
type AttributeService struct {
	tokens     *TokenManager
	gateway    integration.MarketplaceGateway
	attributes integration.AttributeRepository
	logger     *zap.Logger
}

// NewAttributeService creates an AttributeService
func NewAttributeService(tokens *TokenManager, gateway integration.MarketplaceGateway, attributes integration.AttributeRepository, logger *zap.Logger) *AttributeService {
	return &AttributeService{
		tokens:     tokens,
		gateway:    gateway,
		attributes: attributes,
		logger:     logger.Named("attribute_service"),
	}
}

// SalesAttributes returns the configured sales property mappings in
// configuration order, or the built-in defaults when none are configured,
// capped at MaxSalesProperties.
func (s *AttributeService) SalesAttributes(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.SalesAttribute, error) {
	mappings, err := s.attributes.FindMappings(ctx, marketplace)
	if err != nil {
		s.logger.Warn("Failed to load attribute mappings, using defaults", zap.Error(err))
		return integration.DefaultSalesAttributes(), nil
	}

	attrs := make([]integration.SalesAttribute, 0, len(mappings))
	for _, m := range mappings {
		if m.Attribute.Role != integration.AttributeRoleSalesProperty {
			continue
		}
		attrs = append(attrs, integration.SalesAttribute{
			ItemAttribute: m.ItemAttribute,
			ID:            m.Attribute.AttributeID,
			Name:          m.Attribute.AttributeName,
		})
	}
	if len(attrs) == 0 && marketplace == integration.MarketplaceLazada {
		return integration.DefaultSalesAttributes(), nil
	}
	if len(attrs) > integration.MaxSalesProperties {
		s.logger.Warn("Too many sales properties configured, extra ones ignored",
			zap.Int("configured", len(attrs)),
			zap.Int("max", integration.MaxSalesProperties),
		)
	}
	return integration.CapSalesAttributes(attrs), nil
}

// SyncCategoryAttributes stores the attribute definitions of a category.
// Attributes already stored are left untouched.
func (s *AttributeService) SyncCategoryAttributes(ctx context.Context, shop, categoryID string) (*AttributeSyncResult, error) {
	remote, err := s.fetch(ctx, shop, categoryID)
	if err != nil {
		return nil, err
	}

	marketplace := s.gateway.Marketplace()
	result := &AttributeSyncResult{}
	for _, r := range remote {
		_, err := s.attributes.FindByAttributeID(ctx, marketplace, r.ID)
		if err == nil {
			result.Existed++
			continue
		}
		if !errors.Is(err, integration.ErrAttributeNotFound) {
			return result, err
		}

		attr, err := integration.NewMarketplaceAttribute(marketplace, r)
		if err != nil {
			s.logger.Warn("Skipping attribute without id", zap.String("name", r.Name))
			continue
		}
		if err := s.attributes.Create(ctx, attr); err != nil {
			return result, err
		}
		result.Created++
	}

	s.logger.Info("Category attributes synced",
		zap.String("category_id", categoryID),
		zap.Int("created", result.Created),
		zap.Int("existed", result.Existed),
	)
	return result, nil
}

// MandatoryAttributes lists the attributes a category requires
func (s *AttributeService) MandatoryAttributes(ctx context.Context, shop, categoryID string) ([]integration.RemoteAttribute, error) {
	remote, err := s.fetch(ctx, shop, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]integration.RemoteAttribute, 0)
	for _, r := range remote {
		if r.IsMandatory {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *AttributeService) fetch(ctx context.Context, shop, categoryID string) ([]integration.RemoteAttribute, error) {
	cred, err := s.tokens.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}
	remote, err := s.gateway.GetCategoryAttributes(ctx, cred, categoryID)
	if err != nil {
		s.logger.Error("Failed to fetch category attributes", zap.String("category_id", categoryID), zap.Error(err))
		return nil, err
	}
	return remote, nil
}
