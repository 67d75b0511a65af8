package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

func newTestAttributeService(creds *MockCredentialRepository, gw *MockGateway, repo *MockAttributeRepository) *AttributeService {
	return NewAttributeService(NewTokenManager(creds, gw, zap.NewNop()), gw, repo, zap.NewNop())
}

func salesMapping(itemAttr, id, name string) integration.AttributeMapping {
	return integration.AttributeMapping{
		ItemAttribute: itemAttr,
		Attribute: integration.MarketplaceAttribute{
			AttributeID:   id,
			AttributeName: name,
			Role:          integration.AttributeRoleSalesProperty,
		},
	}
}

func TestAttributeService_SalesAttributes(t *testing.T) {
	ctx := context.Background()
	lz := integration.MarketplaceLazada

	t.Run("defaults when nothing configured", func(t *testing.T) {
		repo := new(MockAttributeRepository)
		repo.On("FindMappings", ctx, lz).Return([]integration.AttributeMapping{}, nil)

		attrs, err := newTestAttributeService(nil, new(MockGateway), repo).SalesAttributes(ctx, lz)

		require.NoError(t, err)
		assert.Equal(t, integration.DefaultSalesAttributes(), attrs)
	})

	t.Run("defaults when the lookup fails", func(t *testing.T) {
		repo := new(MockAttributeRepository)
		repo.On("FindMappings", ctx, lz).Return(nil, errors.New("db down"))

		attrs, err := newTestAttributeService(nil, new(MockGateway), repo).SalesAttributes(ctx, lz)

		require.NoError(t, err)
		assert.Len(t, attrs, 3)
	})

	t.Run("configured order kept and capped", func(t *testing.T) {
		repo := new(MockAttributeRepository)
		product := salesMapping("Fabric", "9", "Fabric")
		product.Attribute.Role = integration.AttributeRoleProductProperty
		repo.On("FindMappings", ctx, lz).Return([]integration.AttributeMapping{
			salesMapping("Size", "2", "Size"),
			product,
			salesMapping("Colour", "1", "Color Family"),
			salesMapping("Style", "3", "Style"),
			salesMapping("Pattern", "4", "Pattern"),
		}, nil)

		attrs, err := newTestAttributeService(nil, new(MockGateway), repo).SalesAttributes(ctx, lz)

		require.NoError(t, err)
		require.Len(t, attrs, integration.MaxSalesProperties)
		assert.Equal(t, "Size", attrs[0].ItemAttribute)
		assert.Equal(t, "Color Family", attrs[1].Name)
		assert.Equal(t, "3", attrs[2].ID)
	})
}

func TestAttributeService_SyncCategoryAttributes(t *testing.T) {
	ctx := context.Background()
	lz := integration.MarketplaceLazada

	creds := new(MockCredentialRepository)
	gw := new(MockGateway)
	repo := new(MockAttributeRepository)
	creds.On("FindByShop", ctx, "Lazada").Return(testCredential(nil), nil)
	gw.On("GetCategoryAttributes", ctx, mock.Anything, "10002").Return([]integration.RemoteAttribute{
		{ID: "100", Name: "color_family", AttributeType: "sku", IsSaleProp: true},
		{ID: "200", Name: "brand", AttributeType: "normal", IsMandatory: true},
		{ID: "", Name: "broken"},
	}, nil)
	repo.On("FindByAttributeID", ctx, lz, "100").Return(&integration.MarketplaceAttribute{AttributeID: "100"}, nil)
	repo.On("FindByAttributeID", ctx, lz, "200").Return(nil, integration.ErrAttributeNotFound)
	repo.On("FindByAttributeID", ctx, lz, "").Return(nil, integration.ErrAttributeNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(a *integration.MarketplaceAttribute) bool {
		return a.AttributeID == "200" && a.Role == integration.AttributeRoleProductProperty && a.IsMandatory
	})).Return(nil).Once()

	svc := newTestAttributeService(creds, gw, repo)
	result, err := svc.SyncCategoryAttributes(ctx, "Lazada", "10002")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Existed)
	repo.AssertExpectations(t)

	mandatory, err := svc.MandatoryAttributes(ctx, "Lazada", "10002")
	require.NoError(t, err)
	require.Len(t, mandatory, 1)
	assert.Equal(t, "brand", mandatory[0].Name)
}
