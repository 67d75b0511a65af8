package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxSalesProperties is the marketplace limit of variant-defining attributes per product
const MaxSalesProperties = 3

// AttributeRole distinguishes variant-defining attributes from descriptive ones
type AttributeRole string

const (
	AttributeRoleSalesProperty   AttributeRole = "Sales Property"
	AttributeRoleProductProperty AttributeRole = "Product Property"
)

// IsValid returns true if the role is valid
func (r AttributeRole) IsValid() bool {
	return r == AttributeRoleSalesProperty || r == AttributeRoleProductProperty
}

// RoleFromAttributeType maps the marketplace attribute_type to a role
func RoleFromAttributeType(attributeType string) AttributeRole {
	if attributeType == "sku" {
		return AttributeRoleSalesProperty
	}
	return AttributeRoleProductProperty
}

// MarketplaceAttribute is a marketplace attribute definition stored locally
type MarketplaceAttribute struct {
	ID             uuid.UUID
	Marketplace    MarketplaceCode
	AttributeID    string
	AttributeName  string
	Label          string
	Role           AttributeRole
	IsCustomizable bool
	IsVariant      bool
	IsMandatory    bool
	CreatedAt      time.Time
}

// NewMarketplaceAttribute builds a local attribute from a remote definition
func NewMarketplaceAttribute(marketplace MarketplaceCode, remote RemoteAttribute) (*MarketplaceAttribute, error) {
	if remote.ID == "" {
		return nil, ErrAttributeNotFound
	}
	return &MarketplaceAttribute{
		ID:            uuid.New(),
		Marketplace:   marketplace,
		AttributeID:   remote.ID,
		AttributeName: remote.Name,
		Label:         remote.Label,
		Role:          RoleFromAttributeType(remote.AttributeType),
		IsVariant:     remote.IsSaleProp,
		IsMandatory:   remote.IsMandatory,
		CreatedAt:     time.Now(),
	}, nil
}

// AttributeMapping associates an internal item attribute with a marketplace attribute.
// Position keeps the configuration order used when capping sales properties.
type AttributeMapping struct {
	ID            uuid.UUID
	Marketplace   MarketplaceCode
	ItemAttribute string
	Attribute     MarketplaceAttribute
	Position      int
}

// SalesAttribute is a resolved sales property used to build SKU sale properties
type SalesAttribute struct {
	// ItemAttribute is the internal attribute name (e.g. "Color")
	ItemAttribute string
	// ID and Name are the marketplace attribute id and name
	ID   string
	Name string
}

// DefaultSalesAttributes is the built-in set used when nothing is configured
func DefaultSalesAttributes() []SalesAttribute {
	return []SalesAttribute{
		{ItemAttribute: "Color", ID: "1001", Name: "Color"},
		{ItemAttribute: "Size", ID: "1002", Name: "Size"},
		{ItemAttribute: "Material", ID: "1003", Name: "Material"},
	}
}

// CapSalesAttributes keeps the first MaxSalesProperties entries
func CapSalesAttributes(attrs []SalesAttribute) []SalesAttribute {
	if len(attrs) <= MaxSalesProperties {
		return attrs
	}
	return attrs[:MaxSalesProperties]
}

// AttributeRepository persists marketplace attributes and item attribute mappings
type AttributeRepository interface {
	FindByAttributeID(ctx context.Context, marketplace MarketplaceCode, attributeID string) (*MarketplaceAttribute, error)
	Create(ctx context.Context, attr *MarketplaceAttribute) error
	// FindMappings returns mappings for a marketplace in configuration order
	FindMappings(ctx context.Context, marketplace MarketplaceCode) ([]AttributeMapping, error)
}
