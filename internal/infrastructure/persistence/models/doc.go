// Package models contains the GORM persistence models of the marketplace
// integration. Domain types stay free of ORM tags; each model converts with
// ToDomain and a <Model>FromDomain constructor.
//
// Layout:
//   - base.go: shared columns and the model list used for schema creation
//   - integration.go: credentials, category mirror, attributes, mappings, image cache
//   - catalog.go: item groups, items, variants, marketplace listings
//   - trade.go: customers, sales orders, stock levels, material requests
package models
