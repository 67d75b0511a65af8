// Package integration contains the Marketplace Integration bounded context.
// This context keeps the ERP catalog and sales orders in step with external
// marketplaces (Lazada today, TikTok Shop / Shopee / Tiki reserved).
//
// Key concepts:
//   - MarketplaceGateway: Port interface for signed calls to a marketplace API
//   - Credential: App credentials plus the rotating access/refresh token pair
//   - CategoryNode: Local mirror of the marketplace category tree
//   - AttributeMapping: Internal item attribute to marketplace attribute association
//   - ProductPayload: Marketplace-shaped product/SKU request body (never persisted)
//   - ItemMarketplaceMapping: Link between an item and its marketplace product
//   - ImageCacheEntry: Uploaded image URI memoized by (content hash, use case)
//   - OrderStatus: Tagged state machine driving order reconciliation
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
