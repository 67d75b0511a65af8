package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ImageUseCase tells the marketplace how an uploaded image is used
type ImageUseCase string

const (
	ImageUseCaseMain          ImageUseCase = "MAIN_IMAGE"
	ImageUseCaseAttribute     ImageUseCase = "ATTRIBUTE_IMAGE"
	ImageUseCaseDescription   ImageUseCase = "DESCRIPTION_IMAGE"
	ImageUseCaseSizeChart     ImageUseCase = "SIZE_CHART"
	ImageUseCaseCertification ImageUseCase = "CERTIFICATION"
	ImageUseCaseVariant       ImageUseCase = "VARIANT_IMAGE"
)

// IsValid returns true if the use case is known
func (u ImageUseCase) IsValid() bool {
	switch u {
	case ImageUseCaseMain, ImageUseCaseAttribute, ImageUseCaseDescription,
		ImageUseCaseSizeChart, ImageUseCaseCertification, ImageUseCaseVariant:
		return true
	default:
		return false
	}
}

// String returns the string representation of ImageUseCase
func (u ImageUseCase) String() string {
	return string(u)
}

// ImageCacheKey identifies an uploaded image by content and use
type ImageCacheKey struct {
	ContentHash string
	UseCase     ImageUseCase
}

// Validate checks both parts of the key are set
func (k ImageCacheKey) Validate() error {
	if k.ContentHash == "" || k.UseCase == "" {
		return ErrImageCacheKeyInvalid
	}
	return nil
}

// String renders the key as "hash:use_case"
func (k ImageCacheKey) String() string {
	return k.ContentHash + ":" + string(k.UseCase)
}

// HashImageContent returns the hex SHA-256 of image bytes
func HashImageContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ImageCacheEntry maps an image to the URI the marketplace returned for it
type ImageCacheEntry struct {
	Key         ImageCacheKey
	ImagePath   string
	URI         string
	LastUpdated time.Time
}

// ImageCacheRepository persists image cache entries
type ImageCacheRepository interface {
	// FindAll returns every persisted entry
	FindAll(ctx context.Context) ([]ImageCacheEntry, error)
	// Upsert writes the entry keyed by (hash, use case)
	Upsert(ctx context.Context, entry *ImageCacheEntry) error
}

// ImageURICache is the cache service consulted before uploading an image
type ImageURICache interface {
	// Initialize loads persisted entries; called once at startup
	Initialize(ctx context.Context) error
	Get(ctx context.Context, key ImageCacheKey) (string, bool)
	// Put persists the entry and updates the fast tiers
	Put(ctx context.Context, entry ImageCacheEntry) error
}
