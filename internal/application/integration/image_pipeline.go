package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/storage"
)

// ImagePipeline uploads item images to the marketplace, skipping images whose
// content was already uploaded for the same use case.
type ImagePipeline struct {
	source  storage.Fetcher
	cache   integration.ImageURICache
	gateway integration.MarketplaceGateway
	tempDir string
	logger  *zap.Logger
}

// NewImagePipeline creates an ImagePipeline that spools uploads through the OS temp dir
func NewImagePipeline(source storage.Fetcher, cache integration.ImageURICache, gateway integration.MarketplaceGateway, logger *zap.Logger) *ImagePipeline {
	return &ImagePipeline{
		source:  source,
		cache:   cache,
		gateway: gateway,
		logger:  logger.Named("image_pipeline"),
	}
}

// Upload returns the marketplace URI for the image at ref. The boolean is
// false when the image could not be read or uploaded; callers substitute
// their default image.
func (p *ImagePipeline) Upload(ctx context.Context, cred *integration.Credential, ref string, useCase integration.ImageUseCase) (string, bool) {
	if ref == "" {
		return "", false
	}
	log := p.logger.With(zap.String("image", ref), zap.String("use_case", string(useCase)))

	img, err := p.source.Fetch(ctx, ref)
	if err != nil {
		log.Warn("Failed to read image", zap.Error(err))
		return "", false
	}

	key := integration.ImageCacheKey{ContentHash: integration.HashImageContent(img.Content), UseCase: useCase}
	if uri, ok := p.cache.Get(ctx, key); ok {
		log.Debug("Image already uploaded", zap.String("uri", uri))
		return uri, true
	}

	uri, err := p.upload(ctx, cred, img, useCase)
	if err != nil {
		log.Warn("Failed to upload image", zap.Error(err))
		return "", false
	}

	entry := integration.ImageCacheEntry{Key: key, ImagePath: ref, URI: uri, LastUpdated: time.Now()}
	if err := p.cache.Put(ctx, entry); err != nil {
		// the upload succeeded, so the URI is still usable
		log.Warn("Failed to cache image URI", zap.Error(err))
	}
	return uri, true
}

// upload spools the image to a temp file that is always removed
func (p *ImagePipeline) upload(ctx context.Context, cred *integration.Credential, img *storage.Image, useCase integration.ImageUseCase) (string, error) {
	tmp, err := os.CreateTemp(p.tempDir, "marketplace-image-*"+filepath.Ext(img.Name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(img.Content); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind temp file: %w", err)
	}
	return p.gateway.UploadImage(ctx, cred, img.Name, tmp, useCase)
}
