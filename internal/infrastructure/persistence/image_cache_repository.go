package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormImageCacheRepository implements integration.ImageCacheRepository using GORM
type GormImageCacheRepository struct {
	db *gorm.DB
}

// NewGormImageCacheRepository creates a new GormImageCacheRepository
func NewGormImageCacheRepository(db *gorm.DB) *GormImageCacheRepository {
	return &GormImageCacheRepository{db: db}
}

// FindAll returns every persisted entry
func (r *GormImageCacheRepository) FindAll(ctx context.Context) ([]integration.ImageCacheEntry, error) {
	var rows []models.ImageCacheEntryModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]integration.ImageCacheEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Upsert writes the entry keyed by (content hash, use case)
func (r *GormImageCacheRepository) Upsert(ctx context.Context, entry *integration.ImageCacheEntry) error {
	if err := entry.Key.Validate(); err != nil {
		return err
	}
	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = time.Now()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_hash"}, {Name: "use_case"}},
			DoUpdates: clause.AssignmentColumns([]string{"image_path", "uri", "last_updated"}),
		}).
		Create(models.ImageCacheEntryModelFromDomain(entry)).Error
}

var _ integration.ImageCacheRepository = (*GormImageCacheRepository)(nil)
