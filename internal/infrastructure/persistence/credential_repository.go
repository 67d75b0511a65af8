package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormCredentialRepository implements integration.CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByShop finds the credential of a shop
func (r *GormCredentialRepository) FindByShop(ctx context.Context, shopName string) (*integration.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).Where("shop_name = ?", shopName).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every stored credential ordered by shop name
func (r *GormCredentialRepository) FindAll(ctx context.Context) ([]integration.Credential, error) {
	var rows []models.CredentialModel
	if err := r.db.WithContext(ctx).Order("shop_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	creds := make([]integration.Credential, len(rows))
	for i := range rows {
		creds[i] = *rows[i].ToDomain()
	}
	return creds, nil
}

// Save upserts the credential by shop name
func (r *GormCredentialRepository) Save(ctx context.Context, cred *integration.Credential) error {
	model := models.CredentialModelFromDomain(cred)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"marketplace", "app_key", "app_secret",
				"access_token", "access_token_expiry",
				"refresh_token", "refresh_token_expiry",
				"last_refreshed_at", "default_warehouse", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if cred.ID == uuid.Nil {
		cred.ID = model.ID
	}
	return nil
}

var _ integration.CredentialRepository = (*GormCredentialRepository)(nil)
