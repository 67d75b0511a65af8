package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// categoryInsertBatchSize bounds the rows per INSERT when rebuilding a mirror
const categoryInsertBatchSize = 200

// GormCategoryRepository implements integration.CategoryRepository and
// integration.ItemGroupCategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// ReplaceMirror deletes every node of the marketplace and inserts nodes in one
// transaction. Default flags set by operators survive the rebuild when the
// flagged display name is still present.
func (r *GormCategoryRepository) ReplaceMirror(ctx context.Context, marketplace integration.MarketplaceCode, nodes []integration.CategoryNode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var defaults []string
		if err := tx.Model(&models.CategoryNodeModel{}).
			Where("marketplace = ? AND is_default = ?", marketplace, true).
			Pluck("display_name", &defaults).Error; err != nil {
			return err
		}
		keepDefault := make(map[string]struct{}, len(defaults))
		for _, name := range defaults {
			keepDefault[name] = struct{}{}
		}

		if err := tx.Where("marketplace = ?", marketplace).Delete(&models.CategoryNodeModel{}).Error; err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}

		rows := make([]*models.CategoryNodeModel, 0, len(nodes))
		for _, n := range nodes {
			row := models.CategoryNodeModelFromDomain(n)
			if _, ok := keepDefault[n.DisplayName]; ok {
				row.IsDefault = true
			}
			rows = append(rows, row)
		}
		return tx.CreateInBatches(rows, categoryInsertBatchSize).Error
	})
}

// FindByMarketplace returns every node of the marketplace ordered by display name
func (r *GormCategoryRepository) FindByMarketplace(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.CategoryNode, error) {
	var rows []models.CategoryNodeModel
	if err := r.db.WithContext(ctx).
		Where("marketplace = ?", marketplace).
		Order("display_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	nodes := make([]integration.CategoryNode, len(rows))
	for i := range rows {
		nodes[i] = rows[i].ToDomain()
	}
	return nodes, nil
}

// FindByDisplayName finds one node by its path qualified name
func (r *GormCategoryRepository) FindByDisplayName(ctx context.Context, marketplace integration.MarketplaceCode, displayName string) (*integration.CategoryNode, error) {
	return r.first(ctx, "marketplace = ? AND display_name = ?", marketplace, displayName)
}

// FindDefault finds the node flagged as the marketplace default
func (r *GormCategoryRepository) FindDefault(ctx context.Context, marketplace integration.MarketplaceCode) (*integration.CategoryNode, error) {
	return r.first(ctx, "marketplace = ? AND is_default = ?", marketplace, true)
}

// SetDefault flags one node as the marketplace default and clears the others
func (r *GormCategoryRepository) SetDefault(ctx context.Context, marketplace integration.MarketplaceCode, displayName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CategoryNodeModel{}).
			Where("marketplace = ?", marketplace).
			Update("is_default", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.CategoryNodeModel{}).
			Where("marketplace = ? AND display_name = ?", marketplace, displayName).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return integration.ErrCategoryNotFound
		}
		return nil
	})
}

// FindMapping finds the explicit category mapping of an item group
func (r *GormCategoryRepository) FindMapping(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (*integration.ItemGroupCategoryMapping, error) {
	var model models.ItemGroupCategoryMappingModel
	if err := r.db.WithContext(ctx).
		Where("item_group = ? AND marketplace = ?", itemGroup, marketplace).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCategoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormCategoryRepository) first(ctx context.Context, query string, args ...any) (*integration.CategoryNode, error) {
	var model models.CategoryNodeModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCategoryNotFound
		}
		return nil, err
	}
	node := model.ToDomain()
	return &node, nil
}

var (
	_ integration.CategoryRepository          = (*GormCategoryRepository)(nil)
	_ integration.ItemGroupCategoryRepository = (*GormCategoryRepository)(nil)
)
