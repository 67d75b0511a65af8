package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormSalesOrderRepository implements integration.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByMarketplaceOrderID loads an order with its lines
func (r *GormSalesOrderRepository) FindByMarketplaceOrderID(ctx context.Context, marketplace integration.MarketplaceCode, orderID string) (*integration.SalesOrder, error) {
	var model models.SalesOrderModel
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("marketplace = ? AND marketplace_order_id = ?", marketplace, orderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the order with its lines in one transaction
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *integration.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	}); err != nil {
		return err
	}
	order.ID = model.ID
	return nil
}

// Update writes status, payment, notification and note columns; lines are immutable
func (r *GormSalesOrderRepository) Update(ctx context.Context, order *integration.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("id = ?", order.ID).
		Select("marketplace_status", "status_updated_at", "notified_at", "payment_status", "notes", "updated_at").
		Updates(&models.SalesOrderModel{
			BaseModel:         models.BaseModel{UpdatedAt: model.UpdatedAt},
			MarketplaceStatus: model.MarketplaceStatus,
			StatusUpdatedAt:   model.StatusUpdatedAt,
			NotifiedAt:        model.NotifiedAt,
			PaymentStatus:     model.PaymentStatus,
			Notes:             model.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", integration.ErrOrderNotFound, order.MarketplaceOrderID)
	}
	return nil
}

var _ integration.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
