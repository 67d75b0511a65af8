package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormInventoryRepository implements integration.StockRepository and
// integration.MaterialRequestRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// GetStockLevel returns the on-hand quantity; an unknown item or warehouse has zero stock
func (r *GormInventoryRepository) GetStockLevel(ctx context.Context, itemCode, warehouse string) (integration.StockLevel, error) {
	level := integration.StockLevel{ItemCode: itemCode, Warehouse: warehouse, ActualQty: decimal.Zero}

	var model models.StockLevelModel
	err := r.db.WithContext(ctx).
		Where("item_code = ? AND warehouse = ?", itemCode, warehouse).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return level, nil
		}
		return level, err
	}
	level.ActualQty = model.ActualQty
	return level, nil
}

// SetStockLevel writes the on-hand quantity of an item in a warehouse
func (r *GormInventoryRepository) SetStockLevel(ctx context.Context, level integration.StockLevel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_code"}, {Name: "warehouse"}},
			DoUpdates: clause.AssignmentColumns([]string{"actual_qty", "updated_at"}),
		}).
		Create(&models.StockLevelModel{
			ItemCode:  level.ItemCode,
			Warehouse: level.Warehouse,
			ActualQty: level.ActualQty,
		}).Error
}

// Create inserts a material request
func (r *GormInventoryRepository) Create(ctx context.Context, req *integration.MaterialRequest) error {
	model := models.MaterialRequestModelFromDomain(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	req.ID = model.ID
	return nil
}

// FindMaterialRequests returns the material requests raised for a sales order
func (r *GormInventoryRepository) FindMaterialRequests(ctx context.Context, salesOrderID uuid.UUID) ([]integration.MaterialRequest, error) {
	var rows []models.MaterialRequestModel
	if err := r.db.WithContext(ctx).
		Where("sales_order_id = ?", salesOrderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]integration.MaterialRequest, len(rows))
	for i, row := range rows {
		out[i] = integration.MaterialRequest{
			ID:           row.ID,
			Type:         row.Type,
			ItemCode:     row.ItemCode,
			Quantity:     row.Quantity,
			Warehouse:    row.Warehouse,
			SalesOrderID: row.SalesOrderID,
			ScheduleDate: row.ScheduleDate,
			CreatedAt:    row.CreatedAt,
		}
	}
	return out, nil
}

var (
	_ integration.StockRepository           = (*GormInventoryRepository)(nil)
	_ integration.MaterialRequestRepository = (*GormInventoryRepository)(nil)
)
