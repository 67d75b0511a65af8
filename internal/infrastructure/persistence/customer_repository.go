package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements integration.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByName finds the oldest customer with the exact name; nil, nil when none
func (r *GormCustomerRepository) FindByName(ctx context.Context, name string) (*integration.Customer, error) {
	var model models.CustomerModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *integration.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	customer.ID = model.ID
	return nil
}

var _ integration.CustomerRepository = (*GormCustomerRepository)(nil)
