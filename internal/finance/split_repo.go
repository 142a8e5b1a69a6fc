package finance

import (
	"context"

	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
)

// SplitRepository manages per-order split breakdown rows.
type SplitRepository interface {
	WithTx(tx *gorm.DB) SplitRepository
	CreateAll(ctx context.Context, splits []models.OrderSplit) error
	ListByOrderNumber(ctx context.Context, orderNumber string) ([]models.OrderSplit, error)
}

type splitRepository struct {
	db *gorm.DB
}

// NewSplitRepository returns a split repository bound to the provided database.
func NewSplitRepository(conn *gorm.DB) SplitRepository {
	return &splitRepository{db: conn}
}

func (r *splitRepository) WithTx(tx *gorm.DB) SplitRepository {
	if tx == nil {
		return r
	}
	return &splitRepository{db: tx}
}

func (r *splitRepository) CreateAll(ctx context.Context, splits []models.OrderSplit) error {
	if len(splits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&splits).Error
}

func (r *splitRepository) ListByOrderNumber(ctx context.Context, orderNumber string) ([]models.OrderSplit, error) {
	var splits []models.OrderSplit
	if err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at ASC").
		Find(&splits).Error; err != nil {
		return nil, err
	}
	return splits, nil
}
