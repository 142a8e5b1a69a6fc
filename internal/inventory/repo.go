package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Repository guards SKU stock. Reserve must run inside the caller's order
// transaction so a failed order releases the stock with the rollback.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Reserve(ctx context.Context, skuID uuid.UUID, quantity int) error
	Release(ctx context.Context, skuID uuid.UUID, quantity int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Reserve decrements stock for one SKU. The decrement is a single conditional
// update so two concurrent orders can never both take the last unit. SKUs with
// NULL stock are not stock-tracked and always succeed.
func (r *repository) Reserve(ctx context.Context, skuID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var sku models.ProductSKU
	if err := r.db.WithContext(ctx).First(&sku, "id = ?", skuID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.New(apperrors.CodeNotFound, "sku not found")
		}
		return err
	}
	if sku.Stock == nil {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductSKU{}).
		Where("id = ? AND stock >= ?", skuID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"sku_id": skuID, "requested": quantity})
	}
	return nil
}

// Release returns previously reserved stock, e.g. when a return is approved.
// NULL-stock SKUs are untouched.
func (r *repository) Release(ctx context.Context, skuID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductSKU{}).
		Where("id = ? AND stock IS NOT NULL", skuID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
