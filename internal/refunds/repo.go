package refunds

import (
	"context"

	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Repository manages refund request rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, refund *models.Refund) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Refund, error)
	// TransitionStatus moves the refund out of one of the from statuses. It
	// returns false when the row is no longer in any of them.
	TransitionStatus(ctx context.Context, orderNumber string, from []enums.RefundStatus, to enums.RefundStatus, rejectReason *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a refunds repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Refund, error) {
	var refund models.Refund
	err := r.db.WithContext(ctx).First(&refund, "order_number = ?", orderNumber).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.New(apperrors.CodeNotFound, "refund not found")
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) TransitionStatus(ctx context.Context, orderNumber string, from []enums.RefundStatus, to enums.RefundStatus, rejectReason *string) (bool, error) {
	updates := map[string]any{"status": to}
	if rejectReason != nil {
		updates["reject_reason"] = *rejectReason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("order_number = ? AND status IN ?", orderNumber, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
