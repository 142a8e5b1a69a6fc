package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Repository manages persistence for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// TransitionStatus performs a guarded update: the row only changes if it
	// is still in the from status. Returns false when another writer got there
	// first.
	TransitionStatus(ctx context.Context, orderNumber string, from, to enums.OrderStatus, reason *string) (bool, error)
	SetPayWay(ctx context.Context, orderNumber string, payWay enums.PayWay) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.Order, error)
	ListPendingReceiveBefore(ctx context.Context, deadline time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_number = ?", orderNumber).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) TransitionStatus(ctx context.Context, orderNumber string, from, to enums.OrderStatus, reason *string) (bool, error) {
	updates := map[string]any{"status": to}
	if reason != nil {
		updates["status_reason"] = *reason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ? AND status = ?", orderNumber, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SetPayWay(ctx context.Context, orderNumber string, payWay enums.PayWay) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Update("pay_way", payWay).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Order
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListPendingReceiveBefore(ctx context.Context, deadline time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND auto_recv_time <= ?", enums.OrderStatusPendingRecv, deadline).
		Order("auto_recv_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Order
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
