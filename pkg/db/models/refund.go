package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// Refund tracks one refund request per order. The unique index on
// order_number is what makes a second apply fail fast.
type Refund struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber  string             `gorm:"column:order_number;not null;uniqueIndex:uk_refunds_order_number"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	RefundType   enums.RefundType   `gorm:"column:refund_type;not null"`
	Amount       decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason       string             `gorm:"column:reason;not null;default:''"`
	Status       enums.RefundStatus `gorm:"column:status;not null;default:'applied';index"`
	RejectReason *string            `gorm:"column:reject_reason"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
