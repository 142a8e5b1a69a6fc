package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// PendingReward is a referral reward accrued at split time and held until the
// payout job approves or the refund path rejects it.
type PendingReward struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber string             `gorm:"column:order_number;not null;index"`
	RewardType  enums.RewardType   `gorm:"column:reward_type;not null"`
	Layer       int                `gorm:"column:layer;not null;default:1"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.RewardStatus `gorm:"column:status;not null;default:'pending';index"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *PendingReward) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
