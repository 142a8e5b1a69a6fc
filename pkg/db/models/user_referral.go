package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserReferral links a user to their direct referrer. Walking the chain
// upward yields the reward layers for an order.
type UserReferral struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uk_user_referrals_user"`
	ReferrerID uuid.UUID `gorm:"column:referrer_id;type:uuid;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *UserReferral) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
