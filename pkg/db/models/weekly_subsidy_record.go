package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeeklySubsidyRecord is a write-once payout marker. The unique index on
// (user_id, week_start) makes the weekly job idempotent across re-runs.
type WeeklySubsidyRecord struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uk_subsidy_user_week,priority:1"`
	WeekStart time.Time       `gorm:"column:week_start;not null;uniqueIndex:uk_subsidy_user_week,priority:2"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *WeeklySubsidyRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
