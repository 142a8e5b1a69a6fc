package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// DirectorDividend records one dividend per qualified user and period.
type DirectorDividend struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uk_dividend_user_period,priority:1"`
	Period    string               `gorm:"column:period;not null;uniqueIndex:uk_dividend_user_period,priority:2"`
	Amount    decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Status    enums.DividendStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *DirectorDividend) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
