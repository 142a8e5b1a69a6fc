package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// OrderSplit records one leg of an order's fund split. The rows for an order
// sum exactly to the order total and are the source of truth for reversal.
type OrderSplit struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string                 `gorm:"column:order_number;not null;index"`
	Destination enums.SplitDestination `gorm:"column:destination;not null"`
	PoolType    *enums.AccountType     `gorm:"column:pool_type"`
	MerchantID  *uuid.UUID             `gorm:"column:merchant_id;type:uuid"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (s *OrderSplit) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (OrderSplit) TableName() string { return "order_split" }
