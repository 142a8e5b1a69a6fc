package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// AccountFlow is an append-only ledger entry. Replaying every flow for an
// account in insertion order reproduces its current balance exactly.
type AccountFlow struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	AccountID    uuid.UUID         `gorm:"column:account_id;type:uuid;not null;index"`
	AccountType  enums.AccountType `gorm:"column:account_type;not null"`
	RelatedUser  *uuid.UUID        `gorm:"column:related_user;type:uuid;index"`
	OrderNumber  *string           `gorm:"column:order_number;index"`
	ChangeAmount decimal.Decimal   `gorm:"column:change_amount;type:numeric(14,2);not null"`
	BalanceAfter decimal.Decimal   `gorm:"column:balance_after;type:numeric(14,2);not null"`
	FlowType     enums.FlowType    `gorm:"column:flow_type;not null"`
	Remark       string            `gorm:"column:remark;not null;default:''"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}

func (f *AccountFlow) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (AccountFlow) TableName() string { return "account_flow" }
