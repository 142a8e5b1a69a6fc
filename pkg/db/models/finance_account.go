package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// FinanceAccount is a named money pool. Merchant settlement accounts are
// keyed by merchant id; pool accounts use the zero merchant id so the
// composite unique index keeps them singletons. Balance is only ever mutated
// together with a matching AccountFlow row in the same transaction.
type FinanceAccount struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	AccountType enums.AccountType `gorm:"column:account_type;not null;uniqueIndex:uk_account_type_merchant,priority:1"`
	MerchantID  uuid.UUID         `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:uk_account_type_merchant,priority:2"`
	Balance     decimal.Decimal   `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *FinanceAccount) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
