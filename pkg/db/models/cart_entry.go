package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartEntry holds one (user, product) cart line. Quantity accumulates on
// repeated adds; Selected scopes which entries a checkout consumes.
type CartEntry struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uk_cart_user_product,priority:1"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uk_cart_user_product,priority:2"`
	SKUID          uuid.UUID `gorm:"column:sku_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null;default:1"`
	Selected       bool      `gorm:"column:selected;not null;default:true"`
	Specifications *string   `gorm:"column:specifications"`
	AddedAt        time.Time `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartEntry) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartEntry) TableName() string { return "cart_entries" }
