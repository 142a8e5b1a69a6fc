package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog entry referenced by cart entries and order lines.
// IsPremium flags items that route an order through the premium split table.
type Product struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID *uuid.UUID `gorm:"column:merchant_id;type:uuid;index"`
	Name       string     `gorm:"column:name;not null"`
	Category   string     `gorm:"column:category;not null;default:''"`
	IsPremium  bool       `gorm:"column:is_premium;not null;default:false"`
	Status     string     `gorm:"column:status;not null;default:'on_sale'"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
