package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// Order is the durable order row. It is created once and mutated only via
// status transitions; the shipping fields are a point-in-time snapshot.
// Specifications and StatusReason are distinct columns on purpose: the first
// carries the buyer-supplied spec blob from creation, the second the free-text
// reason recorded alongside a status change.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex:uk_orders_order_number"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	MerchantID      uuid.UUID         `gorm:"column:merchant_id;type:uuid;not null"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending_pay';index"`
	HasPremiumItem  bool              `gorm:"column:has_premium_item;not null;default:false"`
	ConsigneeName   *string           `gorm:"column:consignee_name"`
	ConsigneePhone  *string           `gorm:"column:consignee_phone"`
	Province        string            `gorm:"column:province;not null;default:''"`
	City            string            `gorm:"column:city;not null;default:''"`
	District        string            `gorm:"column:district;not null;default:''"`
	ShippingAddress *string           `gorm:"column:shipping_address"`
	DeliveryWay     enums.DeliveryWay `gorm:"column:delivery_way;not null;default:'platform'"`
	PayWay          enums.PayWay      `gorm:"column:pay_way;not null;default:'wechat'"`
	Specifications  *string           `gorm:"column:specifications"`
	StatusReason    *string           `gorm:"column:status_reason"`
	AutoRecvTime    time.Time         `gorm:"column:auto_recv_time;not null;index"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
