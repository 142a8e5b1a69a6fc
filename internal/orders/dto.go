package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// CreateOrderInput captures one checkout request. Either the user's selected
// cart entries (BuyNow empty) or an explicit buy-now item list is consumed.
type CreateOrderInput struct {
	UserID      uuid.UUID
	BuyNow      []BuyNowItem
	Shipping    ShippingInput
	DeliveryWay enums.DeliveryWay
	PayWay      enums.PayWay
}

// BuyNowItem is one explicit line on a buy-now checkout.
type BuyNowItem struct {
	ProductID      uuid.UUID
	SKUID          uuid.UUID
	Quantity       int
	Specifications *string
}

// ShippingInput is the address snapshot stored on the order.
type ShippingInput struct {
	ConsigneeName  string
	ConsigneePhone string
	Province       string
	City           string
	District       string
	Address        string
}

// Summary is one row of a user's order list.
type Summary struct {
	OrderNumber      string            `json:"order_number"`
	Status           enums.OrderStatus `json:"status"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	ItemCount        int               `json:"item_count"`
	FirstProductName string            `json:"first_product_name"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Detail is the full order view.
type Detail struct {
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	StatusReason    *string           `json:"status_reason,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	HasPremiumItem  bool              `json:"has_premium_item"`
	DeliveryWay     enums.DeliveryWay `json:"delivery_way"`
	PayWay          enums.PayWay      `json:"pay_way"`
	ConsigneeName   *string           `json:"consignee_name,omitempty"`
	ConsigneePhone  *string           `json:"consignee_phone,omitempty"`
	Province        string            `json:"province"`
	City            string            `json:"city"`
	District        string            `json:"district"`
	ShippingAddress *string           `json:"shipping_address,omitempty"`
	AutoRecvTime    time.Time         `json:"auto_recv_time"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []DetailItem      `json:"items"`
}

// DetailItem is one order line joined with its product name.
type DetailItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKUID       uuid.UUID       `json:"sku_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}
