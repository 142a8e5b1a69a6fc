package enums

import "fmt"

// PayWay identifies the external payment channel used to settle an order.
type PayWay string

const (
	PayWayAlipay   PayWay = "alipay"
	PayWayWechat   PayWay = "wechat"
	PayWayCard     PayWay = "card"
	PayWayWxPublic PayWay = "wx_pub"
	PayWayWxApp    PayWay = "wx_app"
)

var validPayWays = []PayWay{
	PayWayAlipay,
	PayWayWechat,
	PayWayCard,
	PayWayWxPublic,
	PayWayWxApp,
}

// IsValid reports whether the value matches the canonical pay way enum.
func (p PayWay) IsValid() bool {
	for _, candidate := range validPayWays {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayWay converts raw input into PayWay.
func ParsePayWay(value string) (PayWay, error) {
	for _, candidate := range validPayWays {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pay way %q", value)
}
