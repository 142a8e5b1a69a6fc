package enums

import "fmt"

// DeliveryWay selects between platform delivery and in-person pickup.
type DeliveryWay string

const (
	DeliveryWayPlatform DeliveryWay = "platform"
	DeliveryWayPickup   DeliveryWay = "pickup"
)

var validDeliveryWays = []DeliveryWay{DeliveryWayPlatform, DeliveryWayPickup}

// IsValid reports whether the value matches the canonical delivery way enum.
func (d DeliveryWay) IsValid() bool {
	for _, candidate := range validDeliveryWays {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryWay converts raw input into DeliveryWay.
func ParseDeliveryWay(value string) (DeliveryWay, error) {
	for _, candidate := range validDeliveryWays {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery way %q", value)
}
