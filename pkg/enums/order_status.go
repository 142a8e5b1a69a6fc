package enums

import "fmt"

// OrderStatus tracks an order through its lifecycle. Completed and Refund are
// terminal.
type OrderStatus string

const (
	OrderStatusPendingPay  OrderStatus = "pending_pay"
	OrderStatusPendingShip OrderStatus = "pending_ship"
	OrderStatusPendingRecv OrderStatus = "pending_recv"
	OrderStatusCompleted   OrderStatus = "completed"
	OrderStatusRefund      OrderStatus = "refund"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPay,
	OrderStatusPendingShip,
	OrderStatusPendingRecv,
	OrderStatusCompleted,
	OrderStatusRefund,
}

// forward transitions plus the refund branch out of any pre-terminal state
var allowedOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPay:  {OrderStatusPendingShip, OrderStatusRefund},
	OrderStatusPendingShip: {OrderStatusPendingRecv, OrderStatusRefund},
	OrderStatusPendingRecv: {OrderStatusCompleted, OrderStatusRefund},
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusRefund
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range allowedOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
