package enums

import "fmt"

// RefundStatus tracks a refund application from apply to audit.
type RefundStatus string

const (
	RefundStatusApplied  RefundStatus = "applied"
	RefundStatusSellerOK RefundStatus = "seller_ok"
	RefundStatusSuccess  RefundStatus = "success"
	RefundStatusRejected RefundStatus = "rejected"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusApplied,
	RefundStatusSellerOK,
	RefundStatusSuccess,
	RefundStatusRejected,
}

// IsValid reports whether the value matches the canonical refund status enum.
func (s RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// RefundType distinguishes a full return from a money-only refund.
type RefundType string

const (
	RefundTypeReturn     RefundType = "return"
	RefundTypeRefundOnly RefundType = "refund_only"
)

var validRefundTypes = []RefundType{RefundTypeReturn, RefundTypeRefundOnly}

// IsValid reports whether the value matches the canonical refund type enum.
func (t RefundType) IsValid() bool {
	for _, candidate := range validRefundTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRefundType converts raw input into RefundType.
func ParseRefundType(value string) (RefundType, error) {
	for _, candidate := range validRefundTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund type %q", value)
}
