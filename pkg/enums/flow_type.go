package enums

// FlowType classifies an account flow entry.
type FlowType string

const (
	FlowTypeOrderSplit      FlowType = "order_split"
	FlowTypeRefundReversal  FlowType = "refund_reversal"
	FlowTypeOrderSettlement FlowType = "order_settlement"
)

var validFlowTypes = []FlowType{
	FlowTypeOrderSplit,
	FlowTypeRefundReversal,
	FlowTypeOrderSettlement,
}

// IsValid reports whether the value matches the canonical flow type enum.
func (t FlowType) IsValid() bool {
	for _, candidate := range validFlowTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
