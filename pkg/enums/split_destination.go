package enums

// SplitDestination marks whether a split row routes to the merchant or a pool.
type SplitDestination string

const (
	SplitDestinationMerchant SplitDestination = "merchant"
	SplitDestinationPool     SplitDestination = "pool"
)

// IsValid reports whether the value matches the canonical destination enum.
func (d SplitDestination) IsValid() bool {
	return d == SplitDestinationMerchant || d == SplitDestinationPool
}
