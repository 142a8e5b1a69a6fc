package enums

// RewardType distinguishes direct referral commission from team commission.
type RewardType string

const (
	RewardTypeReferral RewardType = "referral"
	RewardTypeTeam     RewardType = "team"
)

// RewardStatus tracks a pending reward through the downstream settlement pass.
type RewardStatus string

const (
	RewardStatusPending  RewardStatus = "pending"
	RewardStatusApproved RewardStatus = "approved"
	RewardStatusRejected RewardStatus = "rejected"
)

// DividendStatus tracks a director dividend payout record.
type DividendStatus string

const (
	DividendStatusPending DividendStatus = "pending"
	DividendStatusPaid    DividendStatus = "paid"
)
