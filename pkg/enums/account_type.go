package enums

import "fmt"

// AccountType names a finance account. Merchant settlement accounts exist per
// merchant; the pool accounts are fixed singletons.
type AccountType string

const (
	AccountTypeMerchantSettlement  AccountType = "merchant_settlement"
	AccountTypePlatformMaintenance AccountType = "platform_maintenance"
	AccountTypeSubsidyPool         AccountType = "subsidy_pool"
	AccountTypeDevelopmentFund     AccountType = "development_fund"
	AccountTypeCommunityTier1      AccountType = "community_tier1"
	AccountTypeCommunityTier2      AccountType = "community_tier2"
)

var validAccountTypes = []AccountType{
	AccountTypeMerchantSettlement,
	AccountTypePlatformMaintenance,
	AccountTypeSubsidyPool,
	AccountTypeDevelopmentFund,
	AccountTypeCommunityTier1,
	AccountTypeCommunityTier2,
}

// IsValid reports whether the value matches the canonical account type enum.
func (t AccountType) IsValid() bool {
	for _, candidate := range validAccountTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsPool reports whether the account is a fixed platform pool.
func (t AccountType) IsPool() bool {
	return t.IsValid() && t != AccountTypeMerchantSettlement
}

// ParseAccountType converts raw input into AccountType.
func ParseAccountType(value string) (AccountType, error) {
	for _, candidate := range validAccountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account type %q", value)
}
