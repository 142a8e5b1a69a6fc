package models

// All returns every model in migration-safe order.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&ProductSKU{},
		&CartEntry{},
		&Order{},
		&OrderItem{},
		&FinanceAccount{},
		&AccountFlow{},
		&OrderSplit{},
		&Refund{},
		&UserReferral{},
		&PendingReward{},
		&TeamReward{},
		&WeeklySubsidyRecord{},
		&DirectorDividend{},
	}
}
