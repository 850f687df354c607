package models

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&TenantCreditBalance{},
		&CreditTransaction{},
		&CouponSequence{},
		&CouponBatch{},
		&Coupon{},
		&Scan{},
	}
}
