package service

// CostInput 计算券成本所需参数，数值合法性由调用方保证
type CostInput struct {
	DiscountValue int64
	IsBatch       bool
	BatchQuantity int
}

type CostBreakdown struct {
	Quantity      int   `json:"quantity"`
	DiscountValue int64 `json:"discount_value"`
	PerCoupon     int64 `json:"per_coupon"`
}

type Cost struct {
	Total       int64         `json:"total"`
	Breakdown   CostBreakdown `json:"breakdown"`
	MinimumCost int64         `json:"minimum_cost"`
}

// CalculateCost 每张券消耗等于面额的积分
func CalculateCost(in CostInput) Cost {
	quantity := 1
	if in.IsBatch {
		quantity = in.BatchQuantity
	}
	return Cost{
		Total: int64(quantity) * in.DiscountValue,
		Breakdown: CostBreakdown{
			Quantity:      quantity,
			DiscountValue: in.DiscountValue,
			PerCoupon:     in.DiscountValue,
		},
		MinimumCost: int64(quantity),
	}
}
