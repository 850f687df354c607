package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	single := CalculateCost(CostInput{DiscountValue: 10, IsBatch: false, BatchQuantity: 99})
	assert.Equal(t, int64(10), single.Total)
	assert.Equal(t, int64(1), single.MinimumCost)
	assert.Equal(t, 1, single.Breakdown.Quantity)

	batch := CalculateCost(CostInput{DiscountValue: 10, IsBatch: true, BatchQuantity: 5})
	assert.Equal(t, int64(50), batch.Total)
	assert.Equal(t, int64(5), batch.MinimumCost)
	assert.Equal(t, int64(10), batch.Breakdown.PerCoupon)
}

func TestCalculateCost_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		in := CostInput{
			DiscountValue: r.Int63n(10000) + 1,
			IsBatch:       r.Intn(2) == 1,
			BatchQuantity: r.Intn(500) + 1,
		}
		got := CalculateCost(in)
		assert.Equal(t, got, CalculateCost(in))

		quantity := 1
		if in.IsBatch {
			quantity = in.BatchQuantity
		}
		assert.Equal(t, int64(quantity)*in.DiscountValue, got.Total)
		assert.Equal(t, int64(quantity), got.MinimumCost)
		assert.GreaterOrEqual(t, got.Total, got.MinimumCost)
	}
}
