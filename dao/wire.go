package dao

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewCreditDAO,
	NewSequenceDAO,
	NewCouponDAO,
	NewBatchDAO,
	NewScanDAO,
)
