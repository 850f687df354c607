package server

import (
	"Rewards/handler"
)

type Handlers struct {
	Coupon *handler.Coupon
	Scan   *handler.Scan
	Credit *handler.Credit
}
