package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// 扫码核销结果分布
	ScanResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_scan_results_total",
			Help: "Total number of coupon scan attempts by result",
		},
		[]string{"status"},
	)

	// 积分变动金额，按流水类型
	CreditMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_credit_movements_total",
			Help: "Total credits moved through the ledger by transaction type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(ScanResults)
	prometheus.MustRegister(CreditMovements)
}
