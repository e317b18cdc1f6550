package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	CheckoutsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_created_total",
			Help: "Number of checkouts created",
		},
	)

	CheckoutsAbandoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_abandoned_total",
			Help: "Number of draft checkouts soft-deleted by their owner",
		},
	)

	CouponApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_applications_total",
			Help: "Coupon applications by result",
		},
		[]string{"result"},
	)

	GiftCardApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gift_card_applications_total",
			Help: "Gift card applications by result",
		},
		[]string{"result"},
	)

	TxRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_tx_retries_total",
			Help: "Transactions retried after a serialization failure or deadlock",
		},
	)

	PriceComputationTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_price_computation_seconds",
			Help:    "Time taken to compute a checkout price summary",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
)

func Register() {
	prometheus.MustRegister(
		CheckoutsCreated,
		CheckoutsAbandoned,
		CouponApplications,
		GiftCardApplications,
		TxRetries,
		PriceComputationTime,
	)
}

// ResultLabel maps an operation error onto the result label.
func ResultLabel(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return ResultSuccess
	case rejected(err):
		return ResultRejected
	default:
		return ResultError
	}
}
