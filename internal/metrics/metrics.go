package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

const (
	ResultSuccess   = "success"
	ResultRecovered = "recovered"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

var (
	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})

	CartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"operation"})

	InvoiceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoiced_amount_total",
		Help:      "Sum of all invoice totals.",
	})

	StoreWrites = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_write_duration_seconds",
		Help:      "Whole-document write latency by backend and collection.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "collection"})
)
