package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ImpressionsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abtest_impressions_recorded_total",
		Help: "Total impressions recorded across all variants",
	})

	ConversionsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abtest_conversions_recorded_total",
		Help: "Total conversions recorded across all variants",
	})

	ConversionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abtest_conversions_rejected_total",
		Help: "Conversion events rejected for lack of a matching open impression",
	})

	ResultsDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "abtest_results_latency_seconds",
		Help:    "Latency of the test results aggregation endpoint",
		Buckets: prometheus.DefBuckets,
	})
)

func Init() {
	prometheus.MustRegister(
		ImpressionsRecorded,
		ConversionsRecorded,
		ConversionsRejected,
		ResultsDuration,
	)
}
