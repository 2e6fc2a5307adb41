package multidraw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRowsRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multidraw",
		Name:      "rows_read_total",
		Help:      "Total number of rows read from the source.",
	})
	metricRowsPrescaled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multidraw",
		Name:      "rows_prescaled_total",
		Help:      "Total number of rows dropped by prescaling.",
	})
	metricRowsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multidraw",
		Name:      "rows_passed_total",
		Help:      "Total number of rows passing a selection.",
	}, []string{"selection"})
	metricPartitionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multidraw",
		Name:      "partitions_opened_total",
		Help:      "Total number of source partitions scanned.",
	})
	metricRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "multidraw",
		Name:      "run_duration_seconds",
		Help:      "Duration of draw runs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	})

	metricPassedBase = metricRowsPassed.WithLabelValues("base")
	metricPassedFull = metricRowsPassed.WithLabelValues("full")
)
