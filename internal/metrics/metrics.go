package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeAccepted labels adjustments that were queued.
	OutcomeAccepted = "accepted"
	// OutcomeRejected labels adjustments refused by the rate limiter.
	OutcomeRejected = "rejected"
)

var (
	adjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "adjustments_total",
			Help:      "Adjustment requests partitioned by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	flushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "flushes_total",
			Help:      "Number of queue flushes committed to the meter value.",
		},
	)

	flushBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meterd",
			Name:      "flush_batch_size",
			Help:      "Queued adjustments coalesced into a single commit.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	meterValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meterd",
			Name:      "meter_value",
			Help:      "Current committed meter value.",
		},
	)

	historyLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meterd",
			Name:      "history_length",
			Help:      "Retained history events.",
		},
	)

	adjustLatencyP95 = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meterd",
			Name:      "adjust_latency_p95_seconds",
			Help:      "95th percentile latency of recent Adjust RPCs.",
		},
	)
)

// Register attaches meterd collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		adjustmentsTotal,
		flushesTotal,
		flushBatchSize,
		meterValue,
		historyLength,
		adjustLatencyP95,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAdjustment counts an adjustment request.
func ObserveAdjustment(adjustmentType, outcome string) {
	if outcome != OutcomeRejected {
		outcome = OutcomeAccepted
	}
	adjustmentsTotal.WithLabelValues(adjustmentType, outcome).Inc()
}

// ObserveFlush records one flush of batch queued adjustments.
func ObserveFlush(batch int) {
	flushesTotal.Inc()
	flushBatchSize.Observe(float64(batch))
}

// SetMeterValue publishes the committed value.
func SetMeterValue(v float64) {
	meterValue.Set(v)
}

// SetHistoryLength publishes the retained history size.
func SetHistoryLength(n int) {
	historyLength.Set(float64(n))
}

// SetAdjustLatencyP95 publishes the rolling p95 Adjust latency.
func SetAdjustLatencyP95(d time.Duration) {
	adjustLatencyP95.Set(d.Seconds())
}
