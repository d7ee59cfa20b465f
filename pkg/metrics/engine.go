package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records outcomes of stock adjustments and promo redemptions.
type EngineMetrics struct {
	adjustments *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	retries     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Stock adjustment attempts by type and outcome.",
	}, []string{"type", "outcome"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_redemptions_total",
		Help: "Promo redemption attempts by outcome.",
	}, []string{"outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "write_conflict_retries_total",
		Help: "Optimistic write retries by operation.",
	}, []string{"operation"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_operation_duration_seconds",
		Help:    "Duration of engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(adjustments, redemptions, retries, duration)
	return &EngineMetrics{
		adjustments: adjustments,
		redemptions: redemptions,
		retries:     retries,
		duration:    duration,
	}
}

// IncAdjustment increments the adjustment counter for the given type and outcome.
func (e *EngineMetrics) IncAdjustment(adjustmentType, outcome string) {
	if e == nil || e.adjustments == nil {
		return
	}
	e.adjustments.WithLabelValues(normalizeLabel(adjustmentType), normalizeLabel(outcome)).Inc()
}

// IncRedemption increments the redemption counter for the given outcome.
func (e *EngineMetrics) IncRedemption(outcome string) {
	if e == nil || e.redemptions == nil {
		return
	}
	e.redemptions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRetry increments the conflict retry counter for the named operation.
func (e *EngineMetrics) IncRetry(operation string) {
	if e == nil || e.retries == nil {
		return
	}
	e.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveDuration records the duration for the named operation.
func (e *EngineMetrics) ObserveDuration(operation string, duration time.Duration) {
	if e == nil || e.duration == nil {
		return
	}
	e.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
