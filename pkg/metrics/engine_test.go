package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg)
	metrics.IncAdjustment("decrease", "success")
	metrics.IncRedemption("conflict")
	metrics.IncRetry("adjust_stock")
	metrics.ObserveDuration("adjust_stock", 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_adjustments_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch adjustments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected adjustments=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "promo_redemptions_total", "outcome", "conflict"); err != nil {
		t.Fatalf("fetch redemptions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected redemptions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "write_conflict_retries_total", "operation", "adjust_stock"); err != nil {
		t.Fatalf("fetch retries: %v", err)
	} else if got != 1 {
		t.Fatalf("expected retries=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "engine_operation_duration_seconds", "operation", "adjust_stock"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestEngineMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewEngineMetrics(nil)
	metrics.IncAdjustment("increase", "success")
	metrics.IncRedemption("success")
	metrics.IncRetry("redeem")
	metrics.ObserveDuration("redeem", time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
