package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEnrichmentMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEnrichmentMetrics(reg)

	m.ObserveDuration("analysis", 300*time.Millisecond)
	m.IncSuccess("analysis")
	m.IncFailure("analysis")
	m.IncFallback("combinations")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "enrichment_success_total", "stage", "analysis"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "enrichment_failure_total", "stage", "analysis"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stylist_fallback_total", "kind", "combinations"); err != nil {
		t.Fatalf("fetch fallback: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fallback=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "enrichment_duration_seconds", "stage", "analysis"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var m *EnrichmentMetrics
	m.IncSuccess("analysis")
	m.IncFailure("analysis")
	m.IncFallback("x")
	m.ObserveDuration("analysis", time.Second)

	noop := NewEnrichmentMetrics(nil)
	noop.IncSuccess("analysis")
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
