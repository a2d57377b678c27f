package trend

import (
	"testing"
	"time"

	"sysinsight/internal/metrics"
)

// alternatingSeries builds n samples flipping between 40 and 60, one
// minute apart. Population mean 50, stddev 10 for even n.
func alternatingSeries(n int) []MetricSample {
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	out := make([]MetricSample, n)
	for i := range out {
		v := 40.0
		if i%2 == 1 {
			v = 60.0
		}
		out[i] = MetricSample{Timestamp: start.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return out
}

func withProbe(base []MetricSample, value float64) []MetricSample {
	last := base[len(base)-1].Timestamp
	return append(append([]MetricSample{}, base...),
		MetricSample{Timestamp: last.Add(time.Minute), Value: value})
}

func TestDetectAnomaliesBoundary(t *testing.T) {
	// 20 alternating samples: the probe is judged against mean 50,
	// stddev 10. With k=2 the expected range is [30, 70].
	base := alternatingSeries(20)

	tests := []struct {
		name     string
		probe    float64
		wantHits int
		wantSev  metrics.Severity
	}{
		{"just outside k stddev", 70.5, 1, metrics.SeverityWarning},
		{"just inside k stddev", 69.5, 0, 0},
		{"exactly at band edge", 70.0, 0, 0},
		{"below the band", 29.0, 1, metrics.SeverityWarning},
		{"at twice the band width", 90.0, 1, metrics.SeverityWarning},
		{"beyond twice the band width", 95.0, 1, metrics.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := withProbe(base, tt.probe)
			got := DetectAnomalies(MetricCPU, series, 50, 2.0)
			if len(got) != tt.wantHits {
				t.Fatalf("got %d anomalies, want %d", len(got), tt.wantHits)
			}
			if tt.wantHits == 0 {
				return
			}
			a := got[0]
			if a.Severity != tt.wantSev {
				t.Errorf("severity = %v, want %v", a.Severity, tt.wantSev)
			}
			if a.ObservedValue != tt.probe {
				t.Errorf("observed = %v, want %v", a.ObservedValue, tt.probe)
			}
			if a.MetricType != MetricCPU {
				t.Errorf("metric = %v, want %v", a.MetricType, MetricCPU)
			}
			if !a.Date.Equal(series[len(series)-1].Timestamp) {
				t.Errorf("date = %v, want probe timestamp %v", a.Date, series[len(series)-1].Timestamp)
			}
			if !almostEq(a.ExpectedRange.Min, 30, 1e-9) || !almostEq(a.ExpectedRange.Max, 70, 1e-9) {
				t.Errorf("expected range = [%v, %v], want [30, 70]", a.ExpectedRange.Min, a.ExpectedRange.Max)
			}
		})
	}
}

func TestDetectAnomaliesFlatBaseline(t *testing.T) {
	// Zero stddev: the band collapses, so detection skips rather than
	// divides by zero.
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	series := make([]MetricSample, 0, 11)
	for i := 0; i < 10; i++ {
		series = append(series, MetricSample{Timestamp: start.Add(time.Duration(i) * time.Minute), Value: 50})
	}
	series = append(series, MetricSample{Timestamp: start.Add(10 * time.Minute), Value: 95})

	if got := DetectAnomalies(MetricCPU, series, 50, 2.0); len(got) != 0 {
		t.Errorf("flat baseline produced %d anomalies, want 0", len(got))
	}
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	short := alternatingSeries(3)
	if got := DetectAnomalies(MetricCPU, short, 50, 2.0); len(got) != 0 {
		t.Errorf("3-sample series produced %d anomalies, want 0", len(got))
	}
	if got := DetectAnomalies(MetricCPU, nil, 50, 2.0); len(got) != 0 {
		t.Errorf("nil series produced %d anomalies, want 0", len(got))
	}
	if got := DetectAnomalies(MetricCPU, alternatingSeries(20), 2, 2.0); got != nil {
		t.Errorf("undersized window produced %v, want nil", got)
	}
	if got := DetectAnomalies(MetricCPU, alternatingSeries(20), 50, 0); got != nil {
		t.Errorf("zero multiplier produced %v, want nil", got)
	}
}

func TestDetectAnomaliesTrailingWindowOnly(t *testing.T) {
	// An old regime far from the recent one must not leak into the
	// window: with window 5, samples 50..59 see only nearby values.
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	series := make([]MetricSample, 0, 60)
	for i := 0; i < 30; i++ {
		v := 10.0
		if i%2 == 1 {
			v = 12.0
		}
		series = append(series, MetricSample{Timestamp: start.Add(time.Duration(i) * time.Minute), Value: v})
	}
	for i := 30; i < 60; i++ {
		v := 80.0
		if i%2 == 1 {
			v = 82.0
		}
		series = append(series, MetricSample{Timestamp: start.Add(time.Duration(i) * time.Minute), Value: v})
	}

	got := DetectAnomalies(MetricCPU, series, 5, 2.0)

	// The regime change itself is flagged, but once the window has
	// rolled past it the high plateau is the new normal.
	for _, a := range got {
		idx := int(a.Date.Sub(start) / time.Minute)
		if idx >= 40 {
			t.Errorf("sample %d flagged after the window rolled past the regime change: %+v", idx, a)
		}
	}
	if len(got) == 0 {
		t.Error("expected the regime change itself to be flagged")
	}
}
