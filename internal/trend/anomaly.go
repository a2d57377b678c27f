package trend

import (
	"math"
	"time"

	"sysinsight/internal/metrics"
)

// MetricType identifies which snapshot field a series was built from.
type MetricType string

const (
	MetricCPU         MetricType = "cpu"
	MetricMemory      MetricType = "memory"
	MetricGPU         MetricType = "gpu"
	MetricTemperature MetricType = "temperature"
)

// Range is the expected value band for a sample.
type Range struct {
	Min float64
	Max float64
}

// MetricSample is one point of a single-metric series, ascending by time.
type MetricSample struct {
	Timestamp time.Time
	Value     float64
}

// TrendAnomaly flags a sample that fell outside its expected range.
// The set is recomputed fresh on every analysis pass.
type TrendAnomaly struct {
	Date          time.Time
	MetricType    MetricType
	ObservedValue float64
	ExpectedRange Range
	Severity      metrics.Severity
}

// anomalyMinBaseline is the fewest preceding samples that make an
// expected range meaningful.
const anomalyMinBaseline = 3

// DetectAnomalies scans a time-ordered series and flags samples outside
// [mean - k*stddev, mean + k*stddev], where mean and stddev come from up
// to window preceding samples. Judging each sample against its own past
// keeps an outlier from widening the very band that should catch it.
//
// Severity is warning once outside the band and critical when the
// deviation exceeds twice the band width. A flat baseline (zero stddev)
// yields no anomalies rather than a division by zero.
func DetectAnomalies(metric MetricType, samples []MetricSample, window int, multiplier float64) []TrendAnomaly {
	if window < anomalyMinBaseline || multiplier <= 0 {
		return nil
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}

	out := make([]TrendAnomaly, 0)
	for i := anomalyMinBaseline; i < len(samples); i++ {
		start := i - window
		if start < 0 {
			start = 0
		}
		base := values[start:i]

		mu := mean(base)
		sigma := stddev(base, mu)
		if sigma <= 0 {
			continue
		}

		lo := mu - multiplier*sigma
		hi := mu + multiplier*sigma
		v := values[i]
		if v >= lo && v <= hi {
			continue
		}

		sev := metrics.SeverityWarning
		if math.Abs(v-mu) > 2*multiplier*sigma {
			sev = metrics.SeverityCritical
		}

		out = append(out, TrendAnomaly{
			Date:          samples[i].Timestamp,
			MetricType:    metric,
			ObservedValue: v,
			ExpectedRange: Range{Min: lo, Max: hi},
			Severity:      sev,
		})
	}
	return out
}
