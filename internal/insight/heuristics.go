package insight

import (
	"fmt"
	"math"
	"time"

	"sysinsight/internal/metrics"
	"sysinsight/internal/trend"
)

// Heuristic tuning. These are fixed behavioral constants, not user
// configuration; the thresholds users tune live in EngineConfig.
const (
	throttleFreqMargin = 0.10 // frequency deficit before throttling is suspected
	throttleWarmC      = 70.0 // die temperature that counts as warm

	imbalanceEBusyPct = 70.0 // efficiency cores considered busy
	imbalancePIdlePct = 30.0 // performance cores considered idle
	imbalancePSatPct  = 85.0 // performance cores considered saturated
	imbalanceEIdlePct = 25.0 // efficiency cores considered idle

	forecastWindow  = 5     // temperature samples fitted for the forecast
	forecastRisingC = 1.5   // degrees per sample considered rising fast
	forecastLimitC  = 100.0 // ceiling used to project the throttling point
)

// =============================================================================
// SILENT THROTTLING
// =============================================================================

// DetectSilentThrottling reports a throttling insight when the CPU
// clock sits more than the margin below its base frequency while the
// die is warm. Missing readings (zero frequency) yield nil.
func DetectSilentThrottling(currentFreqMHz, baseFreqMHz, temperatureC float64) *metrics.Insight {
	if currentFreqMHz <= 0 || baseFreqMHz <= 0 {
		return nil
	}
	if temperatureC < throttleWarmC {
		return nil
	}
	floor := baseFreqMHz * (1 - throttleFreqMargin)
	if currentFreqMHz >= floor {
		return nil
	}

	deficit := 1 - currentFreqMHz/baseFreqMHz
	confidence := deficit / 0.30
	if confidence > 1 {
		confidence = 1
	}
	severity := metrics.SeverityWarning
	if deficit >= 0.25 {
		severity = metrics.SeverityCritical
	}

	return &metrics.Insight{
		ID:        metrics.InsightID(metrics.CategoryThermal, "silent-throttling"),
		Title:     "Silent CPU Throttling",
		Category:  metrics.CategoryThermal,
		Severity:  severity,
		Timestamp: time.Now(),
		Description: fmt.Sprintf("The CPU is running at %.0f MHz, %.0f%% below its %.0f MHz base clock, while the die is at %.1f°C.",
			currentFreqMHz, deficit*100, baseFreqMHz, temperatureC),
		Symptom:        fmt.Sprintf("Clock speed %.0f MHz against a %.0f MHz base", currentFreqMHz, baseFreqMHz),
		RootCause:      "Thermal management is quietly lowering the clock to shed heat",
		Counterfactual: "With better cooling or a lighter sustained load the CPU would hold its base clock",
		Confidence:     confidence,
		Metrics: &metrics.InsightMetrics{
			CurrentValue:   currentFreqMHz,
			ThresholdValue: floor,
			Unit:           "MHz",
		},
		SuggestedActions: []string{
			"Improve airflow around the machine",
			"Spread sustained workloads out over time",
		},
	}
}

// =============================================================================
// CORE IMBALANCE
// =============================================================================

// DetectCoreImbalance compares average load on performance versus
// efficiency cores and reports when work looks misrouted in either
// direction. Empty core sets yield nil.
func DetectCoreImbalance(pCoreUsage, eCoreUsage []float64, threadCount int) *metrics.Insight {
	if len(pCoreUsage) == 0 || len(eCoreUsage) == 0 {
		return nil
	}
	avgP := avgOf(pCoreUsage)
	avgE := avgOf(eCoreUsage)

	var symptom, rootCause, counterfactual string
	var actions []string
	var gap float64

	switch {
	case avgP < imbalancePIdlePct && avgE > imbalanceEBusyPct:
		gap = avgE - avgP
		symptom = fmt.Sprintf("Efficiency cores at %.0f%% while performance cores sit at %.0f%%", avgE, avgP)
		rootCause = "Background-quality scheduling is keeping heavy work on efficiency cores"
		counterfactual = "Raising the workload's priority would move it onto performance cores"
		actions = []string{
			"Check the QoS class of the heaviest processes",
			"Run latency-sensitive work in the foreground",
		}
	case avgP > imbalancePSatPct && avgE < imbalanceEIdlePct:
		gap = avgP - avgE
		symptom = fmt.Sprintf("Performance cores at %.0f%% while efficiency cores idle at %.0f%%", avgP, avgE)
		rootCause = "The workload runs on too few threads to spill over to efficiency cores"
		if threadCount > 0 && threadCount <= len(pCoreUsage) {
			rootCause = fmt.Sprintf("Only %d runnable threads, so work cannot spill over to efficiency cores", threadCount)
		}
		counterfactual = "Splitting the workload across more threads would engage the idle cores"
		actions = []string{
			"Parallelize the heavy workload",
			"Let the scheduler rebalance by lowering per-thread affinity",
		}
	default:
		return nil
	}

	confidence := 0.4 + gap/100
	if confidence > 1 {
		confidence = 1
	}

	return &metrics.Insight{
		ID:             metrics.InsightID(metrics.CategoryCPU, "core-imbalance"),
		Title:          "Core Load Imbalance",
		Category:       metrics.CategoryCPU,
		Severity:       metrics.SeverityInfo,
		Timestamp:      time.Now(),
		Description:    symptom + ".",
		Symptom:        symptom,
		RootCause:      rootCause,
		Counterfactual: counterfactual,
		Confidence:     confidence,
		Metrics: &metrics.InsightMetrics{
			CurrentValue:   gap,
			ThresholdValue: imbalanceEBusyPct - imbalancePIdlePct,
			Unit:           "points",
		},
		SuggestedActions: actions,
	}
}

// =============================================================================
// THROTTLE FORECAST
// =============================================================================

// ForecastThrottle fits the last few temperature readings and warns
// when the die is heating fast enough to reach the throttling point.
// Confidence reflects how many consecutive readings confirm the climb.
func ForecastThrottle(currentTempC float64, tempHistory []float64) *metrics.Insight {
	if currentTempC <= 0 || len(tempHistory) < forecastWindow-1 {
		return nil
	}

	tail := tempHistory[len(tempHistory)-(forecastWindow-1):]
	series := append(append([]float64{}, tail...), currentTempC)
	slope, _, _ := trend.LinearFit(series)
	if slope < forecastRisingC {
		return nil
	}

	rising := 0
	for i := len(series) - 1; i > 0; i-- {
		if series[i] <= series[i-1] {
			break
		}
		rising++
	}
	confidence := float64(rising) / float64(forecastWindow-1)
	if confidence > 1 {
		confidence = 1
	}

	description := fmt.Sprintf("CPU temperature is climbing about %.1f°C per reading (now %.1f°C).", slope, currentTempC)
	if remaining := forecastLimitC - currentTempC; remaining > 0 {
		description = fmt.Sprintf("%s At this rate it reaches the %.0f°C throttling point in roughly %d readings.",
			description, forecastLimitC, int(math.Ceil(remaining/slope)))
	}

	return &metrics.Insight{
		ID:             metrics.InsightID(metrics.CategoryThermal, "throttle-forecast"),
		Title:          "Thermal Throttling Ahead",
		Category:       metrics.CategoryThermal,
		Severity:       metrics.SeverityWarning,
		Timestamp:      time.Now(),
		Description:    description,
		Symptom:        fmt.Sprintf("Temperature rising %.1f°C per reading", slope),
		RootCause:      "Sustained load is adding heat faster than the cooling system removes it",
		Counterfactual: "Easing the load now would level the temperature before throttling begins",
		Confidence:     confidence,
		Metrics: &metrics.InsightMetrics{
			CurrentValue:   slope,
			ThresholdValue: forecastRisingC,
			Unit:           "°C/sample",
		},
		SuggestedActions: []string{
			"Pause or stagger heavy jobs",
			"Check that fans are responding",
		},
	}
}

func avgOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
