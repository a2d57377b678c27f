package insight

import (
	"fmt"

	"sysinsight/internal/metrics"
)

// criticalMultiplier escalates a threshold insight once the reading
// passes threshold times this factor.
const criticalMultiplier = 1.15

// severityFor grades a reading that already passed its threshold.
func severityFor(value, threshold float64) metrics.Severity {
	if value > threshold*criticalMultiplier {
		return metrics.SeverityCritical
	}
	return metrics.SeverityWarning
}

// ruleConfidence grows with overshoot: 0.6 at the threshold, 1.0 at 40%
// past it.
func ruleConfidence(value, threshold float64) float64 {
	if threshold <= 0 {
		return 0.5
	}
	conf := 0.6 + (value/threshold - 1)
	switch {
	case conf > 1:
		return 1
	case conf < 0.5:
		return 0.5
	default:
		return conf
	}
}

// evaluateRules checks a snapshot against every configured threshold.
// Missing readings (zero memory total, absent temperature sensor)
// evaluate as not triggered, never as an error.
func evaluateRules(snap metrics.Snapshot, config EngineConfig) []metrics.Insight {
	var out []metrics.Insight

	// CPU
	if snap.CPUUsagePercent > config.CPUThresholdPercent {
		out = append(out, metrics.Insight{
			ID:             metrics.InsightID(metrics.CategoryCPU, "cpu-saturation"),
			Title:          "CPU Saturation",
			Category:       metrics.CategoryCPU,
			Severity:       severityFor(snap.CPUUsagePercent, config.CPUThresholdPercent),
			Description:    fmt.Sprintf("CPU usage is at %.1f%%, above the configured %.0f%% threshold.", snap.CPUUsagePercent, config.CPUThresholdPercent),
			Symptom:        fmt.Sprintf("Sustained CPU usage of %.1f%%", snap.CPUUsagePercent),
			RootCause:      "Compute-heavy processes are saturating the available cores",
			Counterfactual: "Pausing or deprioritizing the heaviest processes would bring usage back under the threshold",
			Confidence:     ruleConfidence(snap.CPUUsagePercent, config.CPUThresholdPercent),
			Metrics: &metrics.InsightMetrics{
				CurrentValue:   snap.CPUUsagePercent,
				ThresholdValue: config.CPUThresholdPercent,
				Unit:           "%",
			},
			SuggestedActions: []string{
				"Review the heaviest processes",
				"Pause background builds or containers",
			},
		})
	}

	// Memory (skip when the total is unknown)
	if snap.MemoryTotalBytes > 0 {
		used := snap.MemoryUsedPercent()
		if used > config.MemoryThresholdPercent {
			rootCause := "Resident working sets exceed comfortable headroom"
			if snap.SwapUsedBytes > 0 {
				rootCause = "Memory pressure has pushed pages out to swap"
			}
			out = append(out, metrics.Insight{
				ID:             metrics.InsightID(metrics.CategoryMemory, "memory-pressure"),
				Title:          "Memory Pressure",
				Category:       metrics.CategoryMemory,
				Severity:       severityFor(used, config.MemoryThresholdPercent),
				Description:    fmt.Sprintf("Memory usage is at %.1f%%, above the configured %.0f%% threshold.", used, config.MemoryThresholdPercent),
				Symptom:        fmt.Sprintf("%.1f%% of physical memory in use", used),
				RootCause:      rootCause,
				Counterfactual: "Closing unused applications would free enough memory to drop below the threshold",
				Confidence:     ruleConfidence(used, config.MemoryThresholdPercent),
				Metrics: &metrics.InsightMetrics{
					CurrentValue:   used,
					ThresholdValue: config.MemoryThresholdPercent,
					Unit:           "%",
				},
				SuggestedActions: []string{
					"Close unused applications",
					"Look for processes with steadily growing footprints",
				},
			})
		}
	}

	// GPU
	if snap.GPUUsagePercent > config.GPUThresholdPercent {
		out = append(out, metrics.Insight{
			ID:             metrics.InsightID(metrics.CategoryDevWorkload, "gpu-saturation"),
			Title:          "GPU Saturation",
			Category:       metrics.CategoryDevWorkload,
			Severity:       severityFor(snap.GPUUsagePercent, config.GPUThresholdPercent),
			Description:    fmt.Sprintf("GPU usage is at %.1f%%, above the configured %.0f%% threshold.", snap.GPUUsagePercent, config.GPUThresholdPercent),
			Symptom:        fmt.Sprintf("Sustained GPU usage of %.1f%%", snap.GPUUsagePercent),
			RootCause:      "GPU-accelerated workloads are saturating the graphics cores",
			Counterfactual: "Reducing rendering or compute workloads would bring GPU usage back under the threshold",
			Confidence:     ruleConfidence(snap.GPUUsagePercent, config.GPUThresholdPercent),
			Metrics: &metrics.InsightMetrics{
				CurrentValue:   snap.GPUUsagePercent,
				ThresholdValue: config.GPUThresholdPercent,
				Unit:           "%",
			},
			SuggestedActions: []string{
				"Reduce GPU-accelerated workloads",
				"Check for runaway rendering loops",
			},
		})
	}

	// Temperature (skip when no sensor reading is present)
	if snap.CPUTemperatureC > 0 && snap.CPUTemperatureC > config.TemperatureThresholdC {
		out = append(out, metrics.Insight{
			ID:             metrics.InsightID(metrics.CategoryThermal, "high-temperature"),
			Title:          "High CPU Temperature",
			Category:       metrics.CategoryThermal,
			Severity:       severityFor(snap.CPUTemperatureC, config.TemperatureThresholdC),
			Description:    fmt.Sprintf("CPU temperature is at %.1f°C, above the configured %.0f°C threshold.", snap.CPUTemperatureC, config.TemperatureThresholdC),
			Symptom:        fmt.Sprintf("CPU die temperature of %.1f°C", snap.CPUTemperatureC),
			RootCause:      "Heat is building up faster than the cooling system removes it",
			Counterfactual: "Improving airflow or reducing sustained load would let the CPU cool below the threshold",
			Confidence:     ruleConfidence(snap.CPUTemperatureC, config.TemperatureThresholdC),
			Metrics: &metrics.InsightMetrics{
				CurrentValue:   snap.CPUTemperatureC,
				ThresholdValue: config.TemperatureThresholdC,
				Unit:           "°C",
			},
			SuggestedActions: []string{
				"Check fans and vents for obstructions",
				"Reduce sustained compute load",
			},
		})
	}

	return out
}
