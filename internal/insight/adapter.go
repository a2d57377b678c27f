package insight

import (
	"time"

	"sysinsight/internal/metrics"
	"sysinsight/internal/trend"
)

// LeakInsights converts memory-leak suspects from trend analysis into
// insights suitable as Evaluate extras. The deterministic id means a
// suspect re-detected on the next analysis pass refreshes the active
// insight instead of duplicating it.
func LeakInsights(suspects []trend.MemoryLeakSuspect) []metrics.Insight {
	out := make([]metrics.Insight, 0, len(suspects))
	for _, s := range suspects {
		out = append(out, metrics.Insight{
			ID:             metrics.InsightID(metrics.CategoryMemory, "memory-leak"),
			Title:          "Possible Memory Leak",
			Category:       metrics.CategoryMemory,
			Severity:       metrics.SeverityWarning,
			Timestamp:      time.Now(),
			Description:    s.Description,
			Symptom:        s.Description,
			RootCause:      "A process keeps holding memory it no longer uses",
			Counterfactual: "Restarting the offending process would flatten the growth curve",
			Confidence:     s.Confidence,
			Metrics: &metrics.InsightMetrics{
				CurrentValue: s.GrowthRatePerDay * 100,
				Unit:         "%/day",
			},
			SuggestedActions: []string{
				"Watch per-process memory over a few hours",
				"Restart long-running processes with growing footprints",
			},
		})
	}
	return out
}
