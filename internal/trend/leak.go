package trend

import "fmt"

// MemoryLeakSuspect describes a sustained, near-monotonic upward trend
// in memory usage.
type MemoryLeakSuspect struct {
	Description      string
	GrowthRatePerDay float64 // Fitted slope relative to the window's mean usage
	Confidence       float64 // Fit quality (R squared), within [0, 1]
}

// DetectMemoryLeak fits a least-squares line through day-ordered daily
// memory averages (used percent). Fewer points than minPoints, a slope
// at or below zero or under minSlope, a weak fit, or an all-zero series
// all yield no suspect rather than a low-confidence one.
func DetectMemoryLeak(dailyAvg []float64, minPoints int, minSlope, minR2 float64) *MemoryLeakSuspect {
	if minPoints < 2 {
		minPoints = 2
	}
	if len(dailyAvg) < minPoints {
		return nil
	}

	slope, _, r2 := LinearFit(dailyAvg)
	if slope <= 0 || slope < minSlope || r2 < minR2 {
		return nil
	}

	avg := mean(dailyAvg)
	if avg <= 0 {
		return nil
	}
	if r2 > 1 {
		r2 = 1
	}

	return &MemoryLeakSuspect{
		Description: fmt.Sprintf("Daily average memory usage rose %.2f points/day over the last %d days",
			slope, len(dailyAvg)),
		GrowthRatePerDay: slope / avg,
		Confidence:       r2,
	}
}
