// Package trend turns stored snapshot history into usage summaries,
// recurring load patterns, statistical anomalies, and memory-leak
// suspects. Every computation degrades to an empty result when history
// is insufficient; absence of data is never an error.
package trend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sysinsight/internal/history"
	"sysinsight/internal/metrics"
)

// =============================================================================
// PERIODS
// =============================================================================

// Period selects the lookback window for usage summaries.
type Period int

const (
	PeriodHour Period = iota
	PeriodDay
	PeriodWeek
	PeriodMonth
)

func (p Period) String() string {
	switch p {
	case PeriodHour:
		return "hour"
	case PeriodDay:
		return "day"
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the period name so JSON consumers see "day" rather
// than an enum ordinal.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Duration returns the window length; a month is approximated as 30 days.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodHour:
		return time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Range returns the half-open [from, to) window ending at now.
func (p Period) Range(now time.Time) (from, to time.Time) {
	return now.Add(-p.Duration()), now
}

// ParsePeriod maps a period name to a Period. Unknown names fall back
// to day.
func ParsePeriod(s string) Period {
	switch s {
	case "hour":
		return PeriodHour
	case "week":
		return PeriodWeek
	case "month":
		return PeriodMonth
	default:
		return PeriodDay
	}
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// UsageSummary carries per-metric mean and maximum for a period.
// SampleCount is the number of underlying snapshots, not buckets.
type UsageSummary struct {
	Period         Period
	AvgCPU         float64
	MaxCPU         float64
	AvgMemory      float64
	MaxMemory      float64
	AvgGPU         float64
	MaxGPU         float64
	AvgTemperature float64
	MaxTemperature float64
	SampleCount    int64
}

// WeeklyPattern is the long-run average load for one weekday.
type WeeklyPattern struct {
	Weekday     time.Weekday
	AvgCPU      float64
	AvgMemory   float64
	Label       string
	SampleCount int64
}

// DailyPattern is the long-run average load for one hour of day (UTC).
type DailyPattern struct {
	Hour        int
	AvgCPU      float64
	AvgMemory   float64
	Label       string
	SampleCount int64
}

// AnalysisResult bundles one full analysis pass. It supersedes the
// previous pass wholesale; nothing in it is updated incrementally.
type AnalysisResult struct {
	GeneratedAt    time.Time
	Summary        UsageSummary
	WeeklyPatterns []WeeklyPattern
	DailyPatterns  []DailyPattern
	PeakUsageHours []int
	Anomalies      []TrendAnomaly
	LeakSuspects   []MemoryLeakSuspect
}

// =============================================================================
// ANALYZER
// =============================================================================

// Analyzer computes trend results from a snapshot store. It holds no
// mutable state of its own, so a single instance can serve concurrent
// callers.
type Analyzer struct {
	store  history.SnapshotStore
	config AnalysisConfig

	now func() time.Time
}

// NewAnalyzer validates the configuration and wraps the store.
func NewAnalyzer(store history.SnapshotStore, config AnalysisConfig) (*Analyzer, error) {
	if store == nil {
		return nil, errors.New("snapshot store required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		store:  store,
		config: config,
		now:    time.Now,
	}, nil
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() AnalysisConfig {
	return a.config
}

// UsageSummary reports per-metric mean and maximum over the period
// ending now. An empty period yields a zero summary.
func (a *Analyzer) UsageSummary(ctx context.Context, period Period) (UsageSummary, error) {
	from, to := period.Range(a.now())
	row, err := a.store.Summarize(ctx, from, to)
	if err != nil {
		return UsageSummary{}, err
	}
	return UsageSummary{
		Period:         period,
		AvgCPU:         row.AvgCPU,
		MaxCPU:         row.MaxCPU,
		AvgMemory:      row.AvgMemory,
		MaxMemory:      row.MaxMemory,
		AvgGPU:         row.AvgGPU,
		MaxGPU:         row.MaxGPU,
		AvgTemperature: row.AvgTemperature,
		MaxTemperature: row.MaxTemperature,
		SampleCount:    row.SampleCount,
	}, nil
}

// WeeklyPatterns averages load per weekday over the pattern window. One
// pattern per weekday present in history; absent weekdays are omitted.
func (a *Analyzer) WeeklyPatterns(ctx context.Context) ([]WeeklyPattern, error) {
	from, to := a.patternRange()
	rows, err := a.store.WeekdayAverages(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]WeeklyPattern, 0, len(rows))
	for _, r := range rows {
		out = append(out, WeeklyPattern{
			Weekday:     r.Weekday,
			AvgCPU:      r.AvgCPU,
			AvgMemory:   r.AvgMemory,
			Label:       loadLabel(r.AvgCPU),
			SampleCount: r.SampleCount,
		})
	}
	return out, nil
}

// DailyPatterns averages load per hour of day over the pattern window,
// ascending by hour. Hours with no history are omitted.
func (a *Analyzer) DailyPatterns(ctx context.Context) ([]DailyPattern, error) {
	from, to := a.patternRange()
	rows, err := a.store.HourOfDayAverages(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]DailyPattern, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailyPattern{
			Hour:        r.Hour,
			AvgCPU:      r.AvgCPU,
			AvgMemory:   r.AvgMemory,
			Label:       loadLabel(r.AvgCPU),
			SampleCount: r.SampleCount,
		})
	}
	return out, nil
}

// PeakUsageHours returns the hours of day whose average CPU exceeds the
// mean plus one stddev of all hourly averages. When fewer than two
// hours clear that bar (flat load profiles), the single busiest hour is
// returned instead so the peak set is never empty while data exists.
func (a *Analyzer) PeakUsageHours(ctx context.Context) ([]int, error) {
	patterns, err := a.DailyPatterns(ctx)
	if err != nil {
		return nil, err
	}
	return peakHours(patterns), nil
}

func peakHours(patterns []DailyPattern) []int {
	if len(patterns) == 0 {
		return []int{}
	}

	avgs := make([]float64, len(patterns))
	for i, p := range patterns {
		avgs[i] = p.AvgCPU
	}
	cut := mean(avgs) + stddev(avgs, mean(avgs))

	peaks := make([]int, 0)
	for _, p := range patterns {
		if p.AvgCPU > cut {
			peaks = append(peaks, p.Hour)
		}
	}
	if len(peaks) >= 2 {
		return peaks
	}

	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.AvgCPU > best.AvgCPU {
			best = p
		}
	}
	return []int{best.Hour}
}

// Anomalies runs detection over the four headline metrics using the
// most recent snapshots. Snapshots beyond twice the anomaly window are
// ignored; older behavior is pattern territory, not anomaly territory.
func (a *Analyzer) Anomalies(ctx context.Context) ([]TrendAnomaly, error) {
	snaps, err := a.store.RecentSnapshots(ctx, a.config.AnomalyWindow*2)
	if err != nil {
		return nil, err
	}

	out := make([]TrendAnomaly, 0)
	for _, metric := range []MetricType{MetricCPU, MetricMemory, MetricGPU, MetricTemperature} {
		series := seriesFrom(snaps, metric)
		out = append(out, DetectAnomalies(metric, series, a.config.AnomalyWindow, a.config.AnomalyMultiplier)...)
	}
	return out, nil
}

// MemoryLeakSuspects fits daily memory averages over the leak window.
// At most one suspect is reported per pass.
func (a *Analyzer) MemoryLeakSuspects(ctx context.Context) ([]MemoryLeakSuspect, error) {
	to := a.now()
	from := to.AddDate(0, 0, -a.config.LeakWindowDays)
	days, err := a.store.DailyAverages(ctx, from, to)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = d.AvgMemory
	}

	suspect := DetectMemoryLeak(values, a.config.LeakMinPoints, a.config.LeakMinSlope, a.config.LeakMinR2)
	if suspect == nil {
		return []MemoryLeakSuspect{}, nil
	}
	return []MemoryLeakSuspect{*suspect}, nil
}

// Analyze runs one full pass: summary, patterns, peaks, anomalies, and
// leak suspects. It re-scans history, so callers schedule it on a
// coarse cadence (dashboard refresh, period change), never per tick.
func (a *Analyzer) Analyze(ctx context.Context) (*AnalysisResult, error) {
	summary, err := a.UsageSummary(ctx, PeriodDay)
	if err != nil {
		return nil, err
	}
	weekly, err := a.WeeklyPatterns(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := a.DailyPatterns(ctx)
	if err != nil {
		return nil, err
	}
	anomalies, err := a.Anomalies(ctx)
	if err != nil {
		return nil, err
	}
	leaks, err := a.MemoryLeakSuspects(ctx)
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		GeneratedAt:    a.now(),
		Summary:        summary,
		WeeklyPatterns: weekly,
		DailyPatterns:  daily,
		PeakUsageHours: peakHours(daily),
		Anomalies:      anomalies,
		LeakSuspects:   leaks,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *Analyzer) patternRange() (from, to time.Time) {
	to = a.now()
	return to.AddDate(0, 0, -a.config.PatternWindowDays), to
}

func seriesFrom(snaps []metrics.Snapshot, metric MetricType) []MetricSample {
	out := make([]MetricSample, len(snaps))
	for i, s := range snaps {
		var v float64
		switch metric {
		case MetricCPU:
			v = s.CPUUsagePercent
		case MetricMemory:
			v = s.MemoryUsedPercent()
		case MetricGPU:
			v = s.GPUUsagePercent
		case MetricTemperature:
			v = s.CPUTemperatureC
		}
		out[i] = MetricSample{Timestamp: s.Timestamp, Value: v}
	}
	return out
}

// loadLabel buckets an average CPU percentage into a coarse description.
func loadLabel(avgCPU float64) string {
	switch {
	case avgCPU < 25:
		return "light"
	case avgCPU < 60:
		return "moderate"
	default:
		return "heavy"
	}
}
