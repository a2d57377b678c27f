package trend

import (
	"context"
	"testing"
	"time"

	"sysinsight/internal/history"
	"sysinsight/internal/metrics"
)

// fixedNow is a Saturday 12:00 UTC so weekday expectations are stable.
var fixedNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) (*Analyzer, *history.Store) {
	t.Helper()

	client, err := history.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store := history.NewStore(client.DB())
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	analyzer, err := NewAnalyzer(store, DefaultAnalysisConfig())
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	analyzer.now = func() time.Time { return fixedNow }
	return analyzer, store
}

func recordCPU(t *testing.T, store *history.Store, ts time.Time, cpu float64) {
	t.Helper()
	snap := metrics.Snapshot{
		Timestamp:        ts,
		CPUUsagePercent:  cpu,
		CPUTemperatureC:  55,
		MemoryTotalBytes: 1000,
		MemoryUsedBytes:  400,
	}
	if err := store.Record(context.Background(), snap); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}

func recordMem(t *testing.T, store *history.Store, ts time.Time, memUsedPct float64) {
	t.Helper()
	snap := metrics.Snapshot{
		Timestamp:        ts,
		CPUUsagePercent:  30,
		CPUTemperatureC:  55,
		MemoryTotalBytes: 1000,
		MemoryUsedBytes:  uint64(memUsedPct * 10),
	}
	if err := store.Record(context.Background(), snap); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}

func TestUsageSummaryPeriods(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	// Three snapshots inside the last hour, one two hours back.
	recordCPU(t, store, fixedNow.Add(-50*time.Minute), 10)
	recordCPU(t, store, fixedNow.Add(-30*time.Minute), 50)
	recordCPU(t, store, fixedNow.Add(-10*time.Minute), 90)
	recordCPU(t, store, fixedNow.Add(-2*time.Hour), 100)

	hour, err := analyzer.UsageSummary(ctx, PeriodHour)
	if err != nil {
		t.Fatalf("UsageSummary(hour) failed: %v", err)
	}
	if hour.SampleCount != 3 {
		t.Errorf("hour sample count = %d, want 3", hour.SampleCount)
	}
	if !almostEq(hour.AvgCPU, 50, 1e-9) || !almostEq(hour.MaxCPU, 90, 1e-9) {
		t.Errorf("hour summary = avg %.2f max %.2f, want avg 50 max 90", hour.AvgCPU, hour.MaxCPU)
	}
	if hour.Period != PeriodHour {
		t.Errorf("period = %v, want %v", hour.Period, PeriodHour)
	}

	day, err := analyzer.UsageSummary(ctx, PeriodDay)
	if err != nil {
		t.Fatalf("UsageSummary(day) failed: %v", err)
	}
	if day.SampleCount != 4 {
		t.Errorf("day sample count = %d, want 4", day.SampleCount)
	}
	if !almostEq(day.AvgCPU, 62.5, 1e-9) || !almostEq(day.MaxCPU, 100, 1e-9) {
		t.Errorf("day summary = avg %.2f max %.2f, want avg 62.5 max 100", day.AvgCPU, day.MaxCPU)
	}
}

func TestUsageSummaryEmptyHistory(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t)

	got, err := analyzer.UsageSummary(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("UsageSummary on empty history failed: %v", err)
	}
	if got.SampleCount != 0 || got.AvgCPU != 0 || got.MaxCPU != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
}

func TestWeeklyAndDailyPatterns(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	friday := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC)
	recordCPU(t, store, friday, 80)
	recordCPU(t, store, saturday, 10)

	weekly, err := analyzer.WeeklyPatterns(ctx)
	if err != nil {
		t.Fatalf("WeeklyPatterns failed: %v", err)
	}
	if len(weekly) != 2 {
		t.Fatalf("expected 2 weekly patterns, got %d", len(weekly))
	}
	for _, p := range weekly {
		switch p.Weekday {
		case time.Friday:
			if !almostEq(p.AvgCPU, 80, 1e-9) || p.Label != "heavy" {
				t.Errorf("Friday pattern = %+v, want avg 80, label heavy", p)
			}
		case time.Saturday:
			if !almostEq(p.AvgCPU, 10, 1e-9) || p.Label != "light" {
				t.Errorf("Saturday pattern = %+v, want avg 10, label light", p)
			}
		default:
			t.Errorf("unexpected weekday pattern: %+v", p)
		}
	}

	daily, err := analyzer.DailyPatterns(ctx)
	if err != nil {
		t.Fatalf("DailyPatterns failed: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("expected 2 daily patterns, got %d", len(daily))
	}
	if daily[0].Hour != 3 || !almostEq(daily[0].AvgCPU, 10, 1e-9) {
		t.Errorf("first daily pattern = %+v, want hour 3, avg 10", daily[0])
	}
	if daily[1].Hour != 10 || !almostEq(daily[1].AvgCPU, 80, 1e-9) {
		t.Errorf("second daily pattern = %+v, want hour 10, avg 80", daily[1])
	}
}

func TestPeakUsageHours(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	// Ten quiet hours and two busy ones the day before fixedNow. The
	// busy hours clear mean+stddev of the hourly averages.
	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 10; h++ {
		recordCPU(t, store, day.Add(time.Duration(h)*time.Hour), 20)
	}
	recordCPU(t, store, day.Add(10*time.Hour), 90)
	recordCPU(t, store, day.Add(11*time.Hour), 95)

	peaks, err := analyzer.PeakUsageHours(ctx)
	if err != nil {
		t.Fatalf("PeakUsageHours failed: %v", err)
	}
	if len(peaks) != 2 || peaks[0] != 10 || peaks[1] != 11 {
		t.Errorf("peaks = %v, want [10 11]", peaks)
	}
}

func TestPeakUsageHoursFlatProfile(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	// Near-flat profile: only one hour clears the bar, so the single
	// busiest hour is returned.
	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	recordCPU(t, store, day, 30)
	recordCPU(t, store, day.Add(time.Hour), 30)
	recordCPU(t, store, day.Add(2*time.Hour), 31)

	peaks, err := analyzer.PeakUsageHours(ctx)
	if err != nil {
		t.Fatalf("PeakUsageHours failed: %v", err)
	}
	if len(peaks) != 1 || peaks[0] != 2 {
		t.Errorf("peaks = %v, want [2]", peaks)
	}
}

func TestPeakUsageHoursEmptyHistory(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t)

	peaks, err := analyzer.PeakUsageHours(context.Background())
	if err != nil {
		t.Fatalf("PeakUsageHours on empty history failed: %v", err)
	}
	if len(peaks) != 0 {
		t.Errorf("peaks = %v, want empty", peaks)
	}
}

func TestMemoryLeakSuspectsFromHistory(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	// One snapshot per day for ten days, memory climbing one point per
	// day, ending the day before fixedNow.
	for i := 0; i < 10; i++ {
		day := fixedNow.AddDate(0, 0, -(10 - i))
		ts := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
		recordMem(t, store, ts, 50+float64(i))
	}

	suspects, err := analyzer.MemoryLeakSuspects(ctx)
	if err != nil {
		t.Fatalf("MemoryLeakSuspects failed: %v", err)
	}
	if len(suspects) != 1 {
		t.Fatalf("expected 1 suspect, got %d", len(suspects))
	}
	if !almostEq(suspects[0].Confidence, 1.0, 1e-9) {
		t.Errorf("confidence = %v, want 1.0", suspects[0].Confidence)
	}
	if suspects[0].GrowthRatePerDay <= 0 {
		t.Errorf("growth rate = %v, want positive", suspects[0].GrowthRatePerDay)
	}
	t.Log("✓ Climbing daily memory averages produce a leak suspect")
}

func TestMemoryLeakSuspectsFlatHistory(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	for i := 0; i < 10; i++ {
		day := fixedNow.AddDate(0, 0, -(10 - i))
		ts := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
		recordMem(t, store, ts, 60)
	}

	suspects, err := analyzer.MemoryLeakSuspects(ctx)
	if err != nil {
		t.Fatalf("MemoryLeakSuspects failed: %v", err)
	}
	if len(suspects) != 0 {
		t.Errorf("flat history produced %d suspects, want 0", len(suspects))
	}
}

func TestAnomaliesFromHistory(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	// 29 alternating CPU samples, then one spike. Memory, GPU, and
	// temperature stay flat so only the CPU series can flag.
	start := fixedNow.Add(-time.Hour)
	for i := 0; i < 29; i++ {
		v := 40.0
		if i%2 == 1 {
			v = 60.0
		}
		recordCPU(t, store, start.Add(time.Duration(i)*time.Minute), v)
	}
	recordCPU(t, store, start.Add(29*time.Minute), 95)

	anomalies, err := analyzer.Anomalies(ctx)
	if err != nil {
		t.Fatalf("Anomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected exactly 1 anomaly, got %d: %+v", len(anomalies), anomalies)
	}
	a := anomalies[0]
	if a.MetricType != MetricCPU {
		t.Errorf("metric = %v, want %v", a.MetricType, MetricCPU)
	}
	if a.ObservedValue != 95 {
		t.Errorf("observed = %v, want 95", a.ObservedValue)
	}
	if a.Severity != metrics.SeverityCritical {
		t.Errorf("severity = %v, want critical", a.Severity)
	}
}

func TestAnalyzeBundle(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)

	recordCPU(t, store, fixedNow.Add(-30*time.Minute), 45)
	recordCPU(t, store, fixedNow.Add(-20*time.Minute), 55)

	result, err := analyzer.Analyze(ctx)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !result.GeneratedAt.Equal(fixedNow) {
		t.Errorf("generated at = %v, want %v", result.GeneratedAt, fixedNow)
	}
	if result.Summary.SampleCount != 2 {
		t.Errorf("summary sample count = %d, want 2", result.Summary.SampleCount)
	}
	if len(result.WeeklyPatterns) == 0 || len(result.DailyPatterns) == 0 {
		t.Error("expected non-empty pattern sets")
	}
	if len(result.PeakUsageHours) == 0 {
		t.Error("expected at least one peak hour")
	}
	if result.Anomalies == nil || result.LeakSuspects == nil {
		t.Error("anomaly and leak slices should be allocated even when empty")
	}
}

func TestNewAnalyzerValidation(t *testing.T) {
	_, store := newTestAnalyzer(t)

	if _, err := NewAnalyzer(nil, DefaultAnalysisConfig()); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := NewAnalyzer(store, DefaultAnalysisConfig().WithAnomalyWindow(1)); err == nil {
		t.Error("expected error for undersized anomaly window")
	}
	if _, err := NewAnalyzer(store, DefaultAnalysisConfig().WithLeakThresholds(0.1, 1.5)); err == nil {
		t.Error("expected error for out-of-range minimum R2")
	}
}

func TestParsePeriodAndRange(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"hour", PeriodHour},
		{"day", PeriodDay},
		{"week", PeriodWeek},
		{"month", PeriodMonth},
		{"bogus", PeriodDay},
		{"", PeriodDay},
	}
	for _, tt := range tests {
		if got := ParsePeriod(tt.in); got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	from, to := PeriodHour.Range(fixedNow)
	if !to.Equal(fixedNow) || !from.Equal(fixedNow.Add(-time.Hour)) {
		t.Errorf("hour range = [%v, %v), want [%v, %v)", from, to, fixedNow.Add(-time.Hour), fixedNow)
	}
	if PeriodMonth.Duration() != 30*24*time.Hour {
		t.Errorf("month duration = %v, want 720h", PeriodMonth.Duration())
	}
}
