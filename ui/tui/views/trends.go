package views

import (
	"fmt"
	"strings"

	"sysinsight/internal/trend"
	"sysinsight/ui/tui/state"
	"sysinsight/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type TrendsView struct{}

func (v TrendsView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Usage Trends & History")

	if s.Analysis == nil {
		waiting := "Analyzing usage history..."
		if s.Err != nil {
			waiting = fmt.Sprintf("Analysis failed: %v", s.Err)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Render(fmt.Sprintf("%s %s", props.SpinnerView, waiting)),
		)
	}

	analysis := s.Analysis

	summaryCard := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Summary (last %s)", analysis.Summary.Period)),
		renderSummary(analysis.Summary),
	))

	patternsCard := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Usage Patterns"),
		renderPatterns(analysis),
	))

	anomalyCard := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Anomalies"),
		renderAnomalies(analysis.Anomalies),
	))

	leakCard := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Memory Leak Suspects"),
		renderLeaks(analysis.LeakSuspects),
	))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, summaryCard, patternsCard)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, anomalyCard, leakCard)

	footerText := fmt.Sprintf("Computed %s • 'r' to refresh • 'b' to go back",
		analysis.GeneratedAt.Format("15:04:05"))
	if s.Err != nil {
		footerText = fmt.Sprintf("Refresh failed: %v • showing previous result • 'b' to go back", s.Err)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		row1,
		row2,
		lipgloss.NewStyle().Padding(1, 2).Foreground(styles.Subtle).Render(footerText),
	)
}

func renderSummary(sum trend.UsageSummary) string {
	if sum.SampleCount == 0 {
		return "No samples recorded yet."
	}
	lines := []string{
		fmt.Sprintf("CPU   : avg %5.1f%%  max %5.1f%%", sum.AvgCPU, sum.MaxCPU),
		fmt.Sprintf("Memory: avg %5.1f%%  max %5.1f%%", sum.AvgMemory, sum.MaxMemory),
		fmt.Sprintf("GPU   : avg %5.1f%%  max %5.1f%%", sum.AvgGPU, sum.MaxGPU),
		fmt.Sprintf("Temp  : avg %5.1f°C max %5.1f°C", sum.AvgTemperature, sum.MaxTemperature),
		"",
		fmt.Sprintf("%d samples", sum.SampleCount),
	}
	return strings.Join(lines, "\n")
}

func renderPatterns(analysis *trend.AnalysisResult) string {
	if len(analysis.WeeklyPatterns) == 0 && len(analysis.DailyPatterns) == 0 {
		return "Not enough history for patterns yet."
	}

	var lines []string
	for _, p := range analysis.WeeklyPatterns {
		lines = append(lines, fmt.Sprintf("%-9s cpu %5.1f%%  mem %5.1f%%  %s", p.Weekday, p.AvgCPU, p.AvgMemory, p.Label))
	}

	if len(analysis.PeakUsageHours) > 0 {
		var hours []string
		for _, h := range analysis.PeakUsageHours {
			hours = append(hours, fmt.Sprintf("%02d:00", h))
		}
		lines = append(lines, "", "Peak hours: "+strings.Join(hours, ", "))
	}

	return strings.Join(lines, "\n")
}

func renderAnomalies(anomalies []trend.TrendAnomaly) string {
	if len(anomalies) == 0 {
		return "No anomalies in the analysis window."
	}

	// Newest-first keeps the most recent oddity on top of the card.
	var lines []string
	for i := len(anomalies) - 1; i >= 0 && len(lines) < 6; i-- {
		a := anomalies[i]
		sev := ColorForSeverity(a.Severity.String()).Render(strings.ToUpper(a.Severity.String()[:4]))
		lines = append(lines, fmt.Sprintf("%s %s %-11s %5.1f (expected %.1f to %.1f)",
			a.Date.Format("Jan 02 15:04"), sev, a.MetricType, a.ObservedValue,
			a.ExpectedRange.Min, a.ExpectedRange.Max))
	}
	if len(anomalies) > 6 {
		lines = append(lines, fmt.Sprintf("... and %d more", len(anomalies)-6))
	}
	return strings.Join(lines, "\n")
}

func renderLeaks(suspects []trend.MemoryLeakSuspect) string {
	if len(suspects) == 0 {
		return "No sustained memory growth detected."
	}
	var lines []string
	for _, s := range suspects {
		lines = append(lines, s.Description)
		lines = append(lines, fmt.Sprintf("  +%.1f%%/day relative growth, confidence %.0f%%",
			s.GrowthRatePerDay*100, s.Confidence*100))
	}
	return strings.Join(lines, "\n")
}
