package views

import (
	"fmt"
	"strings"

	"sysinsight/ui/tui/state"
	"sysinsight/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type CPUView struct{}

func (v CPUView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("CPU Telemetry & Cores")

	if s.Payload == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Render("Waiting for first snapshot..."),
		)
	}

	reading := s.Payload.Reading
	snap := reading.Snapshot

	// Info section
	freqStr := "n/a"
	if reading.CPUFrequencyMHz > 0 {
		freqStr = fmt.Sprintf("%.0f MHz", reading.CPUFrequencyMHz)
		if reading.CPUBaseFrequencyMHz > 0 {
			freqStr += fmt.Sprintf(" (base %.0f MHz)", reading.CPUBaseFrequencyMHz)
		}
	}
	info := lipgloss.NewStyle().
		Padding(1, 2).
		Render(fmt.Sprintf("Usage: %.1f%%  •  P-Cores: %.1f%%  •  E-Cores: %.1f%%\nCores: %d\nFrequency: %s  •  Temp: %.1f°C",
			snap.CPUUsagePercent, snap.CPUPerformanceCorePercent, snap.CPUEfficiencyCorePercent,
			len(reading.PerCorePercent), freqStr, snap.CPUTemperatureC))

	// Chart section
	chart := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Highlight).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Usage History"),
			props.ChartView,
		))

	// Per-core section. Performance and efficiency cores get their own
	// labels when the split is known.
	var cores []string
	if len(reading.PCorePercent) > 0 || len(reading.ECorePercent) > 0 {
		for i, usage := range reading.PCorePercent {
			cores = append(cores, coreBar(fmt.Sprintf("P%2d", i), usage))
		}
		for i, usage := range reading.ECorePercent {
			cores = append(cores, coreBar(fmt.Sprintf("E%2d", i), usage))
		}
	} else {
		for i, usage := range reading.PerCorePercent {
			cores = append(cores, coreBar(fmt.Sprintf("Core %2d", i), usage))
		}
	}

	// Split cores into columns if there are many
	const coresPerCol = 8
	var cols []string
	for i := 0; i < len(cores); i += coresPerCol {
		end := i + coresPerCol
		if end > len(cores) {
			end = len(cores)
		}
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, cores[i:end]...))
	}

	coreList := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	// Add padding between columns
	if len(cols) > 1 {
		styledCols := []string{cols[0]}
		for i := 1; i < len(cols); i++ {
			styledCols = append(styledCols, lipgloss.NewStyle().PaddingLeft(4).Render(cols[i]))
		}
		coreList = lipgloss.JoinHorizontal(lipgloss.Top, styledCols...)
	}

	coreBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Highlight).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Per-Core Utilization"),
			coreList,
		))

	content := lipgloss.JoinHorizontal(lipgloss.Top, chart, coreBox)

	// Top consumers
	var procs []string
	for i, p := range reading.TopProcesses {
		if i >= 5 {
			break
		}
		procs = append(procs, fmt.Sprintf("%-20s  cpu %5.1f%%  mem %5.1f%%  pid %d",
			truncate(p.Name, 20), p.CPU, p.Memory, p.PID))
	}
	procBox := ""
	if len(procs) > 0 {
		procBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Highlight).
			Padding(1, 2).
			Render(lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("Top Consumers"),
				lipgloss.JoinVertical(lipgloss.Left, procs...),
			))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		info,
		content,
		procBox,
		lipgloss.NewStyle().Padding(1, 2).Foreground(styles.Subtle).Render("Press 'b' to go back"),
	)
}

func coreBar(label string, usage float64) string {
	barWidth := 20
	filled := int(float64(barWidth) * usage / 100)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	color := lipgloss.Color("46") // Green
	if usage > 90 {
		color = lipgloss.Color("196") // Red
	} else if usage > 70 {
		color = lipgloss.Color("220") // Gold
	}

	return fmt.Sprintf("%s: [%s] %5.1f%%", label, lipgloss.NewStyle().Foreground(color).Render(bar), usage)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
