package views

import (
	"fmt"
	"strings"

	"sysinsight/internal/output"
	"sysinsight/ui/tui/state"
	"sysinsight/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

type DashboardView struct{}

func (v DashboardView) Render(s state.AppState, props ViewProps) string {
	if s.Payload == nil {
		return fmt.Sprintf("\n  %s Waiting for first snapshot...\n\n  Press 'b' to go back", props.SpinnerView)
	}

	view := s.Payload.View

	statusBadge := ColorForStatus(view.Status).Render(fmt.Sprintf("[%s]", view.Status))
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		props.SpinnerView,
		styles.TitleStyle.Render("SysInsight TUI"),
		fmt.Sprintf(" Last Update: %s  %s %s", s.LastUpdate.Format("15:04:05"), statusBadge, view.StatusLine),
	)

	renderSection := func(sec *output.Section) string {
		content := ""
		for _, item := range sec.Items {
			// Per-core rows live on the CPU page; the dashboard card stays compact.
			if strings.HasPrefix(item.Key, "core_") {
				continue
			}
			valStr := fmt.Sprintf("%.1f%s", item.Value, item.Unit)
			if item.Status != "" {
				valStr = ColorForStatus(item.Status).Render(fmt.Sprintf("%s [%s]", valStr, item.Status))
			}
			content += fmt.Sprintf("% -15s : %s\n", item.Label, valStr)
		}
		return content
	}

	var cpuCol, memCol, gpuCol, thermalCol, ioCol string

	if cpuSec := view.SectionByID(output.SectionCPU); cpuSec != nil {
		cpuCol = zone.Mark("cpu_box", styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("CPU"),
				renderSection(cpuSec),
				props.ChartView,
			),
		))
	}

	if memSec := view.SectionByID(output.SectionMemory); memSec != nil {
		memCol = styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("Memory"),
				renderSection(memSec),
			),
		)
	}

	if gpuSec := view.SectionByID(output.SectionGPU); gpuSec != nil {
		gpuCol = styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("GPU"),
				renderSection(gpuSec),
			),
		)
	}

	if thermalSec := view.SectionByID(output.SectionThermal); thermalSec != nil {
		thermalCol = styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("Thermal"),
				renderSection(thermalSec),
			),
		)
	}

	if ioSec := view.SectionByID(output.SectionIO); ioSec != nil {
		ioCol = styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render("I/O"),
				renderSection(ioSec),
			),
		)
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCol, memCol)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, gpuCol, thermalCol, ioCol)

	footer := "\nPress 'b' for menu • 'q' to quit"
	if s.Payload.RecordErr != nil {
		footer = ColorForStatus("WARN").Render(
			fmt.Sprintf("\n! history write failing: %v", s.Payload.RecordErr)) + footer
	}

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		row1,
		row2,
		lipgloss.NewStyle().Foreground(styles.Subtle).Render(footer),
	))
}
