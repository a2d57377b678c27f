package views

import (
	"strings"

	"sysinsight/ui/tui/state"
)

func RenderMenu(width, height, cursor int, animCursor float64, mouseX, mouseY int) string {
	v := MenuView{}
	return v.Render(state.AppState{}, ViewProps{
		Width:      width,
		Height:     height,
		MenuCursor: cursor,
		AnimCursor: animCursor,
		MouseX:     mouseX,
		MouseY:     mouseY,
	})
}

func RenderDashboard(s state.AppState, spinnerView, chartView string) string {
	v := DashboardView{}
	return v.Render(s, ViewProps{
		SpinnerView: spinnerView,
		ChartView:   chartView,
	})
}

func RenderRawConsole(s state.AppState, width, height, scrollY int) string {
	content := "Waiting for ticks..."
	if len(s.ConsoleLogs) > 0 {
		content = strings.Join(s.ConsoleLogs, "\n")
	}
	v := ConsoleView{Content: content}
	return v.Render(s, ViewProps{
		Width:   width,
		Height:  height,
		ScrollY: scrollY,
	})
}

func RenderCPU(s state.AppState, chartView string, width, height int) string {
	v := CPUView{}
	return v.Render(s, ViewProps{
		Width:     width,
		Height:    height,
		ChartView: chartView,
	})
}

func RenderInsights(s state.AppState, width, height int) string {
	v := InsightsView{}
	return v.Render(s, ViewProps{
		Width:  width,
		Height: height,
	})
}

func RenderTrends(s state.AppState, spinnerView string, width, height int) string {
	v := TrendsView{}
	return v.Render(s, ViewProps{
		Width:       width,
		Height:      height,
		SpinnerView: spinnerView,
	})
}
