package tui

import (
	"context"
	"fmt"
	"time"

	"sysinsight/internal/output"
	"sysinsight/internal/pipeline"
	"sysinsight/internal/trend"
	"sysinsight/ui/tui/components"
	"sysinsight/ui/tui/state"
	"sysinsight/ui/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// MainModel is the Bubble Tea Model acting as the Controller. It never
// collects or evaluates anything itself; every second it polls the
// ingest worker for the latest evaluated tick.
type MainModel struct {
	worker         *pipeline.Worker
	state          state.AppState
	spinner        spinner.Model
	cpuChart       *components.HistoryChart
	menuCursor     int
	animCursor     float64
	velocity       float64 // Physics velocity
	spring         harmonica.Spring
	consoleScrollY int
	mouseX         int
	mouseY         int
	quitting       bool
	width          int
	height         int
}

// Messages
type TickMsg time.Time
type AnimateMsg time.Time
type TickLoadedMsg struct {
	Payload  *output.TickPayload
	Analysis *trend.AnalysisResult
}
type TrendsRefreshedMsg struct {
	Analysis *trend.AnalysisResult
	Err      error
}

func InitialModel(worker *pipeline.Worker) MainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Initialize physics spring for smooth cursor animation
	// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	return MainModel{
		worker:   worker,
		spinner:  s,
		cpuChart: components.NewHistoryChart(30, 10),
		spring:   spring,
		state: state.AppState{
			CurrentPage: state.PageMenu,
		},
	}
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		animateCmd(),
	)
}

// Commands
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second*1, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func fetchTickCmd(w *pipeline.Worker) tea.Cmd {
	return func() tea.Msg {
		return TickLoadedMsg{Payload: w.LatestTick(), Analysis: w.Analysis()}
	}
}

func refreshTrendsCmd(w *pipeline.Worker) tea.Cmd {
	return func() tea.Msg {
		analysis, err := w.RefreshAnalysis(context.Background())
		return TrendsRefreshedMsg{Analysis: analysis, Err: err}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case TickMsg:
		return m.handleTickMsg(msg)

	case TickLoadedMsg:
		return m.handleTickLoadedMsg(msg)

	case TrendsRefreshedMsg:
		return m.handleTrendsRefreshedMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.state.CurrentPage == state.PageMenu {
		switch msg.String() {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < 4 {
				m.menuCursor++
			}
		case "enter":
			return m, m.navigateTo(m.menuCursor)
		}
		return m, nil
	}

	if m.state.CurrentPage == state.PageConsole {
		switch msg.String() {
		case "up", "k":
			if m.consoleScrollY > 0 {
				m.consoleScrollY--
			}
		case "down", "j":
			m.consoleScrollY++
		}
	}

	if m.state.CurrentPage == state.PageTrends && msg.String() == "r" {
		return m, refreshTrendsCmd(m.worker)
	}

	if msg.String() == "b" || msg.String() == "esc" || msg.String() == "backspace" {
		m.state.CurrentPage = state.PageMenu
		m.consoleScrollY = 0
		return m, nil
	}

	return m, nil
}

// navigateTo maps a menu cursor to its page. Opening the trends page
// kicks off an analysis refresh so the data is not interval-stale.
func (m *MainModel) navigateTo(cursor int) tea.Cmd {
	switch cursor {
	case 0:
		m.state.CurrentPage = state.PageConsole
	case 1:
		m.state.CurrentPage = state.PageDashboard
	case 2:
		m.state.CurrentPage = state.PageCPU
	case 3:
		m.state.CurrentPage = state.PageInsights
	case 4:
		m.state.CurrentPage = state.PageTrends
		return refreshTrendsCmd(m.worker)
	}
	return nil
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, float64(m.menuCursor), v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	newW := msg.Width/2 - 6
	if newW > 10 {
		m.cpuChart.Resize(newW, 10)
	}
	return m, nil
}

func (m *MainModel) handleTickMsg(msg TickMsg) (tea.Model, tea.Cmd) {
	return m, tea.Batch(
		fetchTickCmd(m.worker),
		tickCmd(),
	)
}

func (m *MainModel) handleTickLoadedMsg(msg TickLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Analysis != nil {
		m.state.Analysis = msg.Analysis
	}
	if msg.Payload == nil {
		// The worker has not completed a tick yet; keep the spinner up.
		return m, nil
	}

	payload := msg.Payload
	snap := payload.Reading.Snapshot

	m.state.Payload = payload
	m.state.LastUpdate = time.Now()

	// Update Chart
	m.cpuChart.Push(snap.CPUUsagePercent)

	// Update Logs
	logLine := fmt.Sprintf("[%s] CPU: %.1f%% | MEM: %.1f%% | TEMP: %.1f°C | %s",
		time.Now().Format("15:04:05"),
		snap.CPUUsagePercent,
		snap.MemoryUsedPercent(),
		snap.CPUTemperatureC,
		payload.State.Summary,
	)
	m.state.ConsoleLogs = append(m.state.ConsoleLogs, logLine)
	if len(m.state.ConsoleLogs) > 100 {
		m.state.ConsoleLogs = m.state.ConsoleLogs[1:]
	}
	return m, nil
}

func (m *MainModel) handleTrendsRefreshedMsg(msg TrendsRefreshedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.state.Err = msg.Err
		return m, nil
	}
	m.state.Err = nil
	m.state.Analysis = msg.Analysis
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action == tea.MouseActionRelease && m.state.CurrentPage == state.PageMenu {
		for i := 0; i <= 4; i++ {
			if zone.Get(fmt.Sprintf("menu_%d", i)).InBounds(msg) {
				m.menuCursor = i
				return m, m.navigateTo(i)
			}
		}
	}
	return m, nil
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	switch m.state.CurrentPage {
	case state.PageDashboard:
		return views.RenderDashboard(m.state, m.spinner.View(), m.cpuChart.View())
	case state.PageConsole:
		return views.RenderRawConsole(m.state, m.width, m.height, m.consoleScrollY)
	case state.PageCPU:
		return views.RenderCPU(m.state, m.cpuChart.View(), m.width, m.height)
	case state.PageInsights:
		return views.RenderInsights(m.state, m.width, m.height)
	case state.PageTrends:
		return views.RenderTrends(m.state, m.spinner.View(), m.width, m.height)
	default:
		return views.RenderMenu(m.width, m.height, m.menuCursor, m.animCursor, m.mouseX, m.mouseY)
	}
}

// Start runs the TUI against an already-started worker. The caller owns
// the worker lifecycle; quitting the TUI does not stop ingestion.
func Start(worker *pipeline.Worker) error {
	m := InitialModel(worker)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
