package views

import (
	"fmt"
	"strings"

	"sysinsight/internal/metrics"
	"sysinsight/ui/tui/state"
	"sysinsight/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type InsightsView struct{}

func (v InsightsView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Insights & Diagnostics")

	if s.Payload == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Render("Waiting for first snapshot..."),
		)
	}

	engineState := s.Payload.State

	statusLine := fmt.Sprintf("%s  •  %s",
		ColorForStatus(s.Payload.View.Status).Render(strings.ToUpper(engineState.Status.String())),
		engineState.Summary,
	)

	var cards []string
	if len(engineState.Active) == 0 {
		cards = append(cards, styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("All clear"),
				"No active insights. Every tracked metric is inside its threshold.",
			),
		))
	}
	for _, ins := range engineState.Active {
		cards = append(cards, renderInsightCard(ins))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(statusLine),
		lipgloss.JoinVertical(lipgloss.Left, cards...),
		lipgloss.NewStyle().Padding(1, 2).Foreground(styles.Subtle).Render("Press 'b' to go back"),
	)
}

func renderInsightCard(ins metrics.Insight) string {
	sev := ins.Severity.String()
	title := lipgloss.JoinHorizontal(lipgloss.Left,
		ColorForSeverity(sev).Render(fmt.Sprintf("[%s]", strings.ToUpper(sev))),
		lipgloss.NewStyle().Bold(true).PaddingLeft(1).Render(ins.Title),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).PaddingLeft(2).Render(
			fmt.Sprintf("%.0f%% confidence", ins.Confidence*100)),
	)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	body := []string{
		title,
		"",
		fmt.Sprintf("%s %s", labelStyle.Render("Symptom    :"), ins.Symptom),
		fmt.Sprintf("%s %s", labelStyle.Render("Root cause :"), ins.RootCause),
		fmt.Sprintf("%s %s", labelStyle.Render("If resolved:"), ins.Counterfactual),
	}

	if ins.Metrics != nil {
		body = append(body, fmt.Sprintf("%s %.1f%s now vs %.1f%s threshold",
			labelStyle.Render("Reading    :"),
			ins.Metrics.CurrentValue, ins.Metrics.Unit,
			ins.Metrics.ThresholdValue, ins.Metrics.Unit))
	}

	if len(ins.AffectedProcs) > 0 {
		body = append(body, fmt.Sprintf("%s %s",
			labelStyle.Render("Processes  :"), strings.Join(ins.AffectedProcs, ", ")))
	}

	for i, action := range ins.SuggestedActions {
		prefix := "Actions    :"
		if i > 0 {
			prefix = "            "
		}
		body = append(body, fmt.Sprintf("%s %s", labelStyle.Render(prefix), action))
	}

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}
