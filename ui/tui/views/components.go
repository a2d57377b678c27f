package views

import (
	"sysinsight/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// ColorForStatus maps an item status string to its display style.
func ColorForStatus(status string) lipgloss.Style {
	sStyle := styles.StatusStyle
	switch status {
	case "WARN":
		return sStyle.Foreground(lipgloss.Color("220")) // Gold
	case "CRIT":
		return sStyle.Foreground(lipgloss.Color("196")) // Red
	case "INFO":
		return sStyle.Foreground(lipgloss.Color("39")) // Blue
	}
	return sStyle.Foreground(lipgloss.Color("46")) // Green
}

// ColorForSeverity works from the lowercase severity names the insight
// records carry ("info", "warning", "critical").
func ColorForSeverity(severity string) lipgloss.Style {
	sStyle := styles.StatusStyle
	switch severity {
	case "warning":
		return sStyle.Foreground(lipgloss.Color("220"))
	case "critical":
		return sStyle.Foreground(lipgloss.Color("196"))
	case "info":
		return sStyle.Foreground(lipgloss.Color("39"))
	}
	return sStyle.Foreground(lipgloss.Color("46"))
}
