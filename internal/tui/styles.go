package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/trafficmon/trafficmon/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	navStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeNav  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31")).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	flashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 2)

	critStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// badge renders a badge in the color matching its class.
func badge(b view.Badge) string {
	switch b.Class {
	case view.BadgeCritical, view.BadgeDanger:
		return critStyle.Render(b.Label)
	case view.BadgeWarning:
		return warnStyle.Render(b.Label)
	case view.BadgeSuccess:
		return okStyle.Render(b.Label)
	default:
		return infoStyle.Render(b.Label)
	}
}
