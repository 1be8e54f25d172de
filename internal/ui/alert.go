package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// RenderAlertBox renders a session alert. Blocking alerts use the warning
// colour and an ACTION REQUIRED banner; others render as errors.
func RenderAlertBox(alert session.Alert, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleStyle := ErrorTitleStyle
	color := ErrorColor
	banner := FailureMarker + "  " + alert.Title
	if alert.Blocking {
		titleStyle = WarningTitleStyle
		color = WarningColor
		banner = "⚠  ACTION REQUIRED  ─  " + alert.Title
	}

	lines := []string{"", titleStyle.Render("   " + banner), ""}
	bodyStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, l := range alert.Lines {
		lines = append(lines, bodyStyle.Render("   "+l))
	}
	lines = append(lines, "")

	return boxStyle(color, width).Render(strings.Join(lines, "\n"))
}
