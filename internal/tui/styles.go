package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/version"
)

// AppName is the title shown in the header
const AppName = "LINE THINGS NOTIFY"

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72  // Minimum supported terminal width
	MaxContentWidth  = 120 // Maximum content width before capping
	SplitWidth       = 100 // Width from which the device list and cards sit side by side
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#06C755") // LINE green
	SecondaryColor = lipgloss.Color("#43BF6D")
	WarningColor   = lipgloss.Color("#FFA500")
	ErrorColor     = lipgloss.Color("#FF0000")

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#06C755")
	HighlightColor = lipgloss.Color("#43BF6D")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Card frame; the border colour follows the card status
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	LogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(SubtleColor)

	ErrorBoxStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(1, 2)

	WarningBoxStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(1, 2)

	// Inline warning line shown while Bluetooth is off
	BannerStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)
)

// statusColor maps a card status to its badge colour
func statusColor(s session.Status) lipgloss.Color {
	switch s {
	case session.StatusConnected:
		return SecondaryColor
	case session.StatusConnecting:
		return WarningColor
	case session.StatusDisconnected:
		return SubtleColor
	default:
		return ErrorColor
	}
}

// StatusBadge renders the card status label
func StatusBadge(s session.Status) string {
	label := "Error"
	switch s {
	case session.StatusConnected:
		label = "Connected"
	case session.StatusConnecting:
		label = "Connecting"
	case session.StatusDisconnected:
		label = "Disconnected"
	}
	return lipgloss.NewStyle().Foreground(statusColor(s)).Bold(true).Render(label)
}

// BuildHeaderContent creates header content with app name, version and the
// BLE stack in use
func BuildHeaderContent(stack string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render("SDK Ver: " + stack)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// BuildFooterContent creates footer content with help text
func BuildFooterContent(helpText string) string {
	return lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(helpText)
}

// RenderApplicationContainer wraps a screen in the full-terminal frame: a
// header, the content, and a footer carrying the help line.
func RenderApplicationContainer(header, content, footerText string, terminalWidth, terminalHeight int) string {
	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(BuildFooterContent(footerText)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(innerContent)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}

// SafeModalWidth returns requestedWidth capped so a modal never overflows
// the terminal
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}

// RenderModal centers modalContent over a dimmed screen
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}
