package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

// deviceItem wraps a discovered device for use with bubbles/list
type deviceItem struct {
	device   ble.Device
	nickname string
	active   bool
}

func (d deviceItem) FilterValue() string {
	return d.device.ID + " " + d.device.Name + " " + d.nickname
}

// Title is the nickname if one is configured, else the advertised name
func (d deviceItem) Title() string {
	if d.nickname != "" {
		return d.nickname
	}
	return d.device.DisplayName()
}

func (d deviceItem) Description() string {
	return fmt.Sprintf("%s • RSSI %d dBm", d.device.ID, d.device.RSSI)
}

// deviceDelegate renders one list row per device
type deviceDelegate struct{}

func (d deviceDelegate) Height() int { return 2 }

func (d deviceDelegate) Spacing() int { return 0 }

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deviceItem)
	if !ok {
		return
	}

	marker := "  "
	if di.active {
		marker = lipgloss.NewStyle().Foreground(SecondaryColor).Render("● ")
	}

	title := di.Title()
	if index == m.Index() {
		title = SelectedMenuItemStyle.Render("→ " + title)
	} else {
		title = "  " + title
	}

	fmt.Fprintf(w, "%s%s\n    %s", marker, title, SubtitleStyle.Render(di.Description()))
}

// RenderCard draws the panel for one device. Card details and the
// disconnect hint only appear while connected.
func RenderCard(card session.Card, width int, selected bool) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(card.Title()))
	b.WriteString("  ")
	b.WriteString(StatusBadge(card.Status))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(card.DeviceID))

	if card.Status == session.StatusConnected {
		sw := "-"
		if card.LastSwitch != "" {
			sw = card.LastSwitch
		}
		temp := "-"
		if card.HasTemperature {
			temp = thingsboard.FormatTemperature(card.LastTemperature) + " °C"
		}
		fmt.Fprintf(&b, "\nSwitch:      %s", sw)
		fmt.Fprintf(&b, "\nTemperature: %s", temp)
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("[d] disconnect"))
	}

	style := CardStyle.BorderForeground(statusColor(card.Status))
	if selected {
		style = style.BorderStyle(lipgloss.ThickBorder())
	}
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(b.String())
}

// RenderAlert draws an alert as modal content
func RenderAlert(alert session.Alert, width int) string {
	var b strings.Builder
	b.WriteString(alert.Title)
	for _, line := range alert.Lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString("\n\n")
	if alert.Blocking {
		b.WriteString("Press enter to continue")
	} else {
		b.WriteString("Press enter or esc to close")
	}

	style := WarningBoxStyle
	if alert.Title == "SDK Error" {
		style = ErrorBoxStyle
	}
	return style.Width(SafeModalWidth(60, width)).Render(b.String())
}

// RenderLog joins log lines as they appear in the log box
func RenderLog(lines []session.LogLine) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}
