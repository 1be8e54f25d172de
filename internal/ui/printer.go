package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way console commands produce styled output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints a failure box; BLE errors get troubleshooting tips
func (p *Printer) PrintError(title string, err error) {
	p.Println(NewFailureResult(title, err, ble.TroubleshootingHint(err)).SetWidth(p.width).Render())
}

// PrintProgress prints the current state of a progress display
func (p *Printer) PrintProgress(pr *Progress) {
	p.Println(pr.SetWidth(p.width).Render())
}

// PrintDevices prints a table of discovered devices
func (p *Printer) PrintDevices(devices []ble.Device, nicknames map[string]string) {
	if len(devices) == 0 {
		p.Println(WarningTitleStyle.Render("  ⚠ No devices found"))
		return
	}

	idWidth, nameWidth := len("ADDRESS"), len("NAME")
	for _, d := range devices {
		idWidth = max(idWidth, len(d.ID))
		nameWidth = max(nameWidth, len(deviceLabel(d, nicknames)))
	}

	row := func(id, name, rssi string) string {
		return fmt.Sprintf("  %-*s  %-*s  %s", idWidth, id, nameWidth, name, rssi)
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(MutedColor).Bold(true).Render(row("ADDRESS", "NAME", "RSSI")))
	for _, d := range devices {
		lines = append(lines, row(d.ID, deviceLabel(d, nicknames), fmt.Sprintf("%d dBm", d.RSSI)))
	}
	p.Println(strings.Join(lines, "\n"))
}

func deviceLabel(d ble.Device, nicknames map[string]string) string {
	if nick := nicknames[d.ID]; nick != "" {
		return fmt.Sprintf("%s (%s)", nick, d.DisplayName())
	}
	return d.DisplayName()
}
