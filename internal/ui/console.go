package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// Console prints a session as a plain scrolling log. It is the Events sink
// for the non-interactive commands.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	offline bool

	// ShowRSSI prints a line whenever a known device is seen again
	ShowRSSI bool
}

var _ session.Events = (*Console)(nil)

// NewConsole creates a console writing to w (os.Stdout if nil)
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width
func (c *Console) SetWidth(width int) *Console {
	c.width = width
	return c
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, s)
}

// FormatLogLine renders a log line with a coloured number prefix
func FormatLogLine(l session.LogLine) string {
	prefix, text, _ := strings.Cut(l.String(), " ")
	return LogNumberStyle.Render(prefix) + " " + text
}

func (c *Console) LogLine(l session.LogLine) {
	c.println(FormatLogLine(l))
}

func (c *Console) Alert(a session.Alert) {
	c.println(RenderAlertBox(a, c.width))
}

func (c *Console) AvailabilityChanged(available bool) {
	c.mu.Lock()
	wasOffline := c.offline
	c.offline = !available
	c.mu.Unlock()

	switch {
	case !available:
		c.println(WarningTitleStyle.Render("  ⚠ Bluetooth is unavailable, waiting for it to be enabled"))
	case wasOffline:
		c.println(SuccessTitleStyle.Render("  " + SuccessMarker + " Bluetooth is available"))
	}
}

func (c *Console) DeviceUpdated(d ble.Device) {
	if c.ShowRSSI {
		c.println(StepPendingStyle.Render(fmt.Sprintf("  ~ %s %d dBm", d.DisplayName(), d.RSSI)))
	}
}

// DeviceFound and StatusChanged are already covered by log lines.
func (c *Console) DeviceFound(ble.Device)     {}
func (c *Console) StatusChanged(session.Card) {}
