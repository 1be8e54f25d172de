package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// Messages carrying session events into the program
type (
	DeviceFoundMsg   struct{ Device ble.Device }
	DeviceUpdatedMsg struct{ Device ble.Device }
	CardMsg          struct{ Card session.Card }
	LogMsg           struct{ Line session.LogLine }
	AlertMsg         struct{ Alert session.Alert }
	AvailabilityMsg  struct{ Available bool }
)

// Sender is the part of *tea.Program the bridge needs
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards session events to a running program as messages
type Bridge struct {
	sender Sender
}

var _ session.Events = (*Bridge)(nil)

// NewBridge creates a bridge delivering to sender
func NewBridge(sender Sender) *Bridge {
	return &Bridge{sender: sender}
}

func (b *Bridge) DeviceFound(d ble.Device)     { b.sender.Send(DeviceFoundMsg{Device: d}) }
func (b *Bridge) DeviceUpdated(d ble.Device)   { b.sender.Send(DeviceUpdatedMsg{Device: d}) }
func (b *Bridge) StatusChanged(c session.Card) { b.sender.Send(CardMsg{Card: c}) }
func (b *Bridge) LogLine(l session.LogLine)    { b.sender.Send(LogMsg{Line: l}) }
func (b *Bridge) Alert(a session.Alert)        { b.sender.Send(AlertMsg{Alert: a}) }
func (b *Bridge) AvailabilityChanged(ok bool)  { b.sender.Send(AvailabilityMsg{Available: ok}) }
