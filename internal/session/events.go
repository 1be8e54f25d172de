package session

import "github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"

// Events receives everything a front end needs to render a session.
// Methods are called from scanner, connection and notification goroutines
// and must not block for long.
type Events interface {
	DeviceFound(device ble.Device)
	DeviceUpdated(device ble.Device)
	StatusChanged(card Card)
	LogLine(line LogLine)
	Alert(alert Alert)
	AvailabilityChanged(available bool)
}

// NopEvents discards every event
type NopEvents struct{}

func (NopEvents) DeviceFound(ble.Device)   {}
func (NopEvents) DeviceUpdated(ble.Device) {}
func (NopEvents) StatusChanged(Card)       {}
func (NopEvents) LogLine(LogLine)          {}
func (NopEvents) Alert(Alert)              {}
func (NopEvents) AvailabilityChanged(bool) {}

// Multi fans events out to several sinks in order
type Multi []Events

func (m Multi) DeviceFound(d ble.Device) {
	for _, e := range m {
		e.DeviceFound(d)
	}
}

func (m Multi) DeviceUpdated(d ble.Device) {
	for _, e := range m {
		e.DeviceUpdated(d)
	}
}

func (m Multi) StatusChanged(c Card) {
	for _, e := range m {
		e.StatusChanged(c)
	}
}

func (m Multi) LogLine(l LogLine) {
	for _, e := range m {
		e.LogLine(l)
	}
}

func (m Multi) Alert(a Alert) {
	for _, e := range m {
		e.Alert(a)
	}
}

func (m Multi) AvailabilityChanged(available bool) {
	for _, e := range m {
		e.AvailabilityChanged(available)
	}
}
