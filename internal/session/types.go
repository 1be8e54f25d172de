package session

import (
	"fmt"
	"time"
)

// Status is the connection state shown on a device card
type Status string

const (
	StatusNone         Status = ""
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Card is the per-device panel created on the first connection attempt
type Card struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Status   Status `json:"status"`

	// Generation increments every time the card is replaced by a new
	// connection attempt.
	Generation int `json:"generation"`

	LastSwitch      string    `json:"last_switch,omitempty"`
	LastTemperature float64   `json:"last_temperature"`
	HasTemperature  bool      `json:"has_temperature"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Title is the card heading: nickname if set, else the device name
func (c Card) Title() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	if c.Name != "" {
		return c.Name
	}
	return c.DeviceID
}

// LogLine is one entry of the numbered session log
type LogLine struct {
	Number int       `json:"number"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// String renders the line as it appears in the log box
func (l LogLine) String() string {
	return fmt.Sprintf("#%d> %s", l.Number, l.Text)
}

// Alert is a modal message. Blocking alerts must be acknowledged.
type Alert struct {
	Title    string   `json:"title"`
	Lines    []string `json:"lines"`
	Blocking bool     `json:"blocking"`
}
