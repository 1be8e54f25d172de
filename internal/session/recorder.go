package session

import (
	"sync"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

// Recorder is an Events sink that keeps everything it receives. The console
// front end uses it to replay history; tests use it to assert on events.
type Recorder struct {
	mu           sync.Mutex
	Found        []ble.Device
	Updated      []ble.Device
	Statuses     []Card
	Lines        []LogLine
	Alerts       []Alert
	Availability []bool
}

var _ Events = (*Recorder)(nil)

func (r *Recorder) DeviceFound(d ble.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Found = append(r.Found, d)
}

func (r *Recorder) DeviceUpdated(d ble.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updated = append(r.Updated, d)
}

func (r *Recorder) StatusChanged(c Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses = append(r.Statuses, c)
}

func (r *Recorder) LogLine(l LogLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, l)
}

func (r *Recorder) Alert(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, a)
}

func (r *Recorder) AvailabilityChanged(available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Availability = append(r.Availability, available)
}

// Texts returns the text of every log line received so far
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}

// StatusTrail returns the statuses received for one device, in order,
// skipping repeats caused by card detail updates
func (r *Recorder) StatusTrail(id string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, c := range r.Statuses {
		if c.DeviceID != id {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == c.Status {
			continue
		}
		out = append(out, c.Status)
	}
	return out
}

// AlertCount returns the number of alerts received
func (r *Recorder) AlertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Alerts)
}

// LastAlert returns the most recent alert
func (r *Recorder) LastAlert() (Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Alerts) == 0 {
		return Alert{}, false
	}
	return r.Alerts[len(r.Alerts)-1], true
}
