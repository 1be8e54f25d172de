package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

// State is the single owner of the device registry, the cards and the log
// counter. It is safe for concurrent use. Events are delivered in the order
// the changes happened, outside the state lock, so sinks may read State back.
type State struct {
	ID        string
	StartedAt time.Time

	// emitMu serialises mutations with their event delivery so sinks see
	// log lines in number order.
	emitMu sync.Mutex

	mu         sync.Mutex
	events     Events
	discovered map[string]ble.Device
	order      []string
	connecting map[string]bool
	connected  map[string]bool
	cards      map[string]*Card
	nicknames  map[string]string
	logNumber  int
	available  *bool
	now        func() time.Time
}

// New creates an empty session that reports to events (nil means discard)
func New(events Events) *State {
	if events == nil {
		events = NopEvents{}
	}
	t := time.Now()
	return &State{
		ID:         generateID(t),
		StartedAt:  t,
		events:     events,
		discovered: make(map[string]ble.Device),
		connecting: make(map[string]bool),
		connected:  make(map[string]bool),
		cards:      make(map[string]*Card),
		nicknames:  make(map[string]string),
		logNumber:  1,
		now:        time.Now,
	}
}

func generateID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// SetEvents replaces the event sink. It is meant to be called before the
// scanner starts.
func (s *State) SetEvents(events Events) {
	if events == nil {
		events = NopEvents{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// SetNicknames installs user-chosen display names keyed by device id
func (s *State) SetNicknames(nicknames map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nicknames = make(map[string]string, len(nicknames))
	for id, n := range nicknames {
		s.nicknames[ble.NormalizeAddress(id)] = n
	}
}

// Nickname returns the nickname for id, if any
func (s *State) Nickname(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nicknames[ble.NormalizeAddress(id)]
}

// pending collects the events of one call so they fire outside the lock
type pending []func(Events)

func (s *State) flush(p pending) {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()
	for _, fn := range p {
		fn(events)
	}
}

// logLocked numbers a log line; s.mu must be held
func (s *State) logLocked(p *pending, format string, args ...any) {
	line := LogLine{Number: s.logNumber, Text: fmt.Sprintf(format, args...), Time: s.now()}
	s.logNumber++
	logging.Debug("Session log", zap.Int("number", line.Number), zap.String("text", line.Text))
	*p = append(*p, func(e Events) { e.LogLine(line) })
}

// Logf appends a numbered line to the session log
func (s *State) Logf(format string, args ...any) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	s.logLocked(&p, format, args...)
	s.mu.Unlock()
	s.flush(p)
}

// Discover registers a device seen by the scanner. It returns true the first
// time an id is seen; later sightings only refresh the signal strength.
func (s *State) Discover(device ble.Device) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	_, known := s.discovered[device.ID]
	s.discovered[device.ID] = device
	if known {
		p = append(p, func(e Events) { e.DeviceUpdated(device) })
	} else {
		s.order = append(s.order, device.ID)
		s.logLocked(&p, "Device found: %s", device.Name)
		p = append(p, func(e Events) { e.DeviceFound(device) })
	}
	s.mu.Unlock()
	s.flush(p)
	return !known
}

// Device returns a discovered device by id
func (s *State) Device(id string) (ble.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discovered[id]
	return d, ok
}

// Devices returns discovered devices in discovery order
func (s *State) Devices() []ble.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ble.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.discovered[id])
	}
	return out
}

// BeginConnect marks id as connecting. It returns false, changing nothing,
// if id is already connecting or connected.
func (s *State) BeginConnect(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connecting[id] || s.connected[id] {
		return false
	}
	s.connecting[id] = true
	return true
}

// FinishConnect ends a connect attempt: id leaves the connecting set and
// the card moves to status, in one step, so a concurrent BeginConnect never
// sees the id in neither set.
func (s *State) FinishConnect(id string, status Status) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	delete(s.connecting, id)
	s.setStatusLocked(&p, id, status)
	s.mu.Unlock()
	s.flush(p)
}

// IsConnecting reports whether id has a connect attempt in flight
func (s *State) IsConnecting(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connecting[id]
}

// IsConnected reports whether id is connected
func (s *State) IsConnected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[id]
}

// InitCard creates the card for device, replacing any previous card with the
// same id.
func (s *State) InitCard(device ble.Device) Card {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	gen := 1
	if old, ok := s.cards[device.ID]; ok {
		gen = old.Generation + 1
	}
	card := &Card{
		DeviceID:   device.ID,
		Name:       device.Name,
		Nickname:   s.nicknames[ble.NormalizeAddress(device.ID)],
		Status:     StatusConnecting,
		Generation: gen,
		UpdatedAt:  s.now(),
	}
	s.cards[device.ID] = card
	snapshot := *card
	p = append(p, func(e Events) { e.StatusChanged(snapshot) })
	s.logLocked(&p, "Device card initialized: %s", device.Name)
	s.mu.Unlock()
	s.flush(p)
	return snapshot
}

// SetStatus moves a card to a new status, updating the connected set and
// logging the transition. Statuses other than connected and disconnected are
// shown as errors.
func (s *State) SetStatus(id string, status Status) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	s.setStatusLocked(&p, id, status)
	s.mu.Unlock()
	s.flush(p)
}

func (s *State) setStatusLocked(p *pending, id string, status Status) {
	card, ok := s.cards[id]
	if !ok {
		logging.Warn("Status change for device without card", zap.String("device_id", id), zap.String("status", string(status)))
		return
	}

	switch status {
	case StatusConnected:
		s.logLocked(p, "Connected to %s", card.Name)
		s.connected[id] = true
		card.Status = StatusConnected
	case StatusDisconnected:
		s.logLocked(p, "Disconnected from %s", card.Name)
		delete(s.connected, id)
		card.Status = StatusDisconnected
	default:
		s.logLocked(p, "Connection Status Unknown %s", status)
		delete(s.connected, id)
		card.Status = StatusError
	}
	card.UpdatedAt = s.now()
	snapshot := *card
	logging.LogDeviceEvent(id, "status", zap.String("status", string(snapshot.Status)))
	*p = append(*p, func(e Events) { e.StatusChanged(snapshot) })
}

// RecordSwitch stores the latest switch payload on the card
func (s *State) RecordSwitch(id, hex string) {
	s.updateCard(id, func(c *Card) { c.LastSwitch = hex })
}

// RecordTemperature stores the latest temperature on the card
func (s *State) RecordTemperature(id string, celsius float64) {
	s.updateCard(id, func(c *Card) {
		c.LastTemperature = celsius
		c.HasTemperature = true
	})
}

func (s *State) updateCard(id string, fn func(*Card)) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	var p pending
	s.mu.Lock()
	card, ok := s.cards[id]
	if ok {
		fn(card)
		card.UpdatedAt = s.now()
		snapshot := *card
		p = append(p, func(e Events) { e.StatusChanged(snapshot) })
	}
	s.mu.Unlock()
	s.flush(p)
}

// Card returns the card for id
func (s *State) Card(id string) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return Card{}, false
	}
	return *c, true
}

// Cards returns all cards in discovery order
func (s *State) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Card
	seen := make(map[string]bool)
	for _, id := range s.order {
		if c, ok := s.cards[id]; ok {
			out = append(out, *c)
			seen[id] = true
		}
	}
	for id, c := range s.cards {
		if !seen[id] {
			out = append(out, *c)
		}
	}
	return out
}

// Alert shows a modal message
func (s *State) Alert(alert Alert) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.flush(pending{func(e Events) { e.Alert(alert) }})
}

// SDKError raises the alert shown for BLE stack failures
func (s *State) SDKError(err error) {
	logging.Error("BLE error", zap.String("code", string(ble.CodeOf(err))), zap.Error(err))
	s.Alert(Alert{
		Title: "SDK Error",
		Lines: []string{
			fmt.Sprintf("SDK Error: %s", ble.CodeOf(err)),
			fmt.Sprintf("Message: %s", ble.MessageOf(err)),
		},
	})
}

// SetAvailable records Bluetooth availability; events fire only on change
func (s *State) SetAvailable(available bool) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	changed := s.available == nil || *s.available != available
	s.available = &available
	s.mu.Unlock()

	if changed {
		s.flush(pending{func(e Events) { e.AvailabilityChanged(available) }})
	}
}

// Available reports the last known availability
func (s *State) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available != nil && *s.available
}

// LogCount returns the number of lines logged so far
func (s *State) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logNumber - 1
}
