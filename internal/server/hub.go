package server

import (
	"sync"
	"time"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// EventType names the kind of session event carried by an Event
type EventType string

const (
	EventDevice        EventType = "device"
	EventDeviceUpdated EventType = "device_updated"
	EventStatus        EventType = "status"
	EventLog           EventType = "log"
	EventAlert         EventType = "alert"
	EventAvailability  EventType = "availability"
)

// Event is one session event as sent over the WebSocket stream. Exactly one
// payload field is set, matching Type.
type Event struct {
	Type EventType `json:"type"`
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`

	Device    *ble.Device      `json:"device,omitempty"`
	Card      *session.Card    `json:"card,omitempty"`
	Line      *session.LogLine `json:"line,omitempty"`
	Alert     *session.Alert   `json:"alert,omitempty"`
	Available *bool            `json:"available,omitempty"`
}

// Deliver replays e into sink, so a remote session can drive the same
// sinks as a local one. Events without their payload are ignored.
func (e Event) Deliver(sink session.Events) {
	switch {
	case e.Type == EventDevice && e.Device != nil:
		sink.DeviceFound(*e.Device)
	case e.Type == EventDeviceUpdated && e.Device != nil:
		sink.DeviceUpdated(*e.Device)
	case e.Type == EventStatus && e.Card != nil:
		sink.StatusChanged(*e.Card)
	case e.Type == EventLog && e.Line != nil:
		sink.LogLine(*e.Line)
	case e.Type == EventAlert && e.Alert != nil:
		sink.Alert(*e.Alert)
	case e.Type == EventAvailability && e.Available != nil:
		sink.AvailabilityChanged(*e.Available)
	}
}

// DefaultBacklog is the number of events replayed to a new client
const DefaultBacklog = 1000

// clientBuffer is how many events a slow client may fall behind before it
// is dropped
const clientBuffer = 256

// Hub records session events and fans them out to WebSocket clients. New
// clients first receive the backlog, then live events, with no gap or
// duplicate between the two.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	backlog []Event
	limit   int
	clients map[*client]struct{}
	now     func() time.Time
}

type client struct {
	send chan Event
}

var _ session.Events = (*Hub)(nil)

// NewHub creates a hub keeping at most limit events for replay
func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = DefaultBacklog
	}
	return &Hub{
		limit:   limit,
		clients: make(map[*client]struct{}),
		now:     time.Now,
	}
}

func (h *Hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e.Seq = h.seq
	e.Time = h.now()

	h.backlog = append(h.backlog, e)
	if len(h.backlog) > h.limit {
		h.backlog = append([]Event(nil), h.backlog[len(h.backlog)-h.limit:]...)
	}

	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			// Too slow; the write pump sees the closed channel and hangs up
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// subscribe registers a client and returns the backlog it must send first
func (h *Hub) subscribe() (*client, []Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{send: make(chan Event, clientBuffer)}
	h.clients[c] = struct{}{}
	return c, append([]Event(nil), h.backlog...)
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Backlog returns a copy of the events kept for replay
func (h *Hub) Backlog() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.backlog...)
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) DeviceFound(d ble.Device) {
	h.publish(Event{Type: EventDevice, Device: &d})
}

func (h *Hub) DeviceUpdated(d ble.Device) {
	h.publish(Event{Type: EventDeviceUpdated, Device: &d})
}

func (h *Hub) StatusChanged(c session.Card) {
	h.publish(Event{Type: EventStatus, Card: &c})
}

func (h *Hub) LogLine(l session.LogLine) {
	h.publish(Event{Type: EventLog, Line: &l})
}

func (h *Hub) Alert(a session.Alert) {
	h.publish(Event{Type: EventAlert, Alert: &a})
}

func (h *Hub) AvailabilityChanged(available bool) {
	h.publish(Event{Type: EventAvailability, Available: &available})
}
