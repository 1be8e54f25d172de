// Package bletest provides a scriptable in-memory ble.Adapter for tests.
package bletest

import (
	"context"
	"sync"
	"time"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

// Adapter is a fake ble.Adapter. Devices queued with Advertise are handed out
// one per RequestDevice call; when the queue is empty RequestDevice blocks
// until a device is queued or the context ends.
type Adapter struct {
	*ble.DisconnectListeners

	mu            sync.Mutex
	availability  []availabilityResult
	queue         []ble.Device
	queued        chan struct{}
	requestErrs   []error
	connectErrs   map[string]error
	peripherals   map[string]*Peripheral
	requestCalls  int
	availCalls    int
	connectCalls  map[string]int
	connectGate   chan struct{}
	connectedConn map[string]*Conn
}

type availabilityResult struct {
	ok  bool
	err error
}

var _ ble.Adapter = (*Adapter)(nil)

// NewAdapter creates a fake adapter that reports Bluetooth as available
func NewAdapter() *Adapter {
	return &Adapter{
		DisconnectListeners: ble.NewDisconnectListeners(),
		queued:              make(chan struct{}, 1),
		connectErrs:         make(map[string]error),
		peripherals:         make(map[string]*Peripheral),
		connectCalls:        make(map[string]int),
		connectedConn:       make(map[string]*Conn),
	}
}

// ScriptAvailability queues results for successive Available calls. Once the
// script is exhausted the last result repeats; an empty script means available.
func (a *Adapter) ScriptAvailability(results ...bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ok := range results {
		a.availability = append(a.availability, availabilityResult{ok: ok})
	}
}

// FailAvailability queues an error for the next Available call
func (a *Adapter) FailAvailability(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.availability = append(a.availability, availabilityResult{err: err})
}

func (a *Adapter) Available(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.availCalls++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(a.availability) == 0 {
		return true, nil
	}
	r := a.availability[0]
	if len(a.availability) > 1 {
		a.availability = a.availability[1:]
	} else if r.err != nil {
		// Errors are one-shot; fall back to available afterwards.
		a.availability = nil
	}
	return r.ok, r.err
}

// Advertise queues devices to be returned by RequestDevice
func (a *Adapter) Advertise(devices ...ble.Device) {
	a.mu.Lock()
	a.queue = append(a.queue, devices...)
	a.mu.Unlock()

	select {
	case a.queued <- struct{}{}:
	default:
	}
}

// FailRequest makes the next RequestDevice call return err
func (a *Adapter) FailRequest(err error) {
	a.mu.Lock()
	a.requestErrs = append(a.requestErrs, err)
	a.mu.Unlock()

	select {
	case a.queued <- struct{}{}:
	default:
	}
}

func (a *Adapter) RequestDevice(ctx context.Context) (*ble.Device, error) {
	for {
		a.mu.Lock()
		if len(a.requestErrs) > 0 {
			err := a.requestErrs[0]
			a.requestErrs = a.requestErrs[1:]
			a.requestCalls++
			a.mu.Unlock()
			return nil, err
		}
		if len(a.queue) > 0 {
			dev := a.queue[0]
			a.queue = a.queue[1:]
			a.requestCalls++
			a.mu.Unlock()
			if dev.SeenAt.IsZero() {
				dev.SeenAt = time.Now()
			}
			return &dev, nil
		}
		a.mu.Unlock()

		select {
		case <-a.queued:
		case <-ctx.Done():
			return nil, ble.NewError(ble.CodeTimeout, "scan cancelled", ctx.Err())
		}
	}
}

// RequestCalls returns how many RequestDevice calls produced a result
func (a *Adapter) RequestCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requestCalls
}

// AvailabilityCalls returns how many times Available was called
func (a *Adapter) AvailabilityCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.availCalls
}

// AddPeripheral registers the GATT server Connect will attach to for p.ID
func (a *Adapter) AddPeripheral(p *Peripheral) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.peripherals[p.ID] = p
}

// FailConnect makes Connect to deviceID fail with err
func (a *Adapter) FailConnect(deviceID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectErrs[deviceID] = err
}

// HoldConnect makes Connect block until the returned func is called.
func (a *Adapter) HoldConnect() (release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	gate := make(chan struct{})
	a.connectGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (a *Adapter) Connect(ctx context.Context, device *ble.Device) (ble.Conn, error) {
	a.mu.Lock()
	a.connectCalls[device.ID]++
	gate := a.connectGate
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ble.NewDeviceError(ble.CodeTimeout, device.ID, "connect cancelled", ctx.Err())
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.connectErrs[device.ID]; err != nil {
		return nil, err
	}
	p := a.peripherals[device.ID]
	if p == nil {
		p = NewPeripheral(device.ID)
		a.peripherals[device.ID] = p
	}
	conn := &Conn{adapter: a, peripheral: p}
	a.connectedConn[device.ID] = conn
	return conn, nil
}

// ConnectCalls returns how many times Connect was called for deviceID
func (a *Adapter) ConnectCalls(deviceID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connectCalls[deviceID]
}

// DropLink simulates the peripheral going out of range
func (a *Adapter) DropLink(deviceID string) {
	a.mu.Lock()
	delete(a.connectedConn, deviceID)
	a.mu.Unlock()
	a.Fire(deviceID)
}

// Conn is the fake connection returned by Adapter.Connect
type Conn struct {
	adapter    *Adapter
	peripheral *Peripheral
	closed     bool
}

func (c *Conn) DeviceID() string { return c.peripheral.ID }

func (c *Conn) Read(ctx context.Context, uuid string) ([]byte, error) {
	return c.peripheral.read(uuid)
}

func (c *Conn) Write(ctx context.Context, uuid string, data []byte) error {
	return c.peripheral.write(uuid, data)
}

func (c *Conn) Subscribe(ctx context.Context, uuid string, fn func(data []byte)) error {
	return c.peripheral.subscribe(uuid, fn)
}

func (c *Conn) Disconnect() error {
	c.adapter.mu.Lock()
	if c.closed {
		c.adapter.mu.Unlock()
		return nil
	}
	c.closed = true
	delete(c.adapter.connectedConn, c.peripheral.ID)
	c.adapter.mu.Unlock()

	c.adapter.Fire(c.peripheral.ID)
	return nil
}
