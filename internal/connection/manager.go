package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/urls"
)

var (
	// ErrUnknownDevice is returned when selecting an id the scanner never reported
	ErrUnknownDevice = errors.New("device not discovered")

	// ErrNotConnected is returned when disconnecting a device with no open connection
	ErrNotConnected = errors.New("device not connected")

	// ErrUnsupportedFirmware is returned by CheckVersion for firmware version 1 or older
	ErrUnsupportedFirmware = errors.New("unsupported firmware version")

	// ErrLinkLost is returned by Select when the link drops before the
	// connection is registered
	ErrLinkLost = errors.New("link lost while connecting")
)

// UpdateFirmwareMessage is the alert text shown for unsupported firmware
const UpdateFirmwareMessage = "Do not support this mode. Please update device firmware"

// Report summarises one successful connect sequence
type Report struct {
	DeviceID   string
	Version    int
	VersionErr error
	Steps      []StepResult
}

// Failed returns the setup steps that failed
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Manager connects to selected devices and runs the board setup sequence.
type Manager struct {
	adapter ble.Adapter
	state   *session.State
	profile thingsboard.Profile
	setup   SetupConfig

	// OnConnected, if set, runs after a connection succeeds and before the
	// version check.
	OnConnected func(device ble.Device)

	// Progress, if set, is called after each setup step.
	Progress func(deviceID string, done, total int, r StepResult)

	mu    sync.Mutex
	conns map[string]ble.Conn
	hooks map[string]*disconnectHook
}

// NewManager creates a connection manager
func NewManager(adapter ble.Adapter, state *session.State, profile thingsboard.Profile, setup SetupConfig) *Manager {
	return &Manager{
		adapter: adapter,
		state:   state,
		profile: profile.Normalize(),
		setup:   setup,
		conns:   make(map[string]ble.Conn),
		hooks:   make(map[string]*disconnectHook),
	}
}

// Select connects to a discovered device and configures it. Selecting a
// device that is already connecting or connected only logs and returns
// (nil, nil). Version and setup failures are reported in the Report, not as
// an error.
func (m *Manager) Select(ctx context.Context, id string) (*Report, error) {
	device, ok := m.state.Device(id)
	if !ok {
		m.state.Logf("No devices found. You must request a device first.")
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}

	m.state.Logf("Device selected: %s", device.Name)
	if !m.state.BeginConnect(id) {
		m.state.Logf("Already connected to this device.")
		return nil, nil
	}

	m.state.InitCard(device)

	hook := &disconnectHook{}
	hook.fn = func() { m.handleDisconnect(id, hook) }
	hook.attach(m.adapter.OnDisconnect(id, hook.fire))

	m.state.Logf("Connecting %s", device.Name)
	logging.LogDeviceEvent(id, "connecting", zap.String("name", device.Name))

	conn, err := m.adapter.Connect(ctx, &device)
	if err != nil {
		hook.cancel()
		m.state.SDKError(err)
		m.state.Logf("ERROR on gatt.connect(%s): %v", id, err)
		m.state.FinishConnect(id, session.StatusError)
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}

	// Registration and the connected status happen under mu so a disconnect
	// lands either before (link lost) or after (normal disconnect) both.
	m.mu.Lock()
	if hook.spent() {
		m.mu.Unlock()
		_ = conn.Disconnect()
		logging.LogDeviceEvent(id, "link_lost_while_connecting")
		m.state.FinishConnect(id, session.StatusDisconnected)
		return nil, fmt.Errorf("%w: %s", ErrLinkLost, id)
	}
	m.conns[id] = conn
	m.hooks[id] = hook
	m.state.FinishConnect(id, session.StatusConnected)
	m.mu.Unlock()

	if m.OnConnected != nil {
		m.OnConnected(device)
	}

	board := thingsboard.New(conn, m.profile)
	report := &Report{DeviceID: id}
	report.Version, report.VersionErr = m.CheckVersion(ctx, board)

	var progress func(done, total int, r StepResult)
	if m.Progress != nil {
		progress = func(done, total int, r StepResult) { m.Progress(id, done, total, r) }
	}
	report.Steps = m.RunSetup(ctx, board, progress)

	logging.LogDeviceEvent(id, "setup_complete",
		zap.Int("version", report.Version),
		zap.Int("failed_steps", len(report.Failed())))
	return report, nil
}

// CheckVersion reads the firmware version and warns about firmware that does
// not support notifications. Setup should proceed either way.
func (m *Manager) CheckVersion(ctx context.Context, board *thingsboard.Board) (int, error) {
	version, err := board.ReadVersion(ctx)
	if err != nil {
		m.state.SDKError(err)
		m.state.Logf("ERROR on deviceVersionRead: %v", err)
		return 0, err
	}

	if version > 1 {
		m.state.Logf("Firmware Version : %d", version)
		return version, nil
	}

	m.state.Logf("%s. Version : %d", UpdateFirmwareMessage, version)
	m.state.Alert(session.Alert{
		Title:    "Firmware",
		Lines:    []string{UpdateFirmwareMessage, "See " + urls.BoardFirmware},
		Blocking: true,
	})
	return version, fmt.Errorf("%w: %d", ErrUnsupportedFirmware, version)
}

// Disconnect drops the link to id at the user's request
func (m *Manager) Disconnect(id string) error {
	m.mu.Lock()
	conn := m.conns[id]
	hook := m.hooks[id]
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, id)
	}

	m.state.Logf("Clicked disconnect button")
	err := conn.Disconnect()
	if err != nil {
		m.state.SDKError(err)
	}

	// Not every backend reports a locally initiated disconnect.
	if hook != nil {
		hook.fire()
	}
	return err
}

// Connected returns the ids with an open connection
func (m *Manager) Connected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids
}

// Close disconnects every open connection
func (m *Manager) Close() error {
	m.mu.Lock()
	conns := make(map[string]ble.Conn, len(m.conns))
	for id, c := range m.conns {
		conns[id] = c
	}
	m.mu.Unlock()

	var errs []error
	for id, c := range conns {
		if err := c.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// handleDisconnect runs once per connection. A hook that fires before
// Select registers it is left for Select to resolve.
func (m *Manager) handleDisconnect(id string, hook *disconnectHook) {
	m.mu.Lock()
	if m.hooks[id] != hook {
		m.mu.Unlock()
		return
	}
	delete(m.conns, id)
	delete(m.hooks, id)
	m.mu.Unlock()

	logging.LogDeviceEvent(id, "disconnected")
	m.state.SetStatus(id, session.StatusDisconnected)
}

// disconnectHook runs fn at most once and deregisters itself from the
// adapter when it does.
type disconnectHook struct {
	mu     sync.Mutex
	fn     func()
	remove func()
	done   bool
}

func (h *disconnectHook) attach(remove func()) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		remove()
		return
	}
	h.remove = remove
	h.mu.Unlock()
}

func (h *disconnectHook) fire() {
	if h.finish() {
		h.fn()
	}
}

// spent reports whether the hook has fired or been cancelled
func (h *disconnectHook) spent() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// cancel deregisters the hook without running fn
func (h *disconnectHook) cancel() {
	h.finish()
}

func (h *disconnectHook) finish() bool {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return false
	}
	h.done = true
	remove := h.remove
	h.mu.Unlock()

	if remove != nil {
		remove()
	}
	return true
}
