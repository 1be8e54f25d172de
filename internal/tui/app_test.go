package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble/bletest"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

var testBoard = ble.Device{ID: "E4:5F:01:AA:BB:CC", Name: "dev board", RSSI: -60}

// chanSender buffers messages so tests can feed them to the model in order
type chanSender struct {
	ch chan tea.Msg
}

func (s chanSender) Send(msg tea.Msg) { s.ch <- msg }

type harness struct {
	model   AppModel
	msgs    chan tea.Msg
	adapter *bletest.Adapter
	periph  *bletest.Peripheral
	state   *session.State
	manager *connection.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	msgs := make(chan tea.Msg, 256)
	state := session.New(NewBridge(chanSender{ch: msgs}))

	profile := thingsboard.DefaultProfile()
	adapter := bletest.NewAdapter()
	p := bletest.NewPeripheral(testBoard.ID)
	p.SetValue(profile.VersionUUID, []byte{2})
	adapter.AddPeripheral(p)

	manager := connection.NewManager(adapter, state, profile, connection.DefaultSetup())
	model := NewAppModel(context.Background(), Deps{Session: state, Manager: manager, Stack: "test-stack v0"})
	h := &harness{model: model, msgs: msgs, adapter: adapter, periph: p, state: state, manager: manager}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(AppModel)
	return cmd
}

// drain applies every queued session event
func (h *harness) drain() {
	for {
		select {
		case msg := <-h.msgs:
			h.send(msg)
		default:
			return
		}
	}
}

func (h *harness) key(k string) tea.Cmd {
	switch k {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestDeviceFoundAndUpdated(t *testing.T) {
	h := newHarness(t)

	h.state.Discover(testBoard)
	refreshed := testBoard
	refreshed.RSSI = -40
	h.state.Discover(refreshed)
	h.drain()

	items := h.model.Devices.Items()
	if len(items) != 1 {
		t.Fatalf("len(Items()) = %d, want 1", len(items))
	}
	if got := items[0].(deviceItem).device.RSSI; got != -40 {
		t.Errorf("RSSI = %d, want -40", got)
	}
	if id, ok := h.model.SelectedID(); !ok || id != testBoard.ID {
		t.Errorf("SelectedID() = %q, %v", id, ok)
	}
	if !strings.Contains(h.model.View(), "#1> Device found: dev board") {
		t.Error("View() should show the numbered log line")
	}
}

func TestConnectAndDisconnect(t *testing.T) {
	h := newHarness(t)
	h.state.Discover(testBoard)
	h.drain()

	cmd := h.key("enter")
	if cmd == nil {
		t.Fatal("enter should start a connection")
	}
	done, ok := cmd().(connectDoneMsg)
	if !ok || done.err != nil || done.report == nil {
		t.Fatalf("connect cmd = %+v", done)
	}
	h.send(done)
	h.drain()

	card, ok := h.model.Cards[testBoard.ID]
	if !ok || card.Status != session.StatusConnected {
		t.Fatalf("card = %+v, want connected", card)
	}
	if !h.model.Devices.Items()[0].(deviceItem).active {
		t.Error("list item should be active while connected")
	}
	view := h.model.View()
	for _, want := range []string{"Connected", "[d] disconnect", "Temperature:"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	h.periph.Notify(thingsboard.DefaultProfile().TemperatureUUID, []byte{0x09, 0xc4})
	h.drain()
	if c := h.model.Cards[testBoard.ID]; !c.HasTemperature || c.LastTemperature != 22.44 {
		t.Errorf("temperature = %v (%v), want 22.44", c.LastTemperature, c.HasTemperature)
	}

	cmd = h.key("d")
	if cmd == nil {
		t.Fatal("d should disconnect a connected device")
	}
	h.send(cmd())
	h.drain()

	if c := h.model.Cards[testBoard.ID]; c.Status != session.StatusDisconnected {
		t.Errorf("status = %v, want disconnected", c.Status)
	}
	if h.model.Devices.Items()[0].(deviceItem).active {
		t.Error("list item should be inactive after disconnect")
	}
	if strings.Contains(h.model.View(), "[d] disconnect") {
		t.Error("disconnect hint should only show while connected")
	}
	if cmd := h.key("d"); cmd != nil {
		t.Error("d on a disconnected card should do nothing")
	}
}

func TestConnectFailureShowsAlert(t *testing.T) {
	h := newHarness(t)
	h.adapter.FailConnect(testBoard.ID, ble.NewError(ble.CodeConnectFailed, "gatt refused", nil))
	h.state.Discover(testBoard)
	h.drain()

	h.send(h.key("enter")())
	h.drain()

	if c := h.model.Cards[testBoard.ID]; c.Status != session.StatusError {
		t.Errorf("status = %v, want error", c.Status)
	}
	if len(h.model.Alerts) != 1 {
		t.Fatalf("len(Alerts) = %d, want 1", len(h.model.Alerts))
	}
	view := h.model.View()
	if !strings.Contains(view, "SDK Error: connect_failed") {
		t.Errorf("alert should be rendered, got:\n%s", view)
	}
}

func TestAlerts(t *testing.T) {
	tests := []struct {
		name      string
		blocking  bool
		key       string
		wantShown bool
	}{
		{"enter closes blocking", true, "enter", false},
		{"esc keeps blocking", true, "esc", true},
		{"esc closes non-blocking", false, "esc", false},
		{"other keys ignored", false, "r", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.send(AlertMsg{Alert: session.Alert{Title: "Notice", Lines: []string{"hello"}, Blocking: tt.blocking}})

			if cmd := h.key(tt.key); cmd != nil {
				t.Error("keys should not start work while an alert is shown")
			}
			if got := len(h.model.Alerts) > 0; got != tt.wantShown {
				t.Errorf("alert shown = %v, want %v", got, tt.wantShown)
			}
		})
	}
}

func TestAlertsQueue(t *testing.T) {
	h := newHarness(t)
	h.send(AlertMsg{Alert: session.Alert{Title: "first"}})
	h.send(AlertMsg{Alert: session.Alert{Title: "second"}})

	h.key("enter")
	if !strings.Contains(h.model.View(), "second") {
		t.Error("second alert should show after the first closes")
	}
	h.key("enter")
	if len(h.model.Alerts) != 0 {
		t.Errorf("len(Alerts) = %d, want 0", len(h.model.Alerts))
	}
}

func TestBanner(t *testing.T) {
	h := newHarness(t)

	h.send(AvailabilityMsg{Available: false})
	if !strings.Contains(h.model.View(), "Bluetooth is unavailable") {
		t.Error("unavailable banner missing")
	}

	h.send(AvailabilityMsg{Available: true})
	h.send(scanDoneMsg{err: errors.New("scan_failed: adapter gone")})
	if h.model.Scanning {
		t.Error("Scanning should be false after the scanner stops")
	}
	if !strings.Contains(h.model.View(), "press r to rescan") {
		t.Error("scan error banner missing")
	}

	h.key("r")
	if !h.model.Scanning || h.model.ScanErr != nil {
		t.Errorf("rescan: Scanning = %v, ScanErr = %v", h.model.Scanning, h.model.ScanErr)
	}
}

func TestBanner_ScanErrorHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{"retryable", ble.NewError(ble.CodeScanFailed, "scan interrupted", nil), false},
		{"adapter", ble.NewError(ble.CodeAdapterFailed, "hci0 down", nil), true},
		{"plain", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.send(scanDoneMsg{err: tt.err})
			banner := h.model.renderBanner()
			if !strings.Contains(banner, "press r to rescan") {
				t.Errorf("banner = %q, want rescan hint", banner)
			}
			hint := ble.TroubleshootingHint(tt.err)[0]
			if got := strings.Contains(banner, hint); got != tt.wantHint {
				t.Errorf("banner contains %q = %v, want %v", hint, got, tt.wantHint)
			}
		})
	}
}

func TestScanCancelledIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.send(scanDoneMsg{err: context.Canceled})
	if h.model.ScanErr != nil {
		t.Errorf("ScanErr = %v, want nil", h.model.ScanErr)
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	cmd := h.key("q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestHeaderShowsStack(t *testing.T) {
	h := newHarness(t)
	if !strings.Contains(h.model.View(), "SDK Ver: test-stack v0") {
		t.Error("header should show the BLE stack revision")
	}
}
