package session

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

var board = ble.Device{ID: "E4:5F:01:AA:BB:CC", Name: "LINE Things dev board", RSSI: -60}

func TestNew_SessionID(t *testing.T) {
	s := New(nil)
	if _, err := ulid.ParseStrict(s.ID); err != nil {
		t.Errorf("ID %q is not a ULID: %v", s.ID, err)
	}
}

func TestLogLine_String(t *testing.T) {
	l := LogLine{Number: 7, Text: "Finding devices..."}
	if got, want := l.String(), "#7> Finding devices..."; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLogf_NumbersFromOne(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)

	s.Logf("first")
	s.Logf("second %d", 2)

	if len(rec.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(rec.Lines))
	}
	if rec.Lines[0].String() != "#1> first" || rec.Lines[1].String() != "#2> second 2" {
		t.Errorf("lines = %v", rec.Lines)
	}
	if s.LogCount() != 2 {
		t.Errorf("LogCount() = %d, want 2", s.LogCount())
	}
}

func TestDiscover_AppendOncePerID(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)

	if !s.Discover(board) {
		t.Error("first Discover() = false, want true")
	}
	again := board
	again.RSSI = -40
	if s.Discover(again) {
		t.Error("second Discover() = true, want false")
	}

	if len(rec.Found) != 1 {
		t.Errorf("DeviceFound events = %d, want 1", len(rec.Found))
	}
	if len(rec.Updated) != 1 || rec.Updated[0].RSSI != -40 {
		t.Errorf("DeviceUpdated events = %v, want one with RSSI -40", rec.Updated)
	}
	if devs := s.Devices(); len(devs) != 1 || devs[0].RSSI != -40 {
		t.Errorf("Devices() = %v, want one device with refreshed RSSI", devs)
	}
	if got := rec.Texts(); !reflect.DeepEqual(got, []string{"Device found: LINE Things dev board"}) {
		t.Errorf("log = %v", got)
	}
}

func TestBeginConnect_Idempotent(t *testing.T) {
	s := New(nil)

	if !s.BeginConnect("A") {
		t.Fatal("BeginConnect() = false, want true")
	}
	if s.BeginConnect("A") {
		t.Error("BeginConnect() while connecting = true, want false")
	}

	s.FinishConnect("A", StatusError)
	if s.IsConnecting("A") {
		t.Error("IsConnecting() after FinishConnect = true")
	}
	if !s.BeginConnect("A") {
		t.Error("BeginConnect() after FinishConnect = false, want true")
	}
}

func TestBeginConnect_RejectsConnected(t *testing.T) {
	s := New(nil)
	s.InitCard(board)
	s.SetStatus(board.ID, StatusConnected)

	if s.BeginConnect(board.ID) {
		t.Error("BeginConnect() on connected device = true, want false")
	}
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		wantStatus    Status
		wantConnected bool
		wantLog       string
	}{
		{"connected", StatusConnected, StatusConnected, true, "Connected to LINE Things dev board"},
		{"disconnected", StatusDisconnected, StatusDisconnected, false, "Disconnected from LINE Things dev board"},
		{"error", StatusError, StatusError, false, "Connection Status Unknown error"},
		{"unknown", Status("weird"), StatusError, false, "Connection Status Unknown weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{}
			s := New(rec)
			s.InitCard(board)
			s.SetStatus(board.ID, tt.status)

			card, ok := s.Card(board.ID)
			if !ok {
				t.Fatal("Card() not found")
			}
			if card.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", card.Status, tt.wantStatus)
			}
			if s.IsConnected(board.ID) != tt.wantConnected {
				t.Errorf("IsConnected() = %v, want %v", s.IsConnected(board.ID), tt.wantConnected)
			}
			texts := rec.Texts()
			if got := texts[len(texts)-1]; got != tt.wantLog {
				t.Errorf("last log = %q, want %q", got, tt.wantLog)
			}
		})
	}
}

func TestFinishConnect(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		wantConnected bool
	}{
		{"success", StatusConnected, true},
		{"failure", StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{}
			s := New(rec)
			s.BeginConnect(board.ID)
			s.InitCard(board)
			s.FinishConnect(board.ID, tt.status)

			if s.IsConnecting(board.ID) {
				t.Error("IsConnecting() = true after FinishConnect")
			}
			if s.IsConnected(board.ID) != tt.wantConnected {
				t.Errorf("IsConnected() = %v, want %v", s.IsConnected(board.ID), tt.wantConnected)
			}
			want := []Status{StatusConnecting, tt.status}
			if got := rec.StatusTrail(board.ID); !reflect.DeepEqual(got, want) {
				t.Errorf("StatusTrail() = %v, want %v", got, want)
			}
		})
	}
}

func TestSetStatus_WithoutCardIsIgnored(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)
	s.SetStatus("missing", StatusConnected)
	if len(rec.Statuses) != 0 || s.IsConnected("missing") {
		t.Error("SetStatus without a card should change nothing")
	}
}

func TestNicknames_IgnoreAddressCase(t *testing.T) {
	s := New(&Recorder{})
	s.SetNicknames(map[string]string{strings.ToLower(board.ID): "desk"})

	if got := s.Nickname(board.ID); got != "desk" {
		t.Errorf("Nickname(%q) = %q, want desk", board.ID, got)
	}
	if got := s.Nickname(strings.ToLower(board.ID)); got != "desk" {
		t.Errorf("Nickname(lower) = %q, want desk", got)
	}
	if card := s.InitCard(board); card.Nickname != "desk" {
		t.Errorf("card.Nickname = %q, want desk", card.Nickname)
	}
}

func TestInitCard_ReplacesExisting(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)
	s.SetNicknames(map[string]string{board.ID: "desk"})

	first := s.InitCard(board)
	s.RecordTemperature(board.ID, 21.5)
	second := s.InitCard(board)

	if first.Generation != 1 || second.Generation != 2 {
		t.Errorf("generations = %d, %d, want 1, 2", first.Generation, second.Generation)
	}
	if second.HasTemperature {
		t.Error("replaced card should not keep old details")
	}
	if second.Title() != "desk" {
		t.Errorf("Title() = %q, want nickname", second.Title())
	}
	if n := len(s.Cards()); n != 1 {
		t.Errorf("len(Cards()) = %d, want 1", n)
	}
	if got := rec.Texts(); got[0] != "Device card initialized: LINE Things dev board" {
		t.Errorf("log = %v", got)
	}
}

func TestRecordDetails(t *testing.T) {
	s := New(nil)
	s.InitCard(board)
	s.RecordSwitch(board.ID, "0100")
	s.RecordTemperature(board.ID, -0.5)

	card, _ := s.Card(board.ID)
	if card.LastSwitch != "0100" || !card.HasTemperature || card.LastTemperature != -0.5 {
		t.Errorf("card = %+v", card)
	}

	// Unknown ids are ignored
	s.RecordSwitch("missing", "ff")
	if _, ok := s.Card("missing"); ok {
		t.Error("RecordSwitch created a card")
	}
}

func TestSDKError(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)
	s.SDKError(ble.NewDeviceError(ble.CodeConnectFailed, board.ID, "connect failed", errors.New("abort")))

	alert, ok := rec.LastAlert()
	if !ok {
		t.Fatal("no alert")
	}
	want := []string{"SDK Error: connect_failed", "Message: connect failed: abort"}
	if !reflect.DeepEqual(alert.Lines, want) {
		t.Errorf("alert lines = %v, want %v", alert.Lines, want)
	}
	if alert.Blocking {
		t.Error("SDK error alerts should not block")
	}
}

func TestSetAvailable_OnlyOnChange(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)

	s.SetAvailable(false)
	s.SetAvailable(false)
	s.SetAvailable(true)
	s.SetAvailable(true)

	if !reflect.DeepEqual(rec.Availability, []bool{false, true}) {
		t.Errorf("availability events = %v, want [false true]", rec.Availability)
	}
	if !s.Available() {
		t.Error("Available() = false, want true")
	}
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	s := New(Multi{a, b})
	s.Logf("hello")
	s.Discover(board)

	for i, r := range []*Recorder{a, b} {
		if strings.Join(r.Texts(), "|") != "hello|Device found: LINE Things dev board" {
			t.Errorf("sink %d texts = %v", i, r.Texts())
		}
		if len(r.Found) != 1 {
			t.Errorf("sink %d found = %d, want 1", i, len(r.Found))
		}
	}
}

func TestStatusTrail(t *testing.T) {
	rec := &Recorder{}
	s := New(rec)
	s.InitCard(board)
	s.SetStatus(board.ID, StatusConnected)
	s.RecordSwitch(board.ID, "01")
	s.SetStatus(board.ID, StatusDisconnected)

	want := []Status{StatusConnecting, StatusConnected, StatusDisconnected}
	if got := rec.StatusTrail(board.ID); !reflect.DeepEqual(got, want) {
		t.Errorf("StatusTrail() = %v, want %v", got, want)
	}
}
