package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble/bletest"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

func TestDeviceWaiter(t *testing.T) {
	w := newDeviceWaiter("e4:5f:01:aa:bb:cc")

	w.DeviceFound(ble.Device{ID: "11:22:33:44:55:66"})
	select {
	case <-w.ch:
		t.Fatal("waiter fired for another device")
	default:
	}

	w.DeviceFound(ble.Device{ID: "E4:5F:01:AA:BB:CC"})
	w.DeviceFound(ble.Device{ID: "E4:5F:01:AA:BB:CC"})
	select {
	case <-w.ch:
	case <-time.After(time.Second):
		t.Fatal("waiter did not fire for its device")
	}
}

func TestFirmwareLabel(t *testing.T) {
	tests := []struct {
		name   string
		report connection.Report
		want   string
	}{
		{"supported", connection.Report{Version: 2}, "v2"},
		{"unsupported", connection.Report{Version: 1, VersionErr: fmt.Errorf("%w: 1", connection.ErrUnsupportedFirmware)}, "v1 (unsupported)"},
		{"read failed", connection.Report{VersionErr: fmt.Errorf("read failed")}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firmwareLabel(&tt.report); got != tt.want {
				t.Errorf("firmwareLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"scan"},
		{"connect"},
		{"watch"},
		{"version"},
		{"config", "path"},
		{"config", "show"},
		{"config", "init"},
		{"config", "nickname"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("Find(%v) error = %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) = %q", path, cmd.Name())
		}
	}
}

func TestNotifySessionClose(t *testing.T) {
	board := ble.Device{ID: "E4:5F:01:AA:BB:CC", Name: "LINE Things dev board"}
	profile := thingsboard.DefaultProfile()

	adapter := bletest.NewAdapter()
	p := bletest.NewPeripheral(board.ID)
	p.SetValue(profile.VersionUUID, []byte{2})
	adapter.AddPeripheral(p)

	state := session.New(&session.Recorder{})
	state.Discover(board)
	s := &notifySession{
		state:   state,
		adapter: adapter,
		manager: connection.NewManager(adapter, state, profile, connection.DefaultSetup()),
	}

	if _, err := s.manager.Select(context.Background(), board.ID); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got := s.manager.Connected(); len(got) != 1 {
		t.Fatalf("Connected() = %v, want one device", got)
	}

	s.close()
	if got := s.manager.Connected(); len(got) != 0 {
		t.Errorf("Connected() after close = %v, want none", got)
	}
	if state.IsConnected(board.ID) {
		t.Error("device should be disconnected after close")
	}
}
