package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/config"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/scanner"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/server"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// notifySession bundles everything one BLE session needs
type notifySession struct {
	cfg     *config.Config
	cfgMu   sync.Mutex
	state   *session.State
	adapter ble.Adapter
	scanner *scanner.Scanner
	manager *connection.Manager
	hub     *server.Hub
	mirror  *server.Server
}

// openSession loads the config, opens the BLE adapter and wires the scanner
// and connection manager to a fresh session. Events go nowhere until
// setEvents is called.
func openSession() (*notifySession, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if namePrefix != "" {
		cfg.Scan.NamePrefix = namePrefix
	}

	adapter, err := ble.Open(backend, cfg.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", backend, err)
	}

	state := session.New(nil)
	state.SetNicknames(cfg.Nicknames())

	sc := scanner.New(adapter, state)
	sc.RetryInterval = cfg.Scan.AvailabilityRetry
	sc.RescanDelay = cfg.Scan.RescanDelay

	s := &notifySession{
		cfg:     cfg,
		state:   state,
		adapter: adapter,
		scanner: sc,
		manager: connection.NewManager(adapter, state, cfg.Profile(), cfg.SetupConfig()),
	}
	s.manager.OnConnected = s.rememberDevice

	if serveAddr != "" {
		s.hub = server.NewHub(server.DefaultBacklog)
		s.mirror = server.New(server.Config{
			Addr:      serveAddr,
			Advertise: advertise,
			Backend:   backend,
		}, state, s.hub)
	}

	logging.Debug("Session opened",
		zap.String("session_id", state.ID),
		zap.String("backend", backend),
		zap.String("name_prefix", cfg.Scan.NamePrefix))
	return s, nil
}

// setEvents routes session events to sinks, plus the mirror when serving
func (s *notifySession) setEvents(sinks ...session.Events) {
	if s.hub != nil {
		sinks = append(sinks, s.hub)
	}
	s.state.SetEvents(session.Multi(sinks))
}

// startMirror starts the HTTP mirror if --serve was given
func (s *notifySession) startMirror() error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.Start()
}

// rememberDevice records the connection time in the config file
func (s *notifySession) rememberDevice(device ble.Device) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	s.cfg.UpdateDeviceLastSeen(device.ID, time.Now())
	if err := s.cfg.Save(configPath); err != nil {
		logging.Warn("Failed to save last_seen", zap.String("device_id", device.ID), zap.Error(err))
	}
}

// close disconnects every board and stops the mirror
func (s *notifySession) close() {
	if ids := s.manager.Connected(); len(ids) > 0 {
		logging.Info("Disconnecting on exit", zap.Strings("devices", ids))
	}
	if err := s.manager.Close(); err != nil {
		logging.Warn("Disconnect on exit failed", zap.Error(err))
	}
	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mirror.Shutdown(ctx); err != nil {
			logging.Warn("Mirror shutdown failed", zap.Error(err))
		}
	}
}

// mirrorURL returns the browser address of the mirror, or ""
func (s *notifySession) mirrorURL() string {
	if s.mirror == nil || s.mirror.Addr() == "" {
		return ""
	}
	return "http://" + s.mirror.Addr() + "/"
}
