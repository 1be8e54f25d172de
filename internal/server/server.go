package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/discovery"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/version"
)

// Config holds the mirror configuration
type Config struct {
	Addr      string // Listen address, e.g. ":8080" or "127.0.0.1:0"
	Advertise bool   // Publish the session over mDNS
	Instance  string // mDNS instance name; defaults to "things-notify on <hostname>"
	Backend   string // BLE backend name, reported in TXT and /api/state
}

// Server mirrors one session to browsers and watch clients
type Server struct {
	config   Config
	state    *session.State
	hub      *Hub
	http     *http.Server
	listener net.Listener
	adv      *discovery.Advertiser
	wg       sync.WaitGroup
}

// New creates a server for state. hub must be one of state's event sinks.
func New(config Config, state *session.State, hub *Hub) *Server {
	s := &Server{
		config: config,
		state:  state,
		hub:    hub,
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start listens and serves in the background, then advertises the session
// if configured. An advertising failure is logged, not returned.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener

	logging.Info("Session mirror listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("session_id", s.state.ID))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Session mirror stopped", zap.Error(err))
		}
	}()

	if s.config.Advertise {
		adv, err := discovery.Advertise(s.instance(), s.Port(), map[string]string{
			discovery.TXTSessionID: s.state.ID,
			discovery.TXTVersion:   version.Version,
			discovery.TXTBackend:   s.config.Backend,
		})
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.adv = adv
		}
	}
	return nil
}

func (s *Server) instance() string {
	if s.config.Instance != "" {
		return s.config.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return "things-notify on " + host
}

// Addr returns the bound listen address, or "" before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port, or 0 before Start
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown withdraws the advertisement, closes every stream and stops the
// HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down session mirror...")

	s.adv.Shutdown()
	s.hub.Close()
	err := s.http.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All mirror connections closed")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
		_ = s.http.Close()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
