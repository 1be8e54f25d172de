package server

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/version"
)

//go:embed static
var staticFiles embed.FS

// Snapshot is the /api/state response
type Snapshot struct {
	SessionID  string         `json:"session_id"`
	StartedAt  time.Time      `json:"started_at"`
	Version    string         `json:"version"`
	Backend    string         `json:"backend"`
	Available  bool           `json:"available"`
	Devices    []ble.Device   `json:"devices"`
	Cards      []session.Card `json:"cards"`
	Connecting []string       `json:"connecting"`
	LogLines   int            `json:"log_lines"`
	Clients    int            `json:"clients"`
}

// Handler returns the HTTP routes of the mirror
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServer(http.FS(static)))
	mux.HandleFunc("GET /ws", s.serveWebSocket)
	mux.HandleFunc("GET /api/state", s.serveState)
	return mux
}

// Snapshot returns the current session state
func (s *Server) Snapshot() Snapshot {
	devices := s.state.Devices()
	cards := s.state.Cards()
	if cards == nil {
		cards = []session.Card{}
	}
	connecting := []string{}
	for _, d := range devices {
		if s.state.IsConnecting(d.ID) {
			connecting = append(connecting, d.ID)
		}
	}
	return Snapshot{
		SessionID:  s.state.ID,
		StartedAt:  s.state.StartedAt,
		Version:    version.Version,
		Backend:    s.config.Backend,
		Available:  s.state.Available(),
		Devices:    devices,
		Cards:      cards,
		Connecting: connecting,
		LogLines:   s.state.LogCount(),
		Clients:    s.hub.Clients(),
	}
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		logging.Debug("Failed to write state", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
	}
}
