package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Session represents a notify session advertising its log mirror on the LAN
type Session struct {
	// Instance is the mDNS instance name (e.g., "things-notify on desk-pc")
	Instance string

	// Hostname is the mDNS hostname (e.g., "desk-pc.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the HTTP port of the mirror
	Port int

	// ID is the session ULID from the TXT record
	ID string

	// Metadata contains every TXT record ("id", "version", "backend", ...)
	Metadata map[string]string

	// DiscoveredAt is when the session was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the session
func (s *Session) String() string {
	return fmt.Sprintf("%s [%s] at %s", s.Instance, s.ID, s.hostPort())
}

func (s *Session) hostPort() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// BaseURL returns the HTTP base URL of the mirror
func (s *Session) BaseURL() string {
	return "http://" + s.hostPort()
}

// WebSocketURL returns the URL of the event stream
func (s *Session) WebSocketURL() string {
	return "ws://" + s.hostPort() + "/ws"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Session) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
