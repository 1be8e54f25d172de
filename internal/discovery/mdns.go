package discovery

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

const (
	// ServiceType is the mDNS service type of the session log mirror
	ServiceType = "_things-notify._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for session discovery
	DefaultScanTimeout = 5 * time.Second

	// TXT record keys
	TXTSessionID = "id"
	TXTVersion   = "version"
	TXTBackend   = "backend"
)

// Scanner handles mDNS session discovery
type Scanner struct {
	// Timeout is the maximum time to wait for session discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Browse collects every session seen before the timeout or ctx ends
func (s *Scanner) Browse(ctx context.Context) ([]*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu       sync.Mutex
		sessions []*Session
		seen     = make(map[string]bool)
		done     = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entries {
			session := s.parseServiceEntry(entry)
			if session == nil {
				continue
			}
			mu.Lock()
			if !seen[session.ID] {
				seen[session.ID] = true
				sessions = append(sessions, session)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	logging.Debug("mDNS browse finished", zap.Int("sessions", len(sessions)))
	return sessions, nil
}

// WaitForSession waits for a specific session id; an empty id accepts the
// first session seen
func (s *Scanner) WaitForSession(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Session, 1)

	go func() {
		for entry := range entries {
			session := s.parseServiceEntry(entry)
			if session != nil && (id == "" || session.ID == id) {
				found <- session
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case session := <-found:
		return session, nil
	case <-ctx.Done():
		select {
		case session := <-found:
			return session, nil
		default:
		}
		if id == "" {
			return nil, fmt.Errorf("no session found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("session %s not found within %s", id, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Session.
// Returns nil if the entry lacks an address or a session id.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Session {
	if entry == nil {
		return nil
	}

	metadata := ParseTXT(entry.Text)
	id := metadata[TXTSessionID]
	if id == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	return &Session{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		ID:           id,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ParseTXT splits "key=value" TXT records; a key without "=" maps to ""
func ParseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

// Advertiser publishes a session over mDNS until Shutdown
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on port with the given TXT metadata
func Advertise(instance string, port int, metadata map[string]string) (*Advertiser, error) {
	text := make([]string, 0, len(metadata))
	for _, k := range slices.Sorted(maps.Keys(metadata)) {
		text = append(text, k+"="+metadata[k])
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising session over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", text))
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertiser) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}
