package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(host string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "things-notify on " + host},
		HostName:      host,
		Port:          port,
		AddrIPv4:      v4,
		AddrIPv6:      v6,
		Text:          text,
	}
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()
	v4 := []net.IP{net.ParseIP("192.168.4.16")}
	v6 := []net.IP{net.ParseIP("fe80::1")}

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantID   string
		wantIP   string
		wantPort int
	}{
		{
			name:     "valid session with IPv4",
			entry:    entry("desk.local.", 8080, v4, nil, "id=01HZX", "version=v1"),
			wantID:   "01HZX",
			wantIP:   "192.168.4.16",
			wantPort: 8080,
		},
		{
			name:     "IPv6 only",
			entry:    entry("desk.local.", 8080, nil, v6, "id=01HZY"),
			wantID:   "01HZY",
			wantIP:   "fe80::1",
			wantPort: 8080,
		},
		{
			name:     "prefers IPv4",
			entry:    entry("desk.local.", 9000, v4, v6, "id=01HZZ"),
			wantID:   "01HZZ",
			wantIP:   "192.168.4.16",
			wantPort: 9000,
		},
		{
			name:    "missing session id",
			entry:   entry("desk.local.", 8080, v4, nil, "version=v1"),
			wantNil: true,
		},
		{
			name:    "no address",
			entry:   entry("desk.local.", 8080, nil, nil, "id=01HZX"),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   entry("desk.local.", 0, v4, nil, "id=01HZX"),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if session != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", session)
				}
				return
			}
			if session == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil session")
			}
			if session.ID != tt.wantID {
				t.Errorf("session.ID = %v, want %v", session.ID, tt.wantID)
			}
			if session.IP != tt.wantIP {
				t.Errorf("session.IP = %v, want %v", session.IP, tt.wantIP)
			}
			if session.Port != tt.wantPort {
				t.Errorf("session.Port = %v, want %v", session.Port, tt.wantPort)
			}
			if session.Instance != tt.entry.Instance {
				t.Errorf("session.Instance = %v, want %v", session.Instance, tt.entry.Instance)
			}
			if time.Since(session.DiscoveredAt) > time.Second {
				t.Errorf("session.DiscoveredAt is not recent: %v", session.DiscoveredAt)
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"id=01HZX", "backend=tinygo", "flag", "note=a=b"})

	expected := map[string]string{
		"id":      "01HZX",
		"backend": "tinygo",
		"flag":    "", // Key without value
		"note":    "a=b",
	}
	if len(got) != len(expected) {
		t.Errorf("ParseTXT() has %d entries, want %d", len(got), len(expected))
	}
	for key, want := range expected {
		if got[key] != want {
			t.Errorf("ParseTXT()[%q] = %q, want %q", key, got[key], want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	if got := NewScanner().Timeout; got != DefaultScanTimeout {
		t.Errorf("NewScanner().Timeout = %v, want %v", got, DefaultScanTimeout)
	}
}
