package version

import (
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	got := Full()
	if !strings.Contains(got, Version) || !strings.Contains(got, Commit) {
		t.Errorf("Full() = %q, want it to contain %q and %q", got, Version, Commit)
	}
}

func TestStackRevision(t *testing.T) {
	tests := []struct {
		backend string
		prefix  string
	}{
		{"tinygo", TinyGoBluetooth + " "},
		{"", TinyGoBluetooth + " "},
		{"hci", GoBLE + " "},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			if got := StackRevision(tt.backend); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("StackRevision(%q) = %q, want prefix %q", tt.backend, got, tt.prefix)
			}
		})
	}
}

func TestDependency_Unknown(t *testing.T) {
	if got := Dependency("example.com/not/linked"); got != "unknown" {
		t.Errorf("Dependency() = %q, want unknown", got)
	}
}
