package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "line-things") {
		t.Errorf("GetConfigDir() = %v, should contain 'line-things'", configDir)
	}

	switch runtime.GOOS {
	case "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "line-things"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("NewConfig().Version = %v, want 1", cfg.Version)
	}
	if cfg.Scan.AvailabilityRetry != time.Second {
		t.Errorf("AvailabilityRetry = %v, want 1s", cfg.Scan.AvailabilityRetry)
	}
	if cfg.Scan.RescanDelay != 100*time.Millisecond {
		t.Errorf("RescanDelay = %v, want 100ms", cfg.Scan.RescanDelay)
	}
	if cfg.SetupConfig() != connection.DefaultSetup() {
		t.Errorf("SetupConfig() = %+v, want defaults", cfg.SetupConfig())
	}
	if cfg.Profile() != thingsboard.DefaultProfile() {
		t.Errorf("Profile() = %+v, want defaults", cfg.Profile())
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != 1 || cfg.Setup.DisplayText != "Hello world" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Scan.NamePrefix = "LINE"
	cfg.Scan.ServiceFilter = true
	cfg.Setup.DisplayText = "Hi"
	seen := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	cfg.SetDeviceNickname("AA:BB", "desk")
	cfg.UpdateDeviceLastSeen("AA:BB", seen)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# LINE Things notify configuration") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "availability_retry: 1s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Setup.DisplayText != "Hi" {
		t.Errorf("DisplayText = %q, want Hi", loaded.Setup.DisplayText)
	}
	if got := loaded.Nicknames(); got["AA:BB"] != "desk" || len(got) != 1 {
		t.Errorf("Nicknames() = %v", got)
	}
	if !loaded.GetDevice("AA:BB").LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", loaded.GetDevice("AA:BB").LastSeen, seen)
	}

	f := loaded.Filter()
	if f.NamePrefix != "LINE" || f.ServiceUUID != thingsboard.DefaultProfile().ServiceUUID {
		t.Errorf("Filter() = %+v", f)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
board:
  switch_uuid: A11BD5C0-E7DA-4015-869B-D5C0087D3CC4
setup:
  display_text: "Howdy"
  led: 15
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan == nil || cfg.Scan.AvailabilityRetry != time.Second {
		t.Errorf("Scan = %+v, want defaults", cfg.Scan)
	}
	if cfg.Board.SwitchUUID != thingsboard.DefaultProfile().SwitchUUID {
		t.Errorf("SwitchUUID = %s, want normalized", cfg.Board.SwitchUUID)
	}
	if cfg.Board.WriteUUID != thingsboard.DefaultProfile().WriteUUID {
		t.Errorf("WriteUUID = %s, want default fill", cfg.Board.WriteUUID)
	}
	if s := cfg.SetupConfig(); s.DisplayText != "Howdy" || s.LED != 15 {
		t.Errorf("SetupConfig() = %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad yaml", "version: [\n", "failed to parse"},
		{"bad uuid", "version: 1\nboard:\n  write_uuid: nope\n", "invalid write_uuid"},
		{"long text", "version: 1\nsetup:\n  display_text: \"this text is far too long\"\n", "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	got, err := CreateDefaultConfig(path, false)
	if err != nil || got != path {
		t.Fatalf("CreateDefaultConfig() = %q, %v", got, err)
	}
	if _, err := CreateDefaultConfig(path, false); err == nil {
		t.Error("second CreateDefaultConfig() should refuse to overwrite")
	}
	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Errorf("CreateDefaultConfig(force) error = %v", err)
	}
}

func TestConfigEnsureDevice(t *testing.T) {
	cfg := &Config{}

	device1 := cfg.EnsureDevice("AA:BB")
	device2 := cfg.EnsureDevice("AA:BB")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same id")
	}
	if cfg.EnsureDevice("CC:DD") == device1 {
		t.Error("EnsureDevice() should create new instance for different id")
	}

	cfg.SetDeviceNickname("AA:BB", "")
	if len(cfg.Nicknames()) != 0 {
		t.Error("empty nicknames should not be reported")
	}
}

func TestDeviceKeysIgnoreCase(t *testing.T) {
	cfg := NewConfig()
	cfg.SetDeviceNickname("e4:5f:01:aa:bb:cc", "desk")
	cfg.UpdateDeviceLastSeen("E4:5F:01:AA:BB:CC", time.Unix(100, 0))

	if n := len(cfg.Devices); n != 1 {
		t.Fatalf("len(Devices) = %d, want 1", n)
	}
	d := cfg.GetDevice(" E4:5f:01:AA:bb:CC ")
	if d == nil || d.Nickname != "desk" {
		t.Fatalf("GetDevice() = %+v, want desk", d)
	}
	if got := cfg.Nicknames(); got["E4:5F:01:AA:BB:CC"] != "desk" || len(got) != 1 {
		t.Errorf("Nicknames() = %v", got)
	}
}

func TestLoad_MergesDeviceKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
devices:
  "e4:5f:01:aa:bb:cc":
    nickname: desk
    last_seen: 2026-10-01T00:00:00Z
  "E4:5F:01:AA:BB:CC":
    last_seen: 2026-10-15T00:00:00Z
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n := len(cfg.Devices); n != 1 {
		t.Fatalf("len(Devices) = %d, want 1", n)
	}
	d := cfg.GetDevice("E4:5F:01:AA:BB:CC")
	if d.Nickname != "desk" {
		t.Errorf("Nickname = %q, want desk", d.Nickname)
	}
	want := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	if !d.LastSeen.Equal(want) {
		t.Errorf("LastSeen = %v, want %v", d.LastSeen, want)
	}
}

func TestValidate_TextTooLong(t *testing.T) {
	cfg := NewConfig()
	cfg.Setup.DisplayText = strings.Repeat("x", thingsboard.MaxDisplayText+1)
	if err := cfg.Validate(); !errors.Is(err, thingsboard.ErrTextTooLong) {
		t.Errorf("Validate() error = %v, want ErrTextTooLong", err)
	}
}
