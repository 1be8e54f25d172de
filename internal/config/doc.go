// Package config provides user configuration management for the notify tool.
//
// This package manages a YAML-based configuration file holding the scan
// settings, the board GATT UUIDs, the values written during board setup, and
// per-device metadata (nickname, last connection time).
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/line-things/config.yaml or $HOME/.config/line-things/config.yaml
//   - macOS: $HOME/.config/line-things/config.yaml
//   - Windows: %LOCALAPPDATA%\line-things\config.yaml
//
// Every command accepts --config to use another file.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.SetDeviceNickname("E4:5F:01:AA:BB:CC", "Desk board")
//
//	// Save changes atomically
//	if err := cfg.Save(""); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// File operations are protected by a mutex. A *Config itself is not safe for
// concurrent mutation.
package config
