package config

import (
	"maps"
	"slices"
	"time"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/scanner"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

// Config represents the entire user configuration file.
type Config struct {
	Version int                  `yaml:"version"`
	Scan    *ScanSettings        `yaml:"scan,omitempty"`
	Board   *thingsboard.Profile `yaml:"board,omitempty"`
	Setup   *SetupSettings       `yaml:"setup,omitempty"`
	Devices map[string]*Device   `yaml:"devices,omitempty"` // Keyed by device address
}

// ScanSettings controls the discovery loop and which advertisements count
// as dev boards.
type ScanSettings struct {
	AvailabilityRetry time.Duration `yaml:"availability_retry"` // Poll interval while Bluetooth is off
	RescanDelay       time.Duration `yaml:"rescan_delay"`       // Pause between discovery requests
	NamePrefix        string        `yaml:"name_prefix,omitempty"`
	ServiceFilter     bool          `yaml:"service_filter"` // Only report devices advertising the board service
}

// SetupSettings holds the values written to a board after it connects.
type SetupSettings struct {
	DisplayText         string `yaml:"display_text"`
	DisplayX            byte   `yaml:"display_x"`
	DisplayY            byte   `yaml:"display_y"`
	LED                 byte   `yaml:"led"`
	SwitchSource        byte   `yaml:"switch_source"`
	SwitchMode          byte   `yaml:"switch_mode"`
	SwitchInterval      uint16 `yaml:"switch_interval"`      // Milliseconds
	TemperatureInterval uint16 `yaml:"temperature_interval"` // Milliseconds
}

// Device represents user-defined metadata for a single board.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful connection
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	profile := thingsboard.DefaultProfile()
	return &Config{
		Version: 1,
		Scan:    defaultScan(),
		Board:   &profile,
		Setup:   defaultSetup(),
		Devices: make(map[string]*Device),
	}
}

func defaultScan() *ScanSettings {
	return &ScanSettings{
		AvailabilityRetry: scanner.DefaultRetryInterval,
		RescanDelay:       scanner.DefaultRescanDelay,
	}
}

func defaultSetup() *SetupSettings {
	s := connection.DefaultSetup()
	return &SetupSettings{
		DisplayText:         s.DisplayText,
		DisplayX:            s.DisplayX,
		DisplayY:            s.DisplayY,
		LED:                 s.LED,
		SwitchSource:        s.SwitchSource,
		SwitchMode:          s.SwitchMode,
		SwitchInterval:      s.SwitchInterval,
		TemperatureInterval: s.TemperatureInterval,
	}
}

// fillDefaults initializes sections missing from a file written by hand
func (c *Config) fillDefaults() {
	c.normalizeDevices()
	if c.Scan == nil {
		c.Scan = defaultScan()
	}
	if c.Board == nil {
		profile := thingsboard.DefaultProfile()
		c.Board = &profile
	} else {
		profile := c.Board.Normalize()
		c.Board = &profile
	}
	if c.Setup == nil {
		c.Setup = defaultSetup()
	}
}

// Validate checks values that would otherwise fail later at connect time
func (c *Config) Validate() error {
	if c.Board != nil {
		if err := c.Board.Validate(); err != nil {
			return err
		}
	}
	if c.Setup != nil && len(c.Setup.DisplayText) > thingsboard.MaxDisplayText {
		return thingsboard.ErrTextTooLong
	}
	return nil
}

// SetupConfig converts the setup section for the connection manager
func (c *Config) SetupConfig() connection.SetupConfig {
	s := c.Setup
	if s == nil {
		return connection.DefaultSetup()
	}
	return connection.SetupConfig{
		DisplayX:            s.DisplayX,
		DisplayY:            s.DisplayY,
		DisplayText:         s.DisplayText,
		LED:                 s.LED,
		SwitchSource:        s.SwitchSource,
		SwitchMode:          s.SwitchMode,
		SwitchInterval:      s.SwitchInterval,
		TemperatureInterval: s.TemperatureInterval,
	}
}

// Profile returns the board UUIDs
func (c *Config) Profile() thingsboard.Profile {
	if c.Board == nil {
		return thingsboard.DefaultProfile()
	}
	return c.Board.Normalize()
}

// Filter returns the advertisement filter for the scanner
func (c *Config) Filter() ble.Filter {
	var f ble.Filter
	if c.Scan == nil {
		return f
	}
	f.NamePrefix = c.Scan.NamePrefix
	if c.Scan.ServiceFilter {
		f.ServiceUUID = c.Profile().ServiceUUID
	}
	return f
}

// normalizeDevices rekeys hand-written entries by normalized address. When two
// keys collapse to one, the entry with a nickname wins and the latest
// LastSeen is kept.
func (c *Config) normalizeDevices() {
	devices := make(map[string]*Device, len(c.Devices))
	for _, id := range slices.Sorted(maps.Keys(c.Devices)) {
		d := c.Devices[id]
		if d == nil {
			continue
		}
		key := ble.NormalizeAddress(id)
		prev, ok := devices[key]
		if !ok {
			devices[key] = d
			continue
		}
		if prev.Nickname == "" {
			prev.Nickname = d.Nickname
		}
		if d.LastSeen.After(prev.LastSeen) {
			prev.LastSeen = d.LastSeen
		}
	}
	c.Devices = devices
}

// GetDevice retrieves device metadata by address.
// Returns nil if the device doesn't exist in the config.
func (c *Config) GetDevice(id string) *Device {
	return c.Devices[ble.NormalizeAddress(id)]
}

// EnsureDevice ensures a device entry exists in the config.
// Returns the device entry (existing or newly created).
func (c *Config) EnsureDevice(id string) *Device {
	if c.Devices == nil {
		c.Devices = make(map[string]*Device)
	}

	id = ble.NormalizeAddress(id)
	if device, exists := c.Devices[id]; exists {
		return device
	}

	device := &Device{}
	c.Devices[id] = device
	return device
}

// UpdateDeviceLastSeen records a successful connection to a device.
func (c *Config) UpdateDeviceLastSeen(id string, at time.Time) {
	c.EnsureDevice(id).LastSeen = at
}

// SetDeviceNickname sets a user-friendly nickname for a device.
// An empty nickname clears it.
func (c *Config) SetDeviceNickname(id, nickname string) {
	c.EnsureDevice(id).Nickname = nickname
}

// Nicknames returns the nickname of every device that has one
func (c *Config) Nicknames() map[string]string {
	out := make(map[string]string)
	for id, d := range c.Devices {
		if d != nil && d.Nickname != "" {
			out[ble.NormalizeAddress(id)] = d.Nickname
		}
	}
	return out
}
