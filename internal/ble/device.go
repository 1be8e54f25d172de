package ble

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Device is a peripheral observed during a scan.
type Device struct {
	// ID is the Bluetooth address as reported by the stack (e.g., "E4:5F:01:AA:BB:CC").
	// It is the unique key for the device everywhere in the application.
	ID string `json:"id"`

	// Name is the advertised local name, possibly empty
	Name string `json:"name"`

	// RSSI is the signal strength of the last advertisement, in dBm
	RSSI int `json:"rssi"`

	// SeenAt is when the last advertisement was received
	SeenAt time.Time `json:"seen_at"`
}

// DisplayName returns the advertised name, or the ID for anonymous devices
func (d Device) DisplayName() string {
	if d.Name == "" {
		return d.ID
	}
	return d.Name
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s (%s) RSSI %d", d.DisplayName(), d.ID, d.RSSI)
}

// Adapter is the central-role BLE stack.
type Adapter interface {
	// Available reports whether the Bluetooth radio can be used.
	Available(ctx context.Context) (bool, error)

	// RequestDevice blocks until one matching peripheral advertises, then
	// returns it. Repeated calls may return the same device again.
	RequestDevice(ctx context.Context) (*Device, error)

	// Connect establishes a GATT connection to a previously requested device.
	Connect(ctx context.Context, device *Device) (Conn, error)

	// OnDisconnect registers fn to run when the link to deviceID drops.
	// The returned func removes the registration.
	OnDisconnect(deviceID string, fn func()) (remove func())
}

// Conn is an established GATT connection. Characteristics are addressed by
// UUID string in canonical lowercase form.
type Conn interface {
	DeviceID() string
	Read(ctx context.Context, uuid string) ([]byte, error)
	Write(ctx context.Context, uuid string, data []byte) error
	Subscribe(ctx context.Context, uuid string, fn func(data []byte)) error
	Disconnect() error
}

// Filter selects which advertisements RequestDevice reports.
// Empty fields match everything.
type Filter struct {
	NamePrefix  string
	ServiceUUID string
}

// MatchName reports whether the advertised name passes the prefix filter
func (f Filter) MatchName(name string) bool {
	return f.NamePrefix == "" || strings.HasPrefix(name, f.NamePrefix)
}

// NormalizeAddress returns the canonical uppercase form of a device address.
// Device ids compare equal after normalization regardless of case.
func NormalizeAddress(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeUUID returns the canonical lowercase form of a UUID string
func NormalizeUUID(uuid string) string {
	uuid = strings.TrimSpace(uuid)
	uuid = strings.TrimPrefix(uuid, "{")
	uuid = strings.TrimSuffix(uuid, "}")
	return strings.ToLower(uuid)
}
