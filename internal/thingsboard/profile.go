package thingsboard

import (
	"fmt"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

// Profile holds the GATT UUIDs exposed by the dev board firmware
type Profile struct {
	ServiceUUID     string `yaml:"service_uuid"`
	VersionUUID     string `yaml:"version_uuid"`
	WriteUUID       string `yaml:"write_uuid"`
	SwitchUUID      string `yaml:"switch_uuid"`
	TemperatureUUID string `yaml:"temperature_uuid"`
}

// DefaultProfile returns the UUIDs of the stock dev board firmware
func DefaultProfile() Profile {
	return Profile{
		ServiceUUID:     "f2b742dc-35e3-4e55-9def-0ce4a209c552",
		VersionUUID:     "e625601e-9e55-4597-a598-76018a0d293d",
		WriteUUID:       "4f2596d7-b3d6-4102-85a2-947b80ab4c6f",
		SwitchUUID:      "a11bd5c0-e7da-4015-869b-d5c0087d3cc4",
		TemperatureUUID: "fe9b11a8-5f98-40d6-ae82-bea94816277f",
	}
}

// Normalize lowercases every UUID and fills empty fields from the defaults
func (p Profile) Normalize() Profile {
	def := DefaultProfile()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return ble.NormalizeUUID(v)
	}
	return Profile{
		ServiceUUID:     pick(p.ServiceUUID, def.ServiceUUID),
		VersionUUID:     pick(p.VersionUUID, def.VersionUUID),
		WriteUUID:       pick(p.WriteUUID, def.WriteUUID),
		SwitchUUID:      pick(p.SwitchUUID, def.SwitchUUID),
		TemperatureUUID: pick(p.TemperatureUUID, def.TemperatureUUID),
	}
}

// Validate checks that every UUID is in the 8-4-4-4-12 form
func (p Profile) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"service_uuid", p.ServiceUUID},
		{"version_uuid", p.VersionUUID},
		{"write_uuid", p.WriteUUID},
		{"switch_uuid", p.SwitchUUID},
		{"temperature_uuid", p.TemperatureUUID},
	}
	for _, f := range fields {
		if !isUUID(f.value) {
			return fmt.Errorf("invalid %s %q", f.name, f.value)
		}
	}
	return nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
				return false
			}
		}
	}
	return true
}
