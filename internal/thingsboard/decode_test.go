package thingsboard

import (
	"errors"
	"testing"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

var bleDevice = ble.Device{ID: "AA:BB:CC:DD:EE:FF", Name: "LINE Things dev board"}

func TestDecodeTemperature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{"low byte top bit set", []byte{0x09, 0xc4}, 22.44},
		{"fraction", []byte{0x09, 0x29}, 23.45},
		{"zero", []byte{0x00, 0x00}, 0},
		{"negative high byte", []byte{0xff, 0x00}, -2.56},
		{"signed low byte", []byte{0x00, 0xff}, -0.01},
		{"extra bytes ignored", []byte{0x00, 0x64, 0xaa}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTemperature(tt.data)
			if err != nil {
				t.Fatalf("DecodeTemperature() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeTemperature(%x) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestDecodeTemperature_Short(t *testing.T) {
	for _, data := range [][]byte{nil, {0x01}} {
		if _, err := DecodeTemperature(data); !errors.Is(err, ErrShortNotification) {
			t.Errorf("DecodeTemperature(%x) error = %v, want ErrShortNotification", data, err)
		}
	}
}

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{25, "25"},
		{23.45, "23.45"},
		{-0.01, "-0.01"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatTemperature(tt.in); got != tt.want {
			t.Errorf("FormatTemperature(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex([]byte{0x00, 0x0a, 0xff}); got != "000aff" {
		t.Errorf("FormatHex() = %q, want %q", got, "000aff")
	}
}

func TestProfile_NormalizeAndValidate(t *testing.T) {
	p := Profile{ServiceUUID: "F2B742DC-35E3-4E55-9DEF-0CE4A209C552"}.Normalize()
	if p.ServiceUUID != DefaultProfile().ServiceUUID {
		t.Errorf("ServiceUUID = %s, want lowercase default", p.ServiceUUID)
	}
	if p.WriteUUID != DefaultProfile().WriteUUID {
		t.Errorf("WriteUUID = %s, want default fill", p.WriteUUID)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := p
	bad.SwitchUUID = "not-a-uuid"
	if err := bad.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for bad switch uuid")
	}
}
