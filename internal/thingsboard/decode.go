package thingsboard

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// ErrShortNotification is returned for payloads shorter than the decoder needs
var ErrShortNotification = errors.New("notification payload too short")

// DecodeTemperature converts a temperature notification to degrees Celsius.
// Both bytes are read as signed, so a low byte with its top bit set
// subtracts from the total.
func DecodeTemperature(data []byte) (float64, error) {
	if len(data) < 2 {
		return 0, ErrShortNotification
	}
	hi := int(int8(data[0]))
	lo := int(int8(data[1]))
	return float64((hi<<8)+lo) / 100, nil
}

// FormatTemperature renders a temperature the way the log box shows it:
// shortest decimal form, no trailing zeros
func FormatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatHex renders a payload as lowercase hex with no separators
func FormatHex(data []byte) string {
	return hex.EncodeToString(data)
}
