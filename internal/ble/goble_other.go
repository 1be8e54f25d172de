//go:build !linux && !darwin

package ble

// NewHCIAdapter reports that the go-ble backend is not built for this platform.
func NewHCIAdapter(filter Filter) (Adapter, error) {
	return nil, NewError(CodeAdapterFailed, "the hci backend is only available on Linux and macOS", nil)
}
