package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/urls"
)

// ErrorCode is the machine-readable category of a BLE failure. It is shown to
// the user verbatim in SDK error alerts.
type ErrorCode string

const (
	CodeUnavailable            ErrorCode = "bluetooth_unavailable"
	CodeAdapterFailed          ErrorCode = "adapter_failed"
	CodeScanFailed             ErrorCode = "scan_failed"
	CodeDeviceNotFound         ErrorCode = "device_not_found"
	CodeConnectFailed          ErrorCode = "connect_failed"
	CodeServiceNotFound        ErrorCode = "service_not_found"
	CodeCharacteristicNotFound ErrorCode = "characteristic_not_found"
	CodeReadFailed             ErrorCode = "read_failed"
	CodeWriteFailed            ErrorCode = "write_failed"
	CodeNotifyFailed           ErrorCode = "notify_failed"
	CodeDisconnectFailed       ErrorCode = "disconnect_failed"
	CodeTimeout                ErrorCode = "timeout"
	CodeUnknown                ErrorCode = "unknown"
)

// Error represents a failure reported by the BLE stack
type Error struct {
	Code      ErrorCode // Category of error
	Message   string    // Human-readable error message
	DeviceID  string    // Device the operation targeted (if any)
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the operation may succeed if repeated
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error with the given code. Context cancellation and
// deadline errors are reclassified as timeouts.
func NewError(code ErrorCode, message string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		code = CodeTimeout
	}
	return &Error{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: isRetryableCode(code),
	}
}

// NewDeviceError creates an error bound to a specific device
func NewDeviceError(code ErrorCode, deviceID string, message string, err error) *Error {
	e := NewError(code, message, err)
	e.DeviceID = deviceID
	return e
}

func isRetryableCode(code ErrorCode) bool {
	switch code {
	case CodeUnavailable, CodeScanFailed, CodeConnectFailed, CodeTimeout:
		return true
	default:
		return false
	}
}

// CodeOf extracts the error code from an error chain
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var bleErr *Error
	if errors.As(err, &bleErr) {
		return bleErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}
	return CodeUnknown
}

// MessageOf extracts the human-readable message from an error chain
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var bleErr *Error
	if errors.As(err, &bleErr) {
		if bleErr.Err != nil {
			return fmt.Sprintf("%s: %v", bleErr.Message, bleErr.Err)
		}
		return bleErr.Message
	}
	return err.Error()
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var bleErr *Error
	if errors.As(err, &bleErr) {
		return bleErr.Retryable
	}
	return false
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) []string {
	switch CodeOf(err) {
	case CodeUnavailable, CodeAdapterFailed:
		return []string{
			"Check that Bluetooth is switched on",
			"On Linux, make sure bluetoothd is running and you are in the bluetooth group",
			"The hci backend needs CAP_NET_ADMIN (try sudo or setcap cap_net_admin+ep)",
		}
	case CodeScanFailed, CodeDeviceNotFound, CodeTimeout:
		return []string{
			"Ensure the board is powered on and advertising",
			"Move closer to the board",
			"Check the name prefix and service filter in the config file",
		}
	case CodeConnectFailed:
		return []string{
			"The board may already be connected to another central",
			"Reset the board and try again",
		}
	case CodeServiceNotFound, CodeCharacteristicNotFound:
		return []string{
			"The board firmware does not expose the expected GATT profile",
			"Check the board UUIDs in the config file",
			"Firmware and flashing instructions: " + urls.BoardFirmware,
		}
	default:
		return []string{
			"An unexpected error occurred. Please try again.",
			"LINE Things documentation: " + urls.LineThingsDocs,
		}
	}
}

// Summary returns "code: message" on one line for log boxes
func Summary(err error) string {
	return strings.TrimSpace(fmt.Sprintf("%s: %s", CodeOf(err), MessageOf(err)))
}
