// Package ble abstracts the central-role Bluetooth Low Energy operations the
// application needs: availability, device discovery, GATT connect, and
// characteristic read/write/notify.
//
// Two backends are provided. The default uses tinygo.org/x/bluetooth, which
// talks to the operating system's Bluetooth service. The "hci" backend uses
// github.com/go-ble/ble to drive the controller directly.
//
// # Errors
//
// All backend failures are returned as *Error carrying an ErrorCode. The code
// and message are what the application shows in its SDK error alert:
//
//	if err != nil {
//	    fmt.Printf("SDK Error: %s\nMessage: %s\n", ble.CodeOf(err), ble.MessageOf(err))
//	}
//
// The bletest subpackage provides a scriptable in-memory Adapter for tests.
package ble
