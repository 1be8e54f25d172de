// Package logging provides structured diagnostic logging for things-notify.
//
// This package wraps a global zap logger. It is separate from the on-screen
// log box (see package session): the log box is what the user reads, while
// zap output is for debugging the BLE stack.
//
// # Log Levels
//
//   - Debug: characteristic payload dumps, scan callbacks
//   - Info: device lifecycle events (found, connecting, connected)
//   - Warn: recoverable failures (availability checks, setup steps)
//   - Error: transport failures that stop an operation chain
//
// # Configuration
//
// Logging is silent unless a level is given, either through the --log-level
// flag or the THINGS_LOG_LEVEL environment variable:
//
//	if err := logging.InitializeTo("debug", "/tmp/things.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The interactive UI owns the terminal, so it should always be given a file.
//
// # Specialized Logging
//
//	logging.LogDeviceEvent(id, "connected")
//	logging.LogCharacteristic("notify", uuid, payload)
package logging
