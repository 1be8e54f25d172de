// Package connection turns a device selection into a configured board:
// connect, check the firmware version, write the initial display and LED
// state, and enable switch and temperature notifications.
//
// Each device gets one disconnect hook per connection. The hook marks the
// card disconnected and deregisters itself the first time it fires, whether
// the link dropped or the user asked to disconnect.
package connection
