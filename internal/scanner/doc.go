// Package scanner runs the discovery loop: wait for Bluetooth to become
// available, request one device, record it, pause briefly, and repeat.
//
// While Bluetooth is unavailable the loop polls at a fixed interval and never
// issues discovery requests. A failed discovery request stops the loop; it is
// up to the front end to offer a rescan.
package scanner
