// Package thingsboard speaks the LINE Things dev board GATT protocol: a
// firmware version characteristic, a write characteristic taking fixed-size
// command frames, and two notification characteristics for the switches and
// the temperature sensor.
package thingsboard
