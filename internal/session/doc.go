// Package session holds the state of one interactive session: the discovered,
// connecting and connected device sets, the per-device cards, and the
// numbered log. Front ends observe it through the Events interface.
package session
