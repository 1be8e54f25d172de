package ble

import "sync"

// DisconnectListeners tracks per-device disconnect callbacks. Backends embed
// it to implement Adapter.OnDisconnect and call Fire when a link drops.
type DisconnectListeners struct {
	mu       sync.Mutex
	next     uint64
	byDevice map[string]map[uint64]func()
}

// NewDisconnectListeners creates an empty listener set
func NewDisconnectListeners() *DisconnectListeners {
	return &DisconnectListeners{byDevice: make(map[string]map[uint64]func())}
}

// OnDisconnect registers fn for deviceID and returns a func that removes it.
// The remove func is safe to call more than once.
func (l *DisconnectListeners) OnDisconnect(deviceID string, fn func()) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byDevice == nil {
		l.byDevice = make(map[string]map[uint64]func())
	}
	l.next++
	key := l.next
	if l.byDevice[deviceID] == nil {
		l.byDevice[deviceID] = make(map[uint64]func())
	}
	l.byDevice[deviceID][key] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.byDevice[deviceID], key)
		if len(l.byDevice[deviceID]) == 0 {
			delete(l.byDevice, deviceID)
		}
	}
}

// Fire invokes every listener registered for deviceID. Callbacks run
// outside the lock so they may remove themselves.
func (l *DisconnectListeners) Fire(deviceID string) {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.byDevice[deviceID]))
	for _, fn := range l.byDevice[deviceID] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Count returns the number of listeners registered for deviceID
func (l *DisconnectListeners) Count(deviceID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byDevice[deviceID])
}
