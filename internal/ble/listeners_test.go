package ble

import "testing"

func TestDisconnectListeners_FireOnlyMatchingDevice(t *testing.T) {
	l := NewDisconnectListeners()

	var a, b int
	l.OnDisconnect("A", func() { a++ })
	l.OnDisconnect("B", func() { b++ })

	l.Fire("A")
	if a != 1 || b != 0 {
		t.Errorf("after Fire(A): a=%d b=%d, want 1 0", a, b)
	}
}

func TestDisconnectListeners_Remove(t *testing.T) {
	l := NewDisconnectListeners()

	var calls int
	remove := l.OnDisconnect("A", func() { calls++ })
	remove()
	remove()

	l.Fire("A")
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after remove", calls)
	}
	if n := l.Count("A"); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestDisconnectListeners_SelfRemovingCallback(t *testing.T) {
	l := NewDisconnectListeners()

	var calls int
	var remove func()
	remove = l.OnDisconnect("A", func() {
		calls++
		remove()
	})

	l.Fire("A")
	l.Fire("A")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDisconnectListeners_ZeroValue(t *testing.T) {
	var l DisconnectListeners
	var called bool
	l.OnDisconnect("A", func() { called = true })
	l.Fire("A")
	if !called {
		t.Error("zero-value listeners should be usable")
	}
}
