package ble

import "fmt"

// Backend names accepted by Open
const (
	BackendTinyGo = "tinygo"
	BackendHCI    = "hci"
)

// Backends lists the backend names in preference order
var Backends = []string{BackendTinyGo, BackendHCI}

// Open creates the adapter for the named backend. An empty name selects
// the tinygo backend.
func Open(backend string, filter Filter) (Adapter, error) {
	switch backend {
	case "", BackendTinyGo:
		a, err := NewTinyGoAdapter(filter)
		if err != nil {
			return nil, err
		}
		return a, nil
	case BackendHCI:
		a, err := NewHCIAdapter(filter)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, NewError(CodeAdapterFailed, fmt.Sprintf("unknown backend %q (want one of %v)", backend, Backends), nil)
	}
}
