package bletest

import (
	"sync"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
)

// Write is a recorded characteristic write
type Write struct {
	UUID string
	Data []byte
}

// Peripheral is a fake GATT server
type Peripheral struct {
	ID string

	mu            sync.Mutex
	values        map[string][]byte
	readErrs      map[string]error
	subscribeErrs map[string]error
	writeFailures []func(uuid string, data []byte) error
	writes        []Write
	subscribers   map[string]func([]byte)
}

// NewPeripheral creates an empty GATT server
func NewPeripheral(id string) *Peripheral {
	return &Peripheral{
		ID:            id,
		values:        make(map[string][]byte),
		readErrs:      make(map[string]error),
		subscribeErrs: make(map[string]error),
		subscribers:   make(map[string]func([]byte)),
	}
}

// SetValue sets the readable value of a characteristic
func (p *Peripheral) SetValue(uuid string, value []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[ble.NormalizeUUID(uuid)] = value
}

// FailRead makes reads of uuid return err
func (p *Peripheral) FailRead(uuid string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErrs[ble.NormalizeUUID(uuid)] = err
}

// FailSubscribe makes subscriptions to uuid return err
func (p *Peripheral) FailSubscribe(uuid string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribeErrs[ble.NormalizeUUID(uuid)] = err
}

// FailWriteWhen installs a hook consulted on every write. A non-nil return
// fails the write and it is not recorded.
func (p *Peripheral) FailWriteWhen(fn func(uuid string, data []byte) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeFailures = append(p.writeFailures, fn)
}

// Writes returns the successful writes in order
func (p *Peripheral) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Write, len(p.writes))
	copy(out, p.writes)
	return out
}

// Subscribed reports whether a notification handler is registered for uuid
func (p *Peripheral) Subscribed(uuid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subscribers[ble.NormalizeUUID(uuid)]
	return ok
}

// Notify delivers a notification to the subscriber of uuid, if any
func (p *Peripheral) Notify(uuid string, data []byte) bool {
	p.mu.Lock()
	fn := p.subscribers[ble.NormalizeUUID(uuid)]
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(data)
	return true
}

func (p *Peripheral) read(uuid string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uuid = ble.NormalizeUUID(uuid)
	if err := p.readErrs[uuid]; err != nil {
		return nil, err
	}
	v, ok := p.values[uuid]
	if !ok {
		return nil, ble.NewDeviceError(ble.CodeCharacteristicNotFound, p.ID, "characteristic "+uuid+" not found", nil)
	}
	return append([]byte(nil), v...), nil
}

func (p *Peripheral) write(uuid string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	uuid = ble.NormalizeUUID(uuid)
	for _, fail := range p.writeFailures {
		if err := fail(uuid, data); err != nil {
			return err
		}
	}
	p.writes = append(p.writes, Write{UUID: uuid, Data: append([]byte(nil), data...)})
	return nil
}

func (p *Peripheral) subscribe(uuid string, fn func([]byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	uuid = ble.NormalizeUUID(uuid)
	if err := p.subscribeErrs[uuid]; err != nil {
		return err
	}
	p.subscribers[uuid] = fn
	return nil
}
