package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

// TinyGoAdapter drives the host Bluetooth stack through tinygo.org/x/bluetooth
// (BlueZ over D-Bus on Linux, CoreBluetooth on macOS, WinRT on Windows).
type TinyGoAdapter struct {
	*DisconnectListeners

	adapter *bluetooth.Adapter
	filter  Filter
	service *bluetooth.UUID

	mu        sync.Mutex
	enabled   bool
	addresses map[string]bluetooth.Address
	scanMu    sync.Mutex
}

var _ Adapter = (*TinyGoAdapter)(nil)

// NewTinyGoAdapter wraps the platform default adapter
func NewTinyGoAdapter(filter Filter) (*TinyGoAdapter, error) {
	a := &TinyGoAdapter{
		DisconnectListeners: NewDisconnectListeners(),
		adapter:             bluetooth.DefaultAdapter,
		filter:              filter,
		addresses:           make(map[string]bluetooth.Address),
	}
	if filter.ServiceUUID != "" {
		uuid, err := bluetooth.ParseUUID(filter.ServiceUUID)
		if err != nil {
			return nil, NewError(CodeAdapterFailed, "invalid service UUID filter", err)
		}
		a.service = &uuid
	}
	return a, nil
}

// Available enables the adapter on first use. A failed enable is reported as
// "not available" rather than an error so the caller keeps polling.
func (a *TinyGoAdapter) Available(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := a.adapter.Enable(); err != nil {
		logging.Debug("Bluetooth adapter not ready", zap.Error(err))
		return false, nil
	}

	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		logging.LogDeviceEvent(id, "link_lost")
		a.Fire(id)
	})
	a.enabled = true
	return true, nil
}

// RequestDevice scans until the first advertisement matching the filter
func (a *TinyGoAdapter) RequestDevice(ctx context.Context) (*Device, error) {
	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	found := make(chan *Device, 1)
	scanErr := make(chan error, 1)

	go func() {
		err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !a.matches(result) {
				return
			}

			id := result.Address.String()
			a.mu.Lock()
			a.addresses[id] = result.Address
			a.mu.Unlock()

			select {
			case found <- &Device{
				ID:     id,
				Name:   result.LocalName(),
				RSSI:   int(result.RSSI),
				SeenAt: time.Now(),
			}:
				adapter.StopScan()
			default:
			}
		})
		scanErr <- err
	}()

	select {
	case dev := <-found:
		<-scanErr
		return dev, nil
	case err := <-scanErr:
		if err == nil {
			err = fmt.Errorf("scan stopped")
		}
		return nil, NewError(CodeScanFailed, "scan failed", err)
	case <-ctx.Done():
		_ = a.adapter.StopScan()
		<-scanErr
		return nil, NewError(CodeTimeout, "scan cancelled", ctx.Err())
	}
}

func (a *TinyGoAdapter) matches(result bluetooth.ScanResult) bool {
	if !a.filter.MatchName(result.LocalName()) {
		return false
	}
	if a.service != nil && !result.HasServiceUUID(*a.service) {
		return false
	}
	return true
}

// Connect opens a GATT connection and discovers every characteristic
func (a *TinyGoAdapter) Connect(ctx context.Context, device *Device) (Conn, error) {
	a.mu.Lock()
	addr, ok := a.addresses[device.ID]
	a.mu.Unlock()
	if !ok {
		return nil, NewDeviceError(CodeDeviceNotFound, device.ID, "device was not discovered by this adapter", nil)
	}

	type result struct {
		conn *tinyGoConn
		err  error
	}
	done := make(chan result, 1)

	go func() {
		dev, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		if err != nil {
			done <- result{err: NewDeviceError(CodeConnectFailed, device.ID, "connect failed", err)}
			return
		}
		conn, err := newTinyGoConn(device.ID, dev, a.DisconnectListeners)
		if err != nil {
			_ = dev.Disconnect()
		}
		done <- result{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	case <-ctx.Done():
		// Drop a connection that completes after the caller gave up.
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.device.Disconnect()
			}
		}()
		return nil, NewDeviceError(CodeTimeout, device.ID, "connect cancelled", ctx.Err())
	}
}

type tinyGoConn struct {
	id        string
	device    bluetooth.Device
	chars     map[string]bluetooth.DeviceCharacteristic
	listeners *DisconnectListeners
	closeOnce sync.Once
}

func newTinyGoConn(id string, device bluetooth.Device, listeners *DisconnectListeners) (*tinyGoConn, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, NewDeviceError(CodeServiceNotFound, id, "service discovery failed", err)
	}

	chars := make(map[string]bluetooth.DeviceCharacteristic)
	for _, svc := range services {
		cs, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, NewDeviceError(CodeCharacteristicNotFound, id, "characteristic discovery failed", err)
		}
		for _, c := range cs {
			chars[NormalizeUUID(c.UUID().String())] = c
		}
	}
	logging.LogDeviceEvent(id, "gatt_discovered", zap.Int("characteristics", len(chars)))

	return &tinyGoConn{id: id, device: device, chars: chars, listeners: listeners}, nil
}

func (c *tinyGoConn) DeviceID() string { return c.id }

func (c *tinyGoConn) characteristic(uuid string) (bluetooth.DeviceCharacteristic, error) {
	ch, ok := c.chars[NormalizeUUID(uuid)]
	if !ok {
		return bluetooth.DeviceCharacteristic{}, NewDeviceError(CodeCharacteristicNotFound, c.id, "characteristic "+uuid+" not found", nil)
	}
	return ch, nil
}

func (c *tinyGoConn) Read(ctx context.Context, uuid string) ([]byte, error) {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, err := ch.Read(buf)
	if err != nil {
		return nil, NewDeviceError(CodeReadFailed, c.id, "read "+uuid, err)
	}
	logging.LogCharacteristic("read", uuid, buf[:n])
	return buf[:n], nil
}

func (c *tinyGoConn) Write(ctx context.Context, uuid string, data []byte) error {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	logging.LogCharacteristic("write", uuid, data)
	if _, err := ch.Write(data); err != nil {
		return NewDeviceError(CodeWriteFailed, c.id, "write "+uuid, err)
	}
	return nil
}

func (c *tinyGoConn) Subscribe(ctx context.Context, uuid string, fn func(data []byte)) error {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	err = ch.EnableNotifications(func(buf []byte) {
		data := append([]byte(nil), buf...)
		logging.LogCharacteristic("notify", uuid, data)
		fn(data)
	})
	if err != nil {
		return NewDeviceError(CodeNotifyFailed, c.id, "subscribe "+uuid, err)
	}
	return nil
}

// Disconnect drops the link and fires the disconnect listeners. Some
// platforms also report the drop through the connect handler, so listeners
// must tolerate a second call.
func (c *tinyGoConn) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		if dErr := c.device.Disconnect(); dErr != nil {
			err = NewDeviceError(CodeDisconnectFailed, c.id, "disconnect failed", dErr)
		}
		c.listeners.Fire(c.id)
	})
	return err
}
