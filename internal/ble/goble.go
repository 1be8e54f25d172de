//go:build linux || darwin

package ble

import (
	"context"
	"errors"
	"sync"
	"time"

	goble "github.com/go-ble/ble"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

// HCIAdapter drives the controller directly through github.com/go-ble/ble,
// bypassing the system Bluetooth daemon. On Linux it opens a raw HCI socket
// and needs CAP_NET_ADMIN.
type HCIAdapter struct {
	*DisconnectListeners

	filter  Filter
	service goble.UUID

	mu     sync.Mutex
	device goble.Device
	scanMu sync.Mutex
}

var _ Adapter = (*HCIAdapter)(nil)

// NewHCIAdapter prepares the go-ble backend. The controller is opened on the
// first Available call.
func NewHCIAdapter(filter Filter) (*HCIAdapter, error) {
	a := &HCIAdapter{
		DisconnectListeners: NewDisconnectListeners(),
		filter:              filter,
	}
	if filter.ServiceUUID != "" {
		uuid, err := goble.Parse(filter.ServiceUUID)
		if err != nil {
			return nil, NewError(CodeAdapterFailed, "invalid service UUID filter", err)
		}
		a.service = uuid
	}
	return a, nil
}

func (a *HCIAdapter) Available(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.device != nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dev, err := newHostDevice()
	if err != nil {
		logging.Debug("HCI device not ready", zap.Error(err))
		return false, nil
	}
	a.device = dev
	return true, nil
}

func (a *HCIAdapter) hostDevice() (goble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.device == nil {
		return nil, NewError(CodeUnavailable, "HCI device not opened", nil)
	}
	return a.device, nil
}

func (a *HCIAdapter) RequestDevice(ctx context.Context) (*Device, error) {
	dev, err := a.hostDevice()
	if err != nil {
		return nil, err
	}

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		foundMu sync.Mutex
		found   *Device
	)
	err = dev.Scan(scanCtx, true, func(adv goble.Advertisement) {
		foundMu.Lock()
		defer foundMu.Unlock()
		if found != nil || !a.matches(adv) {
			return
		}
		found = &Device{
			ID:     adv.Addr().String(),
			Name:   adv.LocalName(),
			RSSI:   adv.RSSI(),
			SeenAt: time.Now(),
		}
		cancel()
	})

	foundMu.Lock()
	defer foundMu.Unlock()
	if found != nil {
		return found, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, NewError(CodeTimeout, "scan cancelled", ctxErr)
	}
	if err == nil || errors.Is(err, context.Canceled) {
		err = errors.New("scan stopped")
	}
	return nil, NewError(CodeScanFailed, "scan failed", err)
}

func (a *HCIAdapter) matches(adv goble.Advertisement) bool {
	if !a.filter.MatchName(adv.LocalName()) {
		return false
	}
	if a.service != nil && !goble.Contains(adv.Services(), a.service) {
		return false
	}
	return true
}

func (a *HCIAdapter) Connect(ctx context.Context, device *Device) (Conn, error) {
	dev, err := a.hostDevice()
	if err != nil {
		return nil, err
	}

	client, err := dev.Dial(ctx, goble.NewAddr(device.ID))
	if err != nil {
		return nil, NewDeviceError(CodeConnectFailed, device.ID, "connect failed", err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		_ = client.CancelConnection()
		return nil, NewDeviceError(CodeServiceNotFound, device.ID, "profile discovery failed", err)
	}

	conn := &hciConn{id: device.ID, client: client, profile: profile}
	go func() {
		<-client.Disconnected()
		logging.LogDeviceEvent(device.ID, "link_lost")
		a.Fire(device.ID)
	}()

	logging.LogDeviceEvent(device.ID, "gatt_discovered", zap.Int("services", len(profile.Services)))
	return conn, nil
}

type hciConn struct {
	id      string
	client  goble.Client
	profile *goble.Profile
}

func (c *hciConn) DeviceID() string { return c.id }

func (c *hciConn) characteristic(uuid string) (*goble.Characteristic, error) {
	u, err := goble.Parse(uuid)
	if err != nil {
		return nil, NewDeviceError(CodeCharacteristicNotFound, c.id, "invalid characteristic UUID "+uuid, err)
	}
	ch := c.profile.FindCharacteristic(goble.NewCharacteristic(u))
	if ch == nil {
		return nil, NewDeviceError(CodeCharacteristicNotFound, c.id, "characteristic "+uuid+" not found", nil)
	}
	return ch, nil
}

func (c *hciConn) Read(ctx context.Context, uuid string) ([]byte, error) {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return nil, err
	}
	data, err := c.client.ReadCharacteristic(ch)
	if err != nil {
		return nil, NewDeviceError(CodeReadFailed, c.id, "read "+uuid, err)
	}
	logging.LogCharacteristic("read", uuid, data)
	return data, nil
}

func (c *hciConn) Write(ctx context.Context, uuid string, data []byte) error {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	logging.LogCharacteristic("write", uuid, data)
	if err := c.client.WriteCharacteristic(ch, data, false); err != nil {
		return NewDeviceError(CodeWriteFailed, c.id, "write "+uuid, err)
	}
	return nil
}

func (c *hciConn) Subscribe(ctx context.Context, uuid string, fn func(data []byte)) error {
	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	err = c.client.Subscribe(ch, false, func(req []byte) {
		data := append([]byte(nil), req...)
		logging.LogCharacteristic("notify", uuid, data)
		fn(data)
	})
	if err != nil {
		return NewDeviceError(CodeNotifyFailed, c.id, "subscribe "+uuid, err)
	}
	return nil
}

// Disconnect cancels the connection; listeners fire from the watcher
// goroutine once the controller confirms the link is gone.
func (c *hciConn) Disconnect() error {
	if err := c.client.CancelConnection(); err != nil {
		return NewDeviceError(CodeDisconnectFailed, c.id, "disconnect failed", err)
	}
	return nil
}
