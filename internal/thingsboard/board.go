package thingsboard

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

// Command frames written to the write characteristic are always FrameSize
// bytes: the command byte followed by its arguments, zero padded.
const (
	FrameSize      = 18
	MaxDisplayText = FrameSize - 2
)

// Command identifiers
const (
	CmdDisplayClear      byte = 0x00
	CmdDisplayControl    byte = 0x01
	CmdDisplayWrite      byte = 0x02
	CmdLEDWriteByte      byte = 0x03
	CmdSwitchNotify      byte = 0x10
	CmdTemperatureNotify byte = 0x11
)

var (
	// ErrTextTooLong is returned when display text does not fit in one frame
	ErrTextTooLong = errors.New("display text too long")

	// ErrEmptyVersion is returned when the version characteristic is empty
	ErrEmptyVersion = errors.New("empty firmware version")
)

// Board issues dev board commands over an established connection
type Board struct {
	conn    ble.Conn
	profile Profile
}

// New wraps conn with the given profile
func New(conn ble.Conn, profile Profile) *Board {
	return &Board{conn: conn, profile: profile.Normalize()}
}

// DeviceID returns the id of the underlying connection
func (b *Board) DeviceID() string {
	return b.conn.DeviceID()
}

// ReadVersion reads the firmware version byte
func (b *Board) ReadVersion(ctx context.Context) (int, error) {
	data, err := b.conn.Read(ctx, b.profile.VersionUUID)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyVersion
	}
	return int(data[0]), nil
}

// DisplayClear blanks the OLED
func (b *Board) DisplayClear(ctx context.Context) error {
	return b.send(ctx, CmdDisplayClear)
}

// DisplayControl moves the text cursor
func (b *Board) DisplayControl(ctx context.Context, x, y byte) error {
	return b.send(ctx, CmdDisplayControl, x, y)
}

// DisplayWrite prints text at the cursor
func (b *Board) DisplayWrite(ctx context.Context, text string) error {
	if len(text) > MaxDisplayText {
		return fmt.Errorf("%w: %d bytes, max %d", ErrTextTooLong, len(text), MaxDisplayText)
	}
	args := append([]byte{byte(len(text))}, text...)
	return b.send(ctx, CmdDisplayWrite, args...)
}

// LEDWriteByte sets the eight user LEDs from a bit mask
func (b *Board) LEDWriteByte(ctx context.Context, mask byte) error {
	return b.send(ctx, CmdLEDWriteByte, mask)
}

// SwitchNotifyEnable subscribes to switch notifications and then asks the
// board to start sending them. fn receives the characteristic UUID and the
// raw payload.
func (b *Board) SwitchNotifyEnable(ctx context.Context, source, mode byte, interval uint16, fn func(uuid string, data []byte)) error {
	uuid := b.profile.SwitchUUID
	if err := b.conn.Subscribe(ctx, uuid, func(data []byte) { fn(uuid, data) }); err != nil {
		return err
	}
	args := []byte{source, mode, 0, 0}
	binary.BigEndian.PutUint16(args[2:], interval)
	return b.send(ctx, CmdSwitchNotify, args...)
}

// TemperatureNotifyEnable subscribes to temperature notifications sent every
// interval milliseconds. Payloads that fail to decode are logged at debug
// level and dropped.
func (b *Board) TemperatureNotifyEnable(ctx context.Context, interval uint16, fn func(celsius float64)) error {
	err := b.conn.Subscribe(ctx, b.profile.TemperatureUUID, func(data []byte) {
		v, err := DecodeTemperature(data)
		if err != nil {
			logging.Debug("Dropped temperature notification",
				zap.String("payload", FormatHex(data)),
				zap.Error(err))
			return
		}
		fn(v)
	})
	if err != nil {
		return err
	}
	args := make([]byte, 2)
	binary.BigEndian.PutUint16(args, interval)
	return b.send(ctx, CmdTemperatureNotify, args...)
}

func (b *Board) send(ctx context.Context, cmd byte, args ...byte) error {
	return b.conn.Write(ctx, b.profile.WriteUUID, Frame(cmd, args...))
}

// Frame builds a fixed-size command frame
func Frame(cmd byte, args ...byte) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = cmd
	copy(frame[1:], args)
	return frame
}
