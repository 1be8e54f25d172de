package connection

import (
	"context"

	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/thingsboard"
)

// SetupConfig holds the values written to the board after connecting
type SetupConfig struct {
	DisplayX            byte
	DisplayY            byte
	DisplayText         string
	LED                 byte
	SwitchSource        byte
	SwitchMode          byte
	SwitchInterval      uint16
	TemperatureInterval uint16
}

// DefaultSetup returns the stock initial board state
func DefaultSetup() SetupConfig {
	return SetupConfig{
		DisplayX:            0,
		DisplayY:            0,
		DisplayText:         "Hello world",
		LED:                 0xff,
		SwitchSource:        3,
		SwitchMode:          1,
		SwitchInterval:      100,
		TemperatureInterval: 2000,
	}
}

// Setup step names
const (
	StepDisplayClear      = "display clear"
	StepDisplayControl    = "display control"
	StepDisplayWrite      = "display write"
	StepLEDWrite          = "LED write"
	StepSwitchNotify      = "SW Notify set"
	StepTemperatureNotify = "Temp Notify set"
)

// StepNames returns the setup steps in the order RunSetup runs them
func StepNames() []string {
	return []string{
		StepDisplayClear,
		StepDisplayControl,
		StepDisplayWrite,
		StepLEDWrite,
		StepSwitchNotify,
		StepTemperatureNotify,
	}
}

// StepResult is the outcome of one setup step
type StepResult struct {
	Name string
	Err  error
}

// OK reports whether the step succeeded
func (r StepResult) OK() bool {
	return r.Err == nil
}

type setupStep struct {
	name string
	errs string
	run  func(ctx context.Context) error
}

// RunSetup writes the initial display and LED state and enables both
// notifications. Every step runs even if earlier ones fail; failures are
// logged to the session and returned in the results. progress, if non-nil,
// is called after each step.
func (m *Manager) RunSetup(ctx context.Context, board *thingsboard.Board, progress func(done, total int, r StepResult)) []StepResult {
	id := board.DeviceID()
	cfg := m.setup

	steps := []setupStep{
		{StepDisplayClear, "display clear error", board.DisplayClear},
		{StepDisplayControl, "display control error", func(ctx context.Context) error {
			return board.DisplayControl(ctx, cfg.DisplayX, cfg.DisplayY)
		}},
		{StepDisplayWrite, "display write error", func(ctx context.Context) error {
			return board.DisplayWrite(ctx, cfg.DisplayText)
		}},
		{StepLEDWrite, "LED write error", func(ctx context.Context) error {
			return board.LEDWriteByte(ctx, cfg.LED)
		}},
		{StepSwitchNotify, "SW Notify set error", func(ctx context.Context) error {
			return board.SwitchNotifyEnable(ctx, cfg.SwitchSource, cfg.SwitchMode, cfg.SwitchInterval, func(uuid string, data []byte) {
				m.onSwitch(id, uuid, data)
			})
		}},
		{StepTemperatureNotify, "Temp Notify set error", func(ctx context.Context) error {
			return board.TemperatureNotifyEnable(ctx, cfg.TemperatureInterval, func(celsius float64) {
				m.onTemperature(id, celsius)
			})
		}},
	}

	results := make([]StepResult, 0, len(steps))
	for i, step := range steps {
		err := step.run(ctx)
		if err != nil {
			logging.Warn("Setup step failed", zap.String("device_id", id), zap.String("step", step.name), zap.Error(err))
			m.state.Logf("%s", step.errs)
		}
		r := StepResult{Name: step.name, Err: err}
		results = append(results, r)
		if progress != nil {
			progress(i+1, len(steps), r)
		}
	}
	return results
}

func (m *Manager) onSwitch(id, uuid string, data []byte) {
	hex := thingsboard.FormatHex(data)
	m.state.RecordSwitch(id, hex)
	m.state.Logf("Notify SW %s: %s", uuid, hex)
}

func (m *Manager) onTemperature(id string, celsius float64) {
	m.state.RecordTemperature(id, celsius)
	m.state.Logf("Notify Temperature : %s", thingsboard.FormatTemperature(celsius))
}
