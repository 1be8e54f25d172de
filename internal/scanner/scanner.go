package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

const (
	// DefaultRetryInterval is how often availability is polled while Bluetooth is off
	DefaultRetryInterval = 1000 * time.Millisecond

	// DefaultRescanDelay separates consecutive discovery requests
	DefaultRescanDelay = 100 * time.Millisecond
)

var errUnavailable = errors.New("bluetooth unavailable")

// Scanner repeatedly waits for Bluetooth and requests one device at a time,
// feeding results into the session.
type Scanner struct {
	Adapter       ble.Adapter
	Session       *session.State
	RetryInterval time.Duration
	RescanDelay   time.Duration
}

// New creates a scanner with the default timings
func New(adapter ble.Adapter, state *session.State) *Scanner {
	return &Scanner{
		Adapter:       adapter,
		Session:       state,
		RetryInterval: DefaultRetryInterval,
		RescanDelay:   DefaultRescanDelay,
	}
}

// Run scans until ctx is cancelled or a discovery request fails. A failed
// discovery is reported to the session and returned; the caller decides
// whether to call Run again.
func (s *Scanner) Run(ctx context.Context) error {
	logging.Debug("Scanner starting",
		zap.Duration("retry_interval", s.retryInterval()),
		zap.Duration("rescan_delay", s.RescanDelay))

	first := true
	for {
		if err := s.WaitAvailable(ctx); err != nil {
			return err
		}

		if first {
			s.Session.Logf("Finding devices...")
			first = false
		} else if err := sleep(ctx, s.RescanDelay); err != nil {
			return err
		}

		device, err := s.Adapter.RequestDevice(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.Session.SDKError(err)
			s.Session.Logf("ERROR on requestDevice: %v", err)
			return fmt.Errorf("request device: %w", err)
		}

		s.Session.Discover(*device)
	}
}

// WaitAvailable polls availability at the retry interval until Bluetooth is
// usable or ctx ends. Availability errors are reported and count as
// unavailable.
func (s *Scanner) WaitAvailable(ctx context.Context) error {
	check := func() error {
		ok, err := s.Adapter.Available(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Session.SDKError(err)
			s.Session.Logf("ERROR on getAvailability: %v", err)
			ok = false
		}
		s.Session.SetAvailable(ok)
		if !ok {
			return errUnavailable
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logging.Debug("Bluetooth not available, retrying", zap.Duration("wait", wait))
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(s.retryInterval()), ctx)
	err := backoff.RetryNotify(check, policy, notify)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (s *Scanner) retryInterval() time.Duration {
	if s.RetryInterval <= 0 {
		return DefaultRetryInterval
	}
	return s.RetryInterval
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
