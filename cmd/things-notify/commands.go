package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ui"
)

// Command flags
var (
	scanTimeout    time.Duration
	connectTimeout time.Duration
	showRSSI       bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
}

// scanCmd lists the dev boards in range
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for dev boards",
	Long: `Scan for LINE Things dev boards and list the ones found.

Waits for Bluetooth to become available, then reports every matching
advertisement until the timeout.`,
	Example: `  # Scan for 10 seconds (default)
  things-notify scan

  # Only boards whose name starts with "LINE"
  things-notify scan --name-prefix LINE

  # Use the raw HCI stack on Linux
  sudo things-notify scan --backend hci`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Second, "How long to scan")
	scanCmd.Flags().BoolVar(&showRSSI, "rssi", false, "Print signal strength updates")
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader("Scan", "things-notify scan",
		ui.Param{Key: "Backend", Value: backend},
		ui.Param{Key: "Timeout", Value: scanTimeout.String()})

	console := ui.NewConsole(os.Stdout)
	console.ShowRSSI = showRSSI
	s.setEvents(console)
	if err := s.startMirror(); err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	scanErr := s.scanner.Run(ctx)
	printer.Newline()
	printer.PrintDevices(s.state.Devices(), s.cfg.Nicknames())

	if scanErr != nil && !isDone(scanErr) {
		printer.PrintError("Scan stopped", scanErr)
		return scanErr
	}
	if len(s.state.Devices()) > 0 {
		printer.Println("Use 'things-notify connect <address>' to connect to a board")
	}
	return nil
}

// connectCmd runs a console session against one board
var connectCmd = &cobra.Command{
	Use:   "connect <address>",
	Short: "Connect to a dev board and stream its notifications",
	Long: `Connect to a dev board, write the initial display and LED state and
enable switch and temperature notifications.

The board must advertise within the timeout. Notifications are logged until
Ctrl-C, then the board is disconnected.`,
	Example: `  # Connect and stream notifications
  things-notify connect E4:5F:01:AA:BB:CC

  # Also mirror the log to browsers on port 8080
  things-notify connect E4:5F:01:AA:BB:CC --serve :8080`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 30*time.Second, "How long to wait for the board to advertise")
}

func runConnect(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader("Connect", "things-notify connect",
		ui.Param{Key: "Device", Value: args[0]},
		ui.Param{Key: "Backend", Value: backend})

	found := newDeviceWaiter(args[0])
	s.setEvents(ui.NewConsole(os.Stdout), found)
	if err := s.startMirror(); err != nil {
		return err
	}
	defer s.close()
	if url := s.mirrorURL(); url != "" {
		printer.Println("Mirroring to " + url)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := waitForDevice(ctx, s, found)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		printer.PrintError("Device not found", err)
		return err
	}

	progress := ui.NewSetupProgress().SetWidth(printer.Width())
	s.manager.Progress = func(_ string, _, _ int, r connection.StepResult) {
		progress.Apply(r)
	}

	report, err := s.manager.Select(ctx, id)
	if err != nil {
		printer.PrintError("Connection failed", err)
		return err
	}
	if report == nil {
		return nil
	}

	printer.Newline()
	printer.PrintProgress(progress)

	details := []ui.Param{
		{Key: "Device", Value: deviceLabel(s, id)},
		{Key: "Firmware", Value: firmwareLabel(report)},
	}
	if failed := report.Failed(); len(failed) > 0 {
		details = append(details, ui.Param{Key: "Failed steps", Value: fmt.Sprint(len(failed))})
		printer.PrintWarning("Connected with setup errors", details...)
	} else {
		printer.PrintSuccess("Connected", details...)
	}
	printer.Println("Streaming notifications, press Ctrl-C to disconnect")

	<-ctx.Done()
	if s.state.IsConnected(id) {
		if err := s.manager.Disconnect(id); err != nil && !errors.Is(err, connection.ErrNotConnected) {
			printer.PrintError("Disconnect failed", err)
		}
	}
	return nil
}

// waitForDevice scans until the waiter sees its id, then stops scanning so
// the connection has the radio to itself. It returns the id as the stack
// reports it.
func waitForDevice(ctx context.Context, s *notifySession, found *deviceWaiter) (string, error) {
	scanCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.scanner.Run(scanCtx) }()

	select {
	case <-found.ch:
		cancel()
		<-done
	case err := <-done:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err != nil && !isDone(err) {
			return "", err
		}
	}

	for _, d := range s.state.Devices() {
		if found.matches(d.ID) {
			return d.ID, nil
		}
	}
	return "", ble.NewError(ble.CodeDeviceNotFound,
		fmt.Sprintf("%s did not advertise within %s", found.id, connectTimeout), nil)
}

func deviceLabel(s *notifySession, id string) string {
	if nick := s.state.Nickname(id); nick != "" {
		return nick
	}
	if d, ok := s.state.Device(id); ok {
		return d.DisplayName()
	}
	return id
}

func firmwareLabel(r *connection.Report) string {
	switch {
	case r.VersionErr != nil && r.Version == 0:
		return "unknown"
	case errors.Is(r.VersionErr, connection.ErrUnsupportedFirmware):
		return fmt.Sprintf("v%d (unsupported)", r.Version)
	default:
		return fmt.Sprintf("v%d", r.Version)
	}
}

func isDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// deviceWaiter is an event sink that signals once a given id is discovered
type deviceWaiter struct {
	session.NopEvents
	id string
	ch chan struct{}
}

func newDeviceWaiter(id string) *deviceWaiter {
	return &deviceWaiter{id: id, ch: make(chan struct{})}
}

// matches compares addresses case-insensitively; stacks differ in case
func (w *deviceWaiter) matches(id string) bool {
	return strings.EqualFold(id, w.id)
}

func (w *deviceWaiter) DeviceFound(d ble.Device) {
	if !w.matches(d.ID) {
		return
	}
	select {
	case <-w.ch:
	default:
		close(w.ch)
	}
}
