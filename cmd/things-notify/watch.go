package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/discovery"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/server"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ui"
)

var (
	watchTimeout time.Duration
	watchSession string
	watchURL     string
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", discovery.DefaultScanTimeout, "How long to look for sessions")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "Session ID to follow (default: the only one found)")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "WebSocket URL to follow (skips discovery)")
}

// watchCmd follows a session mirrored by another things-notify
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a session running on another machine",
	Long: `Find things-notify sessions mirrored on the local network and print
their log as it happens.

Sessions are found over mDNS. A session started with --serve is advertised
automatically; pass --url to follow one that is not.`,
	Example: `  # Follow the only session on the network
  things-notify watch

  # Pick one of several sessions
  things-notify watch --session 01J9Z4W8V3K8Q2M5T7X1B6N0RC

  # Follow a known address
  things-notify watch --url ws://192.168.1.20:8080/ws`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(os.Stdout)

	url := watchURL
	if url == "" {
		target, err := findSession(ctx, printer)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		url = target.WebSocketURL()
		printer.PrintHeader("Watch", "things-notify watch",
			ui.Param{Key: "Session", Value: target.ID},
			ui.Param{Key: "Host", Value: target.Hostname},
			ui.Param{Key: "Backend", Value: target.GetMetadata(discovery.TXTBackend)})
	} else {
		printer.PrintHeader("Watch", "things-notify watch", ui.Param{Key: "URL", Value: url})
	}

	console := ui.NewConsole(os.Stdout)
	err := server.Tail(ctx, url, func(e server.Event) {
		e.Deliver(console)
	})
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		printer.PrintError("Stream failed", err)
		return err
	}
	printer.Println("Session closed")
	return nil
}

// findSession browses for mirrored sessions and picks one. It returns nil
// without an error when nothing was found, after telling the user.
func findSession(ctx context.Context, printer *ui.Printer) (*discovery.Session, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = watchTimeout

	if watchSession != "" {
		printer.Println(fmt.Sprintf("Looking for session %s (timeout: %s)...", watchSession, watchTimeout))
		target, err := scanner.WaitForSession(ctx, watchSession)
		if err != nil {
			return nil, fmt.Errorf("session %s not found: %w", watchSession, err)
		}
		return target, nil
	}

	printer.Println(fmt.Sprintf("Looking for sessions (timeout: %s)...", watchTimeout))
	sessions, err := scanner.Browse(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	switch len(sessions) {
	case 0:
		printer.PrintWarning("No sessions found",
			ui.Param{Key: "Hint", Value: "start one with 'things-notify --serve :8080'"})
		return nil, nil
	case 1:
		return sessions[0], nil
	}

	printer.Println(fmt.Sprintf("Found %d sessions:", len(sessions)))
	for _, s := range sessions {
		printer.Println("  " + s.String())
	}
	return nil, errors.New("more than one session found; pick one with --session")
}
