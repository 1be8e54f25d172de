// Things-notify is a BLE central for the LINE Things development board.
//
// It discovers dev boards, connects to the ones you pick, writes the
// initial display and LED state and streams switch and temperature
// notifications into a numbered log. A running session can be mirrored to
// browsers and to other machines on the LAN.
//
// Usage:
//
//	things-notify [command] [flags]
//
// Running without arguments launches the interactive UI.
// See 'things-notify --help' for available commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/config"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/urls"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	backend    string
	logLevel   string
	logFile    string
	serveAddr  string
	advertise  bool
	configPath string
	namePrefix string
)

var rootCmd = &cobra.Command{
	Use:   "things-notify",
	Short: "LINE Things dev board notification client",
	Long: `A Bluetooth LE client for the LINE Things development board.

Discovers dev boards, connects to them, writes the initial display text and
LED state, and logs switch and temperature notifications.

If no command is specified, the interactive UI will launch automatically.`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	// Assigned here rather than in the literal: initLogging reads rootCmd.
	rootCmd.PersistentPreRunE = initLogging

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&backend, "backend", ble.BackendTinyGo, "BLE stack (tinygo, hci)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&serveAddr, "serve", "", "Mirror the session over HTTP on this address (e.g. :8080)")
	rootCmd.PersistentFlags().BoolVar(&advertise, "advertise", true, "Advertise the mirrored session over mDNS")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&namePrefix, "name-prefix", "", "Only report devices whose name starts with this prefix")

	rootCmd.AddCommand(versionCmd)
}

// initLogging sends zap output to --log-file. The interactive UI owns the
// terminal, so it logs next to the config file unless told otherwise.
func initLogging(cmd *cobra.Command, args []string) error {
	path := logFile
	enabled := logLevel != "" || os.Getenv(logging.LogLevelEnvVar) != ""
	if path == "" && enabled && cmd == rootCmd {
		if dir, err := config.GetConfigDir(); err == nil && os.MkdirAll(dir, 0700) == nil {
			path = filepath.Join(dir, "things-notify.log")
		}
	}
	if err := logging.InitializeTo(logLevel, path); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("things-notify %s (commit: %s)\n", version.Version, version.Commit)
		fmt.Printf("  %s\n", version.StackRevision(ble.BackendTinyGo))
		fmt.Printf("  %s\n", version.StackRevision(ble.BackendHCI))
		fmt.Printf("Source: %s\n", urls.ProjectHome)
	},
}
