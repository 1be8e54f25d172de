// Package ui provides console output components for the things-notify CLI.
//
// Unlike the interactive TUI, these components print and move on: the
// scan and connect commands stream the session log line by line and frame it
// with a header and a result box.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with the board setup steps
//   - Result: Success/failure/warning boxes, with troubleshooting tips for BLE errors
//   - Console: session.Events sink printing "#N>" log lines and alert boxes
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Connect", "things-notify connect "+id, ui.Param{Key: "Backend", Value: backend})
//
//	state := session.New(ui.NewConsole(nil))
//	...
//	if err != nil {
//	    p.PrintError("Connection failed", err)
//	}
//
// # Logging Integration
//
// zap logging is silent unless THINGS_LOG_LEVEL or --log-level is set, so the
// curated output here is displayed cleanly.
package ui
