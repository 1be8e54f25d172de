// Package tui implements the interactive terminal screen for a notify session.
//
// The screen is a single Bubble Tea model showing the discovered devices, one
// card per device that has been selected, and the numbered session log. Alerts
// raised by the session (SDK errors, unsupported firmware) are drawn as modal
// overlays; blocking alerts close only on enter.
//
// # Event Flow
//
// The scanner and connection manager never talk to the model directly. They
// report to a session.State, whose Events sink is a Bridge that turns every
// event into a tea.Msg:
//
//	state := session.New(nil)
//	model := tui.NewAppModel(ctx, tui.Deps{Session: state, Scanner: sc, Manager: mgr})
//	program := tea.NewProgram(model, tea.WithAltScreen())
//	state.SetEvents(tui.NewBridge(program))
//
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Scans, connects and disconnects run as tea.Cmds, so session events are
// always sent from outside the update loop.
//
// # Keys
//
//   - enter: connect to the highlighted device
//   - d: disconnect the highlighted device
//   - r: restart discovery after it stopped on an error
//   - pgup/pgdn: scroll the log
//   - q: quit
package tui
