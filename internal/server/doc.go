// Package server mirrors a running notify session over HTTP.
//
// A Hub is added to the session's event sinks and keeps a bounded backlog of
// everything the session reports. Browsers load the embedded page at "/" and
// follow the session over a WebSocket at "/ws"; every new client first
// receives the backlog and then live events, each with a sequence number.
// "/api/state" returns a JSON snapshot of devices and cards.
//
// # Usage
//
//	hub := server.NewHub(server.DefaultBacklog)
//	state.SetEvents(session.Multi{tui.NewBridge(program), hub})
//
//	srv := server.New(server.Config{Addr: ":8080", Advertise: true, Backend: "tinygo"}, state, hub)
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(ctx)
//
// When Advertise is set the session is published over mDNS as
// _things-notify._tcp with its session ID in the TXT record, so
// "things-notify watch" on another machine can find it. Tail is the client
// side of the stream.
//
// The mirror is read-only. Clients cannot connect or disconnect devices.
package server
