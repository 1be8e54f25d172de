// Package discovery finds notify sessions on the local network over mDNS.
//
// A session started with --serve advertises its log mirror as a
// "_things-notify._tcp" service. The TXT record carries the session ULID
// ("id"), the application version and the BLE backend. The watch command
// browses for these services and tails the chosen session over WebSocket.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("things-notify on desk", 8080, map[string]string{
//	    discovery.TXTSessionID: state.ID,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	sessions, err := discovery.NewScanner().Browse(ctx)
//	for _, s := range sessions {
//	    fmt.Println(s.Instance, s.WebSocketURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Sessions must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
