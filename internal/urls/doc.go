// Package urls holds the documentation links printed in alerts,
// troubleshooting boxes and the interactive header.
//
// Usage:
//
//	import "github.com/Daisen-Tanaka/line-things-dev-board/internal/urls"
//
//	fmt.Printf("Update the firmware: %s\n", urls.BoardFirmware)
package urls
