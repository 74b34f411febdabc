// Package connectfour embeds the browser client served by cmd/server.
package connectfour

import "embed"

//go:embed web
var WebFS embed.FS
