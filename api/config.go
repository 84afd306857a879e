// Package api provides the HTTP API of the cliptape daemon: the message
// channel, REST routes over the history, the change feed and the MCP mount.
package api

import (
	"net/http"
	"time"
)

const defaultHeartbeatInterval = 15 * time.Second

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:8765")
	ListenAddr string

	// MCPHandler, when set, is mounted at /mcp
	MCPHandler http.Handler

	// HeartbeatInterval is how often an idle change feed gets a comment
	// line. Defaults to 15s.
	HeartbeatInterval time.Duration
}
