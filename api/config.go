// Package api provides the operator monitor: a dashboard, the recent attack
// log feed and the trap metrics.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// LogLimit is the number of logs /api/logs returns by default.
	LogLimit int
}

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)
