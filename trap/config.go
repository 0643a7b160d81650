package trap

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chameleon/pkg/eventstream"
)

// Config is the trap server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":5000")
	ListenAddr string

	// BodyLimit is the largest accepted request body in bytes.
	// Defaults to 4 MiB.
	BodyLimit int

	// SynthTimeout bounds a single response synthesis. Defaults to 30s.
	SynthTimeout time.Duration

	// ProviderName is reported in published events, e.g. "groq".
	ProviderName string

	// NumWorkers and QueueSize size the storage worker pool.
	NumWorkers uint
	QueueSize  uint

	// Registerer receives the trap metrics. A private registry is used when nil.
	Registerer prometheus.Registerer

	// Monitor, when set, has its routes mounted ahead of the catch-all trap.
	Monitor RouteMounter

	// Source identifies this trap in published events.
	Source eventstream.EventSource
}

// RouteMounter registers routes on a fiber router.
type RouteMounter interface {
	Routes(r fiber.Router)
}

const (
	defaultBodyLimit    = 4 * 1024 * 1024
	defaultSynthTimeout = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.BodyLimit <= 0 {
		c.BodyLimit = defaultBodyLimit
	}
	if c.SynthTimeout <= 0 {
		c.SynthTimeout = defaultSynthTimeout
	}
	if c.Source.Service == "" {
		c.Source.Service = "chameleon"
	}
	if c.Source.Listener == "" {
		c.Source.Listener = c.ListenAddr
	}
}
