package api

import (
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/chameleon/pkg/storage"
)

// Server is the API server for monitoring the trap.
type Server struct {
	config   Config
	driver   storage.Driver
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The driver is injected to allow sharing with the trap's worker pool, and
// the gatherer exposes the trap's metrics registry.
func NewServer(config Config, driver storage.Driver, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if config.LogLimit <= 0 {
		config.LogLimit = defaultLogLimit
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		driver:   driver,
		gatherer: gatherer,
		logger:   logger,
		app:      app,
	}

	s.Routes(app)

	return s
}

// Routes registers the monitor routes on r. The trap calls this to serve
// the monitor from its own listener.
func (s *Server) Routes(r fiber.Router) {
	r.Get("/ping", s.handlePing)
	r.Get("/monitor", s.handleDashboard)
	r.Get("/monitor/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	r.Get("/api/logs", s.handleLogs)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
