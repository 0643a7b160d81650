// Package trap provides the honeypot HTTP server. Every request to an
// unclaimed path is answered with a synthesized JSON body and recorded
// asynchronously through the worker pool.
package trap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chameleon/pkg/eventstream"
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/synth"
	"github.com/papercomputeco/chameleon/trap/header"
	"github.com/papercomputeco/chameleon/trap/worker"
)

// MonitorPath is where GET / redirects.
const MonitorPath = "/monitor"

// trapMethods are the methods answered by the catch-all route.
var trapMethods = []string{
	fiber.MethodGet,
	fiber.MethodPost,
	fiber.MethodPut,
	fiber.MethodDelete,
	fiber.MethodPatch,
	fiber.MethodOptions,
	fiber.MethodHead,
}

// Server is the honeypot HTTP server.
type Server struct {
	config        Config
	synthesizer   synth.Synthesizer
	workerPool    *worker.Pool
	metrics       *Metrics
	logger        *slog.Logger
	server        *fiber.App
	headerHandler *header.Handler
	now           func() time.Time
}

// New creates a new trap Server.
// The driver and publisher are handed to the worker pool, which owns all
// persistence off the request path.
func New(config Config, synthesizer synth.Synthesizer, driver storage.Driver, publisher eventstream.Publisher, logger *slog.Logger) (*Server, error) {
	if synthesizer == nil {
		return nil, errors.New("synthesizer is required")
	}

	config.applyDefaults()

	reg := config.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("could not register trap metrics: %w", err)
	}

	wp, err := worker.NewPool(&worker.Config{
		Driver:     driver,
		Publisher:  publisher,
		Source:     config.Source,
		NumWorkers: config.NumWorkers,
		QueueSize:  config.QueueSize,
		OnDrop:     func(worker.Job) { metrics.drop() },
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
		// Request values outlive the handler in queued jobs.
		Immutable: true,
	})

	app.Use(recover.New())
	app.Use(compress.New())

	s := &Server{
		config:        config,
		synthesizer:   synthesizer,
		workerPool:    wp,
		metrics:       metrics,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		now:           time.Now,
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(MonitorPath, fiber.StatusFound)
	})

	if config.Monitor != nil {
		config.Monitor.Routes(app)
	}

	for _, method := range trapMethods {
		app.Add(method, "/*", s.handleTrap)
	}

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.server
}

// Run starts the trap server on the configured listening address
func (s *Server) Run() error {
	s.logger.Info("starting trap server",
		"listen", s.config.ListenAddr,
		"provider", s.config.ProviderName,
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the trap server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting trap server",
		"listen", listener.Addr().String(),
		"provider", s.config.ProviderName,
	)

	return s.server.Listener(listener)
}

// Close stops accepting requests, then waits for queued logs to be stored.
func (s *Server) Close() error {
	err := s.server.Shutdown()
	s.workerPool.Close()
	return err
}

// handleTrap answers any request with a synthesized body and queues the
// attack log for storage.
func (s *Server) handleTrap(c *fiber.Ctx) error {
	startTime := time.Now()

	method := c.Method()
	endpoint := c.Path()
	payload := extractPayload(c)

	ctx, cancel := context.WithTimeout(c.UserContext(), s.config.SynthTimeout)
	defer cancel()

	result := s.synthesizer.Generate(ctx, synth.Request{
		Method:   method,
		Endpoint: endpoint,
		Payload:  payload,
	})
	elapsed := time.Since(startTime)
	s.metrics.observe(method, result.Outcome, elapsed)

	attack := storage.AttackLog{
		ID:             uuid.NewString(),
		Timestamp:      s.now().UTC(),
		IPAddress:      s.headerHandler.ClientIP(c),
		RequestMethod:  method,
		Endpoint:       endpoint,
		PayloadData:    payload,
		AIResponseSent: result.Body,
		UserAgent:      s.headerHandler.UserAgent(c),
		Outcome:        string(result.Outcome),
	}

	if result.Err != nil {
		s.logger.Warn("serving fallback response",
			"method", method,
			"endpoint", endpoint,
			"outcome", result.Outcome,
			"error", result.Err,
		)
	}

	s.workerPool.Enqueue(worker.Job{
		Log: attack,
		Meta: eventstream.SynthMeta{
			Provider:   s.config.ProviderName,
			Outcome:    string(result.Outcome),
			DurationMs: elapsed.Milliseconds(),
		},
	})

	s.headerHandler.SetTrapResponseHeaders(c)
	return c.Status(fiber.StatusOK).SendString(result.Body)
}

// extractPayload returns form fields as a JSON object for form requests,
// otherwise the body as UTF-8 with invalid bytes replaced, or nil when the
// request carried nothing.
func extractPayload(c *fiber.Ctx) *string {
	if isForm(c.Get(fiber.HeaderContentType)) {
		fields := formFields(c)
		if len(fields) == 0 {
			return nil
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil
		}
		payload := string(encoded)
		return &payload
	}

	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	payload := strings.ToValidUTF8(string(body), "\uFFFD")
	return &payload
}

func isForm(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, fiber.MIMEApplicationForm) ||
		strings.HasPrefix(contentType, fiber.MIMEMultipartForm)
}

// formFields keeps the first value of each field. Uploaded files are ignored.
func formFields(c *fiber.Ctx) map[string]string {
	fields := map[string]string{}

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return fields
		}
		for k, vs := range form.Value {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}
		return fields
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if _, seen := fields[k]; !seen {
			fields[k] = string(value)
		}
	})
	return fields
}
