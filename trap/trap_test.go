package trap_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/storage/inmemory"
	"github.com/papercomputeco/chameleon/pkg/synth"
	"github.com/papercomputeco/chameleon/trap"
)

// stubSynthesizer records requests and returns a fixed result.
type stubSynthesizer struct {
	mu       sync.Mutex
	requests []synth.Request
	result   synth.Result
}

func (s *stubSynthesizer) EnsureReady() bool { return true }

func (s *stubSynthesizer) Generate(_ context.Context, req synth.Request) synth.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

func (s *stubSynthesizer) last() synth.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// monitorStub claims a single path ahead of the trap.
type monitorStub struct{}

func (monitorStub) Routes(r fiber.Router) {
	r.Get("/monitor", func(c *fiber.Ctx) error {
		return c.SendString("dashboard")
	})
}

var _ = Describe("Trap", func() {
	var (
		stub   *stubSynthesizer
		driver *inmemory.Driver
		reg    *prometheus.Registry
		srv    *trap.Server
		ctx    context.Context
	)

	newServer := func(monitor trap.RouteMounter) {
		var err error
		srv, err = trap.New(trap.Config{
			ListenAddr:   ":0",
			ProviderName: "mock",
			Registerer:   reg,
			Monitor:      monitor,
		}, stub, driver, nil, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	}

	do := func(req *http.Request) (*http.Response, string) {
		resp, err := srv.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp, string(body)
	}

	// drain stops the server and waits for queued logs to land in storage.
	drain := func() []*storage.AttackLog {
		_ = srv.Close()
		logs, err := driver.Recent(ctx, 50)
		Expect(err).NotTo(HaveOccurred())
		return logs
	}

	BeforeEach(func() {
		stub = &stubSynthesizer{result: synth.Result{
			Body:    `{"status":"success","data":{"users":[]}}`,
			Outcome: synth.OutcomeSuccess,
		}}
		driver = inmemory.NewDriver()
		reg = prometheus.NewRegistry()
		ctx = context.Background()
		newServer(nil)
	})

	It("requires a synthesizer", func() {
		_, err := trap.New(trap.Config{}, nil, driver, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("redirects the root to the monitor", func() {
		resp, _ := do(httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(resp.StatusCode).To(Equal(fiber.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal(trap.MonitorPath))
		drain()
	})

	It("serves the synthesized body verbatim with no-cache JSON headers", func() {
		resp, body := do(httptest.NewRequest(http.MethodGet, "/api/v1/users?page=2", nil))

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(body).To(Equal(stub.result.Body))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache, no-store, must-revalidate"))

		req := stub.last()
		Expect(req.Method).To(Equal("GET"))
		Expect(req.Endpoint).To(Equal("/api/v1/users"))
		Expect(req.Payload).To(BeNil())
		drain()
	})

	It("still answers 200 when synthesis fell back", func() {
		stub.result = synth.Result{
			Body:    synth.Fallback(time.Now()),
			Outcome: synth.OutcomeProviderError,
			Err:     errors.New("upstream 500"),
		}

		resp, body := do(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("x")))
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(body).To(ContainSubstring("LEG-"))

		logs := drain()
		Expect(logs).To(HaveLen(1))
		Expect(logs[0].Outcome).To(Equal("provider_error"))
	})

	DescribeTable("answers every trapped method",
		func(method string) {
			resp, _ := do(httptest.NewRequest(method, "/wp-admin/setup.php", nil))
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			logs := drain()
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].RequestMethod).To(Equal(method))
			Expect(logs[0].Endpoint).To(Equal("/wp-admin/setup.php"))
		},
		Entry("GET", http.MethodGet),
		Entry("POST", http.MethodPost),
		Entry("PUT", http.MethodPut),
		Entry("DELETE", http.MethodDelete),
		Entry("PATCH", http.MethodPatch),
		Entry("OPTIONS", http.MethodOptions),
		Entry("HEAD", http.MethodHead),
	)

	It("records the attack log", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"user":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
		req.Header.Set("User-Agent", "Nikto/2.5")
		do(req)

		logs := drain()
		Expect(logs).To(HaveLen(1))
		log := logs[0]
		Expect(log.ID).NotTo(BeEmpty())
		Expect(log.Timestamp.Location().String()).To(Equal("UTC"))
		Expect(log.IPAddress).To(Equal("198.51.100.4"))
		Expect(log.UserAgent).To(Equal("Nikto/2.5"))
		Expect(log.PayloadData).NotTo(BeNil())
		Expect(*log.PayloadData).To(Equal(`{"user":"admin"}`))
		Expect(log.AIResponseSent).To(Equal(stub.result.Body))
		Expect(log.Outcome).To(Equal("success"))
	})

	Describe("payload extraction", func() {
		It("encodes url-encoded form fields as a JSON object", func() {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("user=admin&pass=hunter2&user=root"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			do(req)

			Expect(*stub.last().Payload).To(Equal(`{"pass":"hunter2","user":"admin"}`))
			drain()
		})

		It("encodes multipart form values and ignores files", func() {
			var buf strings.Builder
			mw := multipart.NewWriter(&buf)
			Expect(mw.WriteField("token", "abc")).To(Succeed())
			fw, err := mw.CreateFormFile("upload", "shell.php")
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write([]byte("<?php system($_GET['c']); ?>"))
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(buf.String()))
			req.Header.Set("Content-Type", mw.FormDataContentType())
			do(req)

			Expect(*stub.last().Payload).To(Equal(`{"token":"abc"}`))
			drain()
		})

		It("replaces invalid UTF-8 in raw bodies", func() {
			req := httptest.NewRequest(http.MethodPut, "/blob", strings.NewReader("ok\xff\xfe"))
			req.Header.Set("Content-Type", "application/octet-stream")
			do(req)

			Expect(*stub.last().Payload).To(Equal("ok\uFFFD"))
			drain()
		})

		It("uses nil for an empty form", func() {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			do(req)

			Expect(stub.last().Payload).To(BeNil())
			drain()
		})
	})

	It("mounts monitor routes ahead of the trap", func() {
		newServer(monitorStub{})

		_, body := do(httptest.NewRequest(http.MethodGet, "/monitor", nil))
		Expect(body).To(Equal("dashboard"))
		Expect(drain()).To(BeEmpty())
	})

	It("traps the monitor path when no monitor is mounted", func() {
		_, body := do(httptest.NewRequest(http.MethodGet, "/monitor", nil))
		Expect(body).To(Equal(stub.result.Body))
		Expect(drain()).To(HaveLen(1))
	})

	It("counts requests and outcomes", func() {
		do(httptest.NewRequest(http.MethodGet, "/a", nil))
		do(httptest.NewRequest(http.MethodPost, "/b", nil))
		do(httptest.NewRequest(http.MethodPost, "/c", nil))
		drain()

		Expect(testutil.GatherAndCount(reg, "chameleon_trap_requests_total")).To(Equal(2))
		Expect(testutil.GatherAndCount(reg, "chameleon_synth_outcomes_total")).To(Equal(1))
		Expect(testutil.GatherAndCount(reg, "chameleon_synth_duration_seconds")).To(Equal(1))
	})

	It("reuses collectors when a second trap shares the registry", func() {
		second, err := trap.New(trap.Config{Registerer: reg}, stub, inmemory.NewDriver(), nil, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		_ = second.Close()
		drain()
	})
})
