package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/logger"
)

// decode parses the single JSON record in buf.
func decode(buf *bytes.Buffer) map[string]any {
	var record map[string]any
	Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record)).To(Succeed())
	return record
}

var fixedTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

var _ = Describe("New", func() {
	DescribeTable("renders a trap record",
		func(opts []logger.Option, want ...string) {
			var buf bytes.Buffer
			l := logger.New(append(opts, logger.WithWriter(&buf))...)
			l.Info("trap hit", "method", "PROPFIND", "endpoint", "/.env")

			for _, w := range want {
				Expect(buf.String()).To(ContainSubstring(w))
			}
		},
		Entry("as text by default", nil, "msg=\"trap hit\"", "method=PROPFIND", "endpoint=/.env"),
		Entry("as JSON", []logger.Option{logger.WithJSON(true)}, `"msg":"trap hit"`, `"endpoint":"/.env"`),
		Entry("pretty", []logger.Option{logger.WithPretty(true)}, "trap hit", "PROPFIND"),
	)

	It("drops debug records unless debug is on", func() {
		var quiet, verbose bytes.Buffer
		logger.New(logger.WithWriter(&quiet)).Debug("strategy rejected")
		logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)).Debug("strategy rejected")

		Expect(quiet.String()).To(BeEmpty())
		Expect(verbose.String()).To(ContainSubstring("strategy rejected"))
	})

	It("adds the caller location with WithSource", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true)).Info("located")

		source, ok := decode(&buf)["source"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(source["file"]).To(HaveSuffix("logger_test.go"))
	})

	It("omits the caller location by default", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("anywhere")

		Expect(decode(&buf)).NotTo(HaveKey("source"))
	})

	It("nests grouped attributes", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).WithGroup("request")
		l.Info("trap hit", "method", "GET")

		group, ok := decode(&buf)["request"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["method"]).To(Equal("GET"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("survives derived loggers", func() {
		Expect(func() {
			logger.Nop().With("component", "worker").WithGroup("job").Error("dropped")
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	var console, file bytes.Buffer

	BeforeEach(func() {
		console.Reset()
		file.Reset()
	})

	It("writes each record to every logger in its own format", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.Warn("provider call failed", "endpoint", "/admin")

		Expect(console.String()).To(ContainSubstring("level=WARN"))
		Expect(decode(&file)["endpoint"]).To(Equal("/admin"))
	})

	It("honors each logger's level", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true), logger.WithDebug(true)),
		)
		l.Debug("client strategy rejected options")

		Expect(console.String()).To(BeEmpty())
		Expect(file.String()).To(ContainSubstring("client strategy rejected options"))
	})

	It("carries attributes and groups to every logger", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		).With("component", "trap").WithGroup("request")
		l.Info("trap hit", "method", "PUT")

		for _, buf := range []*bytes.Buffer{&console, &file} {
			record := decode(buf)
			Expect(record["component"]).To(Equal("trap"))
			Expect(record["request"]).To(HaveKeyWithValue("method", "PUT"))
		}
	})

	It("keeps delivering when one logger fails", func() {
		broken := logger.New(logger.WithWriter(failingWriter{}), logger.WithJSON(true))
		l := logger.Multi(broken, logger.New(logger.WithWriter(&file)))

		err := l.Handler().Handle(context.Background(), slog.NewRecord(fixedTime, slog.LevelInfo, "still here", 0))
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(file.String()).To(ContainSubstring("still here"))
	})

	It("skips nil loggers", func() {
		l := logger.Multi(nil, logger.New(logger.WithWriter(&file)), nil)
		l.Info("only one")

		Expect(strings.Count(file.String(), "only one")).To(Equal(1))
	})

	It("is disabled when every logger is", func() {
		l := logger.Multi(logger.Nop(), logger.Nop())
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})
