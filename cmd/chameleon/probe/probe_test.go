package probecmder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/synth"
)

type fakeSynthesizer struct {
	got    synth.Request
	result synth.Result
}

func (f *fakeSynthesizer) EnsureReady() bool { return true }

func (f *fakeSynthesizer) Generate(_ context.Context, req synth.Request) synth.Result {
	f.got = req
	return f.result
}

var _ = Describe("probe", func() {
	var (
		fake           *fakeSynthesizer
		cmder          *probeCommander
		v              *viper.Viper
		stdout, stderr *bytes.Buffer
		gotConfig      synth.Config
	)

	BeforeEach(func() {
		fake = &fakeSynthesizer{result: synth.Result{
			Body:    `{"status":"success","users":[{"id":1}]}`,
			Outcome: synth.OutcomeSuccess,
		}}
		cmder = &probeCommander{
			logger: logger.Nop(),
			newSynthesizer: func(cfg synth.Config, _ *slog.Logger) synth.Synthesizer {
				gotConfig = cfg
				return fake
			},
		}
		v = viper.New()
		v.Set("provider.kind", "groq")
		v.Set("provider.model", "llama-3.3-70b-versatile")
		v.Set("trap.synth_timeout", "5s")
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	It("prints the indented body and normalizes the request", func() {
		Expect(cmder.run(context.Background(), v, stdout, stderr, "get", "api/users", false)).To(Succeed())

		Expect(fake.got.Method).To(Equal("GET"))
		Expect(fake.got.Endpoint).To(Equal("/api/users"))
		Expect(fake.got.Payload).To(BeNil())
		Expect(gotConfig.Model).To(Equal("llama-3.3-70b-versatile"))

		Expect(stdout.String()).To(ContainSubstring("\n  \"status\": \"success\""))
		Expect(stderr.String()).To(ContainSubstring("success"))
	})

	It("passes an explicit payload, even when empty", func() {
		cmder.payload = ""
		Expect(cmder.run(context.Background(), v, stdout, stderr, "POST", "/login", true)).To(Succeed())

		Expect(fake.got.Payload).NotTo(BeNil())
		Expect(*fake.got.Payload).To(BeEmpty())
	})

	It("reports fallbacks on stderr and still prints the body", func() {
		fake.result = synth.Result{
			Body:    `{"status":"success"}`,
			Outcome: synth.OutcomeUnavailable,
			Err:     errors.New("no credential"),
		}

		Expect(cmder.run(context.Background(), v, stdout, stderr, "GET", "/", false)).To(Succeed())
		Expect(stderr.String()).To(ContainSubstring("unavailable"))
		Expect(stderr.String()).To(ContainSubstring("no credential"))
		Expect(stdout.String()).To(ContainSubstring("status"))
	})

	It("rejects an invalid synth timeout", func() {
		v.Set("trap.synth_timeout", "forever")
		Expect(cmder.run(context.Background(), v, stdout, stderr, "GET", "/", false)).To(HaveOccurred())
	})
})

var _ = Describe("indent", func() {
	It("leaves non-JSON untouched", func() {
		Expect(indent("not json")).To(Equal("not json"))
	})
})

var _ = Describe("NewProbeCmd", func() {
	It("requires a method and an endpoint", func() {
		cmd := NewProbeCmd()
		Expect(cmd.Args(cmd, []string{"GET"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"GET", "/"})).To(Succeed())
	})
})
