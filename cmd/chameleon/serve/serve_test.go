package servecmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/pkg/llm/provider"
	"github.com/papercomputeco/chameleon/pkg/logger"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the serve flags with config defaults", func() {
		cmd := NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":5000"))

		kind := cmd.Flags().Lookup("provider")
		Expect(kind).NotTo(BeNil())
		Expect(kind.DefValue).To(Equal("groq"))

		for _, name := range []string{"api-listen", "sqlite", "postgres", "base-url", "model", "synth-timeout", "kafka-brokers", "kafka-topic"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects positional arguments", func() {
		cmd := NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("newSynthesizer", func() {
	var (
		cmder *serveCommander
		v     *viper.Viper
	)

	BeforeEach(func() {
		cmder = &serveCommander{logger: logger.Nop()}
		v = viper.New()
		v.Set("provider.kind", "openai")
		v.Set("provider.timeout", "5s")
		v.Set("provider.max_tokens", 512)
		v.Set("provider.temperature", 0.2)
	})

	It("builds an unready synthesizer without a credential", func() {
		GinkgoT().Setenv(provider.CredentialEnv(provider.OpenAI), "")

		svc, kind, err := cmder.newSynthesizer(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(provider.OpenAI))
		Expect(svc.EnsureReady()).To(BeFalse())
	})

	It("builds a ready synthesizer with a credential", func() {
		GinkgoT().Setenv(provider.CredentialEnv(provider.OpenAI), "sk-test")

		svc, _, err := cmder.newSynthesizer(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.EnsureReady()).To(BeTrue())
	})

	It("rejects unknown providers", func() {
		v.Set("provider.kind", "gemini")
		_, _, err := cmder.newSynthesizer(v)
		Expect(err).To(MatchError(provider.ErrUnknownKind))
	})
})
