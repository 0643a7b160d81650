package synth_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/synth"
)

var _ = Describe("BuildPrompt", func() {
	It("interpolates the method, endpoint and payload", func() {
		p := synth.BuildPrompt(synth.NewRequest("POST", "/api/v1/transfers", `{"amount":100}`))

		Expect(p.User).To(ContainSubstring("- http_method: POST"))
		Expect(p.User).To(ContainSubstring("- endpoint: /api/v1/transfers"))
		Expect(p.User).To(ContainSubstring(`- payload: {"amount":100}`))
	})

	It("renders an absent payload as null", func() {
		p := synth.BuildPrompt(synth.Request{Method: "GET", Endpoint: "/users"})
		Expect(p.User).To(ContainSubstring("- payload: null\n"))
	})

	It("keeps an empty payload distinct from an absent one", func() {
		empty := ""
		p := synth.BuildPrompt(synth.Request{Method: "PUT", Endpoint: "/users/1", Payload: &empty})
		Expect(p.User).To(ContainSubstring("- payload: \n"))
		Expect(p.User).NotTo(ContainSubstring("payload: null"))
	})

	It("uses a fixed system instruction", func() {
		a := synth.BuildPrompt(synth.NewRequest("GET", "/a", ""))
		b := synth.BuildPrompt(synth.NewRequest("DELETE", "/b", "x"))

		Expect(a.System).To(Equal(b.System))
		Expect(a.System).To(ContainSubstring("snake_case"))
		Expect(a.System).To(ContainSubstring("raw JSON only"))
		Expect(a.System).To(ContainSubstring("No markdown"))
	})

	It("is deterministic", func() {
		req := synth.NewRequest("GET", "/accounts", "")
		Expect(synth.BuildPrompt(req)).To(Equal(synth.BuildPrompt(req)))
	})
})

var _ = Describe("NewRequest", func() {
	It("treats an empty payload as absent", func() {
		Expect(synth.NewRequest("GET", "/", "").Payload).To(BeNil())
	})

	It("keeps a non-empty payload", func() {
		r := synth.NewRequest("POST", "/", "a=1")
		Expect(r.Payload).NotTo(BeNil())
		Expect(*r.Payload).To(Equal("a=1"))
	})
})
