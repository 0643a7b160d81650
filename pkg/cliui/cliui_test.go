package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/cliui"
)

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds under a second", func() {
		Expect(cliui.FormatDuration(42 * time.Millisecond)).To(Equal("42ms"))
	})

	It("uses seconds with one decimal otherwise", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Step", func() {
	It("prints a single result line for non-terminal writers", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "opening storage", func() error { return nil })

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("opening storage"))
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		Expect(buf.String()).NotTo(ContainSubstring("\r"))
	})

	It("returns the step error and marks it failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		err := cliui.Step(&buf, "connecting", func() error { return boom })

		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("Outcome", func() {
	It("marks success", func() {
		Expect(cliui.Outcome("success")).To(ContainSubstring(cliui.SuccessMark))
	})

	It("flags fallbacks", func() {
		Expect(cliui.Outcome("provider_error")).To(ContainSubstring("provider_error"))
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("renders headings", func() {
		out, err := cliui.RenderMarkdown("# Attacks\n\nnone yet")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Attacks"))
		Expect(out).To(ContainSubstring("none yet"))
	})
})
