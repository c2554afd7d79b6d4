package main

import (
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseFlags", func() {
	It("runs the scheduler by default", func() {
		opts, err := parseFlags(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.sweep).To(BeFalse())
	})

	It("accepts --sweep", func() {
		opts, err := parseFlags([]string{"--sweep"})
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.sweep).To(BeTrue())
	})

	It("accepts an explicit boolean value", func() {
		opts, err := parseFlags([]string{"--sweep=false"})
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.sweep).To(BeFalse())
	})

	It("rejects unknown flags", func() {
		_, err := parseFlags([]string{"--drain"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects positional arguments", func() {
		_, err := parseFlags([]string{"sweep"})
		Expect(err).To(MatchError(ContainSubstring("unexpected arguments")))
	})

	It("reports help requests", func() {
		_, err := parseFlags([]string{"--help"})
		Expect(err).To(MatchError(pflag.ErrHelp))
	})
})
