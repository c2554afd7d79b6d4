package signature_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/http/signature"
)

var _ = Describe("Signature", func() {
	secret := []byte("s3cret")
	body := []byte(`{"action":"opened"}`)

	It("signs with the sha1 prefix", func() {
		Expect(signature.Sign(body, secret)).To(HavePrefix("sha1="))
		Expect(signature.Sign(body, secret)).To(HaveLen(len("sha1=") + 40))
	})

	It("accepts the signature of the exact body", func() {
		Expect(signature.Validate(signature.Sign(body, secret), body, secret)).To(Succeed())
	})

	It("rejects an altered body", func() {
		header := signature.Sign(body, secret)
		err := signature.Validate(header, []byte(`{"action":"closed"}`), secret)
		Expect(err).To(MatchError(signature.ErrMismatch))
	})

	It("rejects the wrong secret", func() {
		header := signature.Sign(body, []byte("other"))
		Expect(signature.Validate(header, body, secret)).To(MatchError(signature.ErrMismatch))
	})

	It("rejects a header without a known prefix", func() {
		Expect(signature.Validate("md5=abc", body, secret)).To(MatchError(signature.ErrMismatch))
	})

	It("reports a missing header", func() {
		Expect(signature.Validate("", body, secret)).To(MatchError(signature.ErrMissing))
	})
})
