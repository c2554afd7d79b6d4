package id

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("id", func() {
	BeforeEach(func() {
		reset()
		DeferCleanup(reset)
	})

	It("panics when used before Init", func() {
		Expect(func() { New() }).To(PanicWith("id: New called before Init"))
	})

	It("issues increasing ids", func() {
		Expect(Init(2)).To(Succeed())

		a, b := New(), New()
		Expect(b).To(BeNumerically(">", a))
	})

	It("accepts a repeated Init for the same node", func() {
		Expect(Init(3)).To(Succeed())
		Expect(Init(3)).To(Succeed())
	})

	It("refuses to switch nodes", func() {
		Expect(Init(3)).To(Succeed())
		Expect(Init(4)).To(MatchError(ContainSubstring("refusing node 4")))
	})

	It("rejects a node outside the snowflake range and can retry", func() {
		Expect(Init(4096)).To(MatchError(ContainSubstring("creating id node 4096")))
		Expect(Init(1)).To(Succeed())
	})
})

func reset() {
	mu.Lock()
	defer mu.Unlock()
	node, current = nil, 0
}
