package scratch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/scratch"
)

var _ = Describe("Allocator", func() {
	var a *scratch.Allocator

	BeforeEach(func() {
		a = scratch.NewAllocator()
	})

	It("returns the same ref for a repeated (pool, offset) at a stable size", func() {
		r1, err := a.Get("unique", 0x10, 4)
		Expect(err).NotTo(HaveOccurred())
		r2, err := a.Get("unique", 0x10, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(r1).To(Equal(r2))
	})

	It("gives distinct pools independent offset spaces", func() {
		r1, err := a.Get("unique", 0, 4)
		Expect(err).NotTo(HaveOccurred())
		r2, err := a.Get("unknown-register", 0, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(r1).NotTo(Equal(r2))
	})

	It("errors when the same (pool, offset) is asked for at a conflicting size", func() {
		_, err := a.Get("unique", 0x10, 4)
		Expect(err).NotTo(HaveOccurred())
		_, err = a.Get("unique", 0x10, 8)
		Expect(err).To(HaveOccurred())
	})

	It("forgets every cell after Reset", func() {
		r1, err := a.Get("unique", 0x10, 4)
		Expect(err).NotTo(HaveOccurred())
		a.Reset()
		_, err = a.Get("unique", 0x10, 8)
		Expect(err).NotTo(HaveOccurred())
		_ = r1
	})
})
