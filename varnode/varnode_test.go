package varnode_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/claim"
	"github.com/sleighlift/pcodelift/corpus"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/space"
	"github.com/sleighlift/pcodelift/typ"
	"github.com/sleighlift/pcodelift/varnode"
)

var _ = Describe("Classifier", func() {
	var (
		b      *irbuilder.RefBuilder
		c      *varnode.Classifier
		mem    irbuilder.MemoryHandle
		facade arch.Facade
	)

	BeforeEach(func() {
		f, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())
		facade = f
		state := irbuilder.NewState()
		b = irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem = b.NewMemoryHandle()
		c = varnode.NewClassifier(facade, scratch.NewAllocator(), claim.NewContext(), b)
	})

	It("resolves a register varnode to a RegisterCell via the facade's name table", func() {
		p, err := c.Resolve(pcode.Varnode{Space: space.Register, Offset: 0, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kind()).To(Equal(param.KindRegister))
	})

	It("falls back to a scratch cell for an unnamed register offset", func() {
		p, err := c.Resolve(pcode.Varnode{Space: space.Register, Offset: 9999, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kind()).To(Equal(param.KindScratch))
	})

	It("resolves a const varnode to a ConstantCell carrying the literal", func() {
		p, err := c.Resolve(pcode.Varnode{Space: space.Const, Offset: 42, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kind()).To(Equal(param.KindConstant))
		v, ok := p.Read(typ.IntOf(32))
		Expect(ok).To(BeTrue())
		b.StoreReg(arch.RegisterRef{Name: "R0", Size: 4}, v)
		Expect(b.State.Registers["R0"]).To(Equal(uint64(42)))
	})

	It("resolves a unique varnode to a scratch cell keyed by its offset", func() {
		p1, err := c.Resolve(pcode.Varnode{Space: space.Unique, Offset: 0x10, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		p2, err := c.Resolve(pcode.Varnode{Space: space.Unique, Offset: 0x10, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(p1.Kind()).To(Equal(param.KindScratch))
		Expect(p2.Kind()).To(Equal(param.KindScratch))
		Expect(p2).To(Equal(p1))
	})

	It("resolves a RAM varnode to a MemoryCell addressed by the claim-resolved offset", func() {
		p, err := c.Resolve(pcode.Varnode{Space: space.RAM, Offset: 0x2000, Size: 4}, &mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kind()).To(Equal(param.KindMemory))
	})

	It("errors on an unhandled address space tag", func() {
		_, err := c.Resolve(pcode.Varnode{Space: space.Tag(99), Offset: 0, Size: 4}, &mem)
		Expect(err).To(HaveOccurred())
	})
})
