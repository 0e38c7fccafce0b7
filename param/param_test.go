package param_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/typ"
)

var _ = Describe("Parameter", func() {
	var (
		state *irbuilder.State
		b     *irbuilder.RefBuilder
	)

	BeforeEach(func() {
		state = irbuilder.NewState()
		b = irbuilder.NewRefBuilder(state, &irbuilder.Block{})
	})

	Describe("RegisterCell", func() {
		It("round-trips a written value through the named register", func() {
			ref := arch.RegisterRef{Name: "EAX", Offset: 0, Size: 4}
			p := param.NewRegister(b, ref)

			p.Write(b.Const(123, typ.IntOf(32)))
			v, ok := p.Read(typ.IntOf(32))
			Expect(ok).To(BeTrue())
			Expect(state.Registers["EAX"]).To(Equal(uint64(123)))
			_ = v
		})
	})

	Describe("ConstantCell", func() {
		It("reads back a literal at its exact width", func() {
			p := param.NewConstant(b, b.Const(7, typ.IntOf(16)))
			v, ok := p.Read(typ.IntOf(16))
			Expect(ok).To(BeTrue())
			Expect(v.Type.Bits).To(Equal(16))
		})

		It("refuses to read at a mismatched width", func() {
			p := param.NewConstant(b, b.Const(7, typ.IntOf(16)))
			_, ok := p.Read(typ.IntOf(32))
			Expect(ok).To(BeFalse())
		})

		It("refuses writes", func() {
			p := param.NewConstant(b, b.Const(7, typ.IntOf(16)))
			Expect(p.Write(b.Const(1, typ.IntOf(16)))).To(Equal(param.WriteUnsupported))
		})
	})

	Describe("ScratchCell", func() {
		It("round-trips a written value through its scratch cell", func() {
			alloc := scratch.NewAllocator()
			ref, err := alloc.Get("unique", 0x20, 4)
			Expect(err).NotTo(HaveOccurred())

			p := param.NewScratch(b, ref)
			p.Write(b.Const(55, typ.IntOf(32)))
			v, ok := p.Read(typ.IntOf(32))
			Expect(ok).To(BeTrue())
			Expect(state.Scratch[ref]).To(Equal(uint64(55)))
			_ = v
		})
	})

	Describe("MemoryCell", func() {
		It("round-trips a written value through memory", func() {
			mem := b.NewMemoryHandle()
			addr := b.Const(0x1000, typ.IntOf(32))
			p := param.NewMemory(b, addr, &mem)

			status := p.Write(b.Const(0xAB, typ.IntOf(8)))
			Expect(status).To(Equal(param.WriteSuccess))

			v, ok := p.Read(typ.IntOf(8))
			Expect(ok).To(BeTrue())
			_ = v
			Expect(state.Memory[0x1000]).To(Equal(byte(0xAB)))
		})

		It("reports Invalid when the memory intrinsic refuses the access", func() {
			mem := b.NewMemoryHandle()
			addr := b.Const(0x2000, typ.IntOf(32))
			state.RefuseMem = func(uint64, int, bool) bool { return true }
			p := param.NewMemory(b, addr, &mem)

			Expect(p.Write(b.Const(1, typ.IntOf(8)))).To(Equal(param.WriteInvalid))
			_, ok := p.Read(typ.IntOf(8))
			Expect(ok).To(BeFalse())
		})
	})
})
