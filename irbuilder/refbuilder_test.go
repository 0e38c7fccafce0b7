package irbuilder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/typ"
)

var _ = Describe("RefBuilder", func() {
	var (
		state *irbuilder.State
		b     *irbuilder.RefBuilder
		out   arch.RegisterRef
	)

	BeforeEach(func() {
		state = irbuilder.NewState()
		b = irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		out = arch.RegisterRef{Name: "R0", Offset: 0, Size: 4}
	})

	readOut := func() uint64 { return state.Registers["R0"] }

	It("adds two 32-bit constants and masks to the result width", func() {
		a := b.Const(0xFFFFFFFF, typ.IntOf(32))
		c := b.Const(1, typ.IntOf(32))
		b.StoreReg(out, b.Add(a, c))
		Expect(readOut()).To(Equal(uint64(0)))
	})

	It("detects unsigned carry out of AddCarry", func() {
		a := b.Const(0xFFFFFFFF, typ.IntOf(32))
		c := b.Const(1, typ.IntOf(32))
		sum, carry := b.AddCarry(a, c)
		b.StoreReg(out, sum)
		Expect(readOut()).To(Equal(uint64(0)))
		b.StoreReg(arch.RegisterRef{Name: "C", Size: 1}, carry)
		Expect(state.Registers["C"]).To(Equal(uint64(1)))
	})

	It("detects signed overflow in AddSCarry at the native word width", func() {
		a := b.Const(0x7FFFFFFFFFFFFFFF, typ.IntOf(64))
		c := b.Const(1, typ.IntOf(64))
		sum, overflow := b.AddSCarry(a, c)
		b.StoreReg(arch.RegisterRef{Name: "R0", Size: 8}, sum)
		Expect(state.Registers["R0"]).To(Equal(uint64(0x8000000000000000)))
		b.StoreReg(arch.RegisterRef{Name: "O", Size: 1}, overflow)
		Expect(state.Registers["O"]).To(Equal(uint64(1)))
	})

	It("detects signed borrow in SubSBorrow at the native word width", func() {
		a := b.Const(0x8000000000000000, typ.IntOf(64))
		c := b.Const(1, typ.IntOf(64))
		diff, borrow := b.SubSBorrow(a, c)
		b.StoreReg(arch.RegisterRef{Name: "R0", Size: 8}, diff)
		Expect(state.Registers["R0"]).To(Equal(uint64(0x7FFFFFFFFFFFFFFF)))
		b.StoreReg(arch.RegisterRef{Name: "B", Size: 1}, borrow)
		Expect(state.Registers["B"]).To(Equal(uint64(1)))
	})

	It("round-trips a PIECE/Concat followed by an Extract", func() {
		hi := b.Const(0xAA, typ.IntOf(16))
		lo := b.Const(0xBB, typ.IntOf(16))
		whole := b.Concat(hi, lo, typ.IntOf(32))
		b.StoreReg(out, whole)
		Expect(readOut()).To(Equal(uint64(0xAA00BB)))

		low16 := b.Extract(whole, 0, typ.IntOf(16))
		b.StoreReg(arch.RegisterRef{Name: "LO", Size: 2}, low16)
		Expect(state.Registers["LO"]).To(Equal(uint64(0xBB)))

		high16 := b.Extract(whole, 2, typ.IntOf(16))
		b.StoreReg(arch.RegisterRef{Name: "HI", Size: 2}, high16)
		Expect(state.Registers["HI"]).To(Equal(uint64(0xAA)))
	})

	It("selects the true branch when the condition is a set low bit", func() {
		cond := b.Const(1, typ.Bool1)
		a := b.Const(11, typ.IntOf(32))
		c := b.Const(22, typ.IntOf(32))
		b.StoreReg(out, b.Select(cond, a, c))
		Expect(readOut()).To(Equal(uint64(11)))
	})

	It("selects the false branch when the condition is clear", func() {
		cond := b.Const(0, typ.Bool1)
		a := b.Const(11, typ.IntOf(32))
		c := b.Const(22, typ.IntOf(32))
		b.StoreReg(out, b.Select(cond, a, c))
		Expect(readOut()).To(Equal(uint64(22)))
	})

	It("always declines to build a Phi", func() {
		a := b.Const(1, typ.IntOf(32))
		c := b.Const(2, typ.IntOf(32))
		_, ok := b.Phi([]irbuilder.Value{a, c}, typ.IntOf(32))
		Expect(ok).To(BeFalse())
	})

	It("yields zero for a shift amount at or beyond the operand width rather than wrapping", func() {
		a := b.Const(1, typ.IntOf(32))
		amt := b.Const(32, typ.IntOf(32))
		b.StoreReg(out, b.Shl(a, amt))
		Expect(readOut()).To(Equal(uint64(0)))
	})

	It("round-trips a store and load through memory", func() {
		mem := b.NewMemoryHandle()
		addr := b.Const(0x1000, typ.IntOf(32))
		v := b.Const(0xDEADBEEF, typ.IntOf(32))
		newMem, ok := b.StoreMem(mem, addr, v)
		Expect(ok).To(BeTrue())

		loaded, ok := b.LoadMem(newMem, addr, typ.IntOf(32))
		Expect(ok).To(BeTrue())
		b.StoreReg(out, loaded)
		Expect(readOut()).To(Equal(uint64(0xDEADBEEF)))
	})

	It("refuses a memory access when State.RefuseMem vetoes it", func() {
		state.RefuseMem = func(addr uint64, size int, isStore bool) bool { return true }
		mem := b.NewMemoryHandle()
		addr := b.Const(0x2000, typ.IntOf(32))
		_, ok := b.LoadMem(mem, addr, typ.IntOf(32))
		Expect(ok).To(BeFalse())
	})
})
