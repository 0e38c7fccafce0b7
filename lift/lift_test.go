package lift_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/corpus"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/lift"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/space"
)

var _ = Describe("Context dispatch", func() {
	var (
		facade arch.Facade
		state  *irbuilder.State
		b      *irbuilder.RefBuilder
		mem    irbuilder.MemoryHandle
		ctx    *lift.Context
	)

	BeforeEach(func() {
		f, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())
		facade = f
		state = irbuilder.NewState()
		b = irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem = b.NewMemoryHandle()
		ctx = lift.NewContext(facade, b, mem, pcode.CategoryOther)
	})

	It("starts at StatusSuccess with no fault recorded", func() {
		Expect(ctx.Status).To(Equal(lift.StatusSuccess))
		Expect(ctx.FirstFault).To(BeNil())
	})

	It("keeps Success after a COPY that writes a register", func() {
		out := pcode.Varnode{Space: space.Register, Offset: 0, Size: 4}
		in := pcode.Varnode{Space: space.Const, Offset: 5, Size: 4}
		ctx.Dispatch(pcode.Op{Opcode: pcode.COPY, Out: &out, Inputs: []pcode.Varnode{in}})

		Expect(ctx.Status).To(Equal(lift.StatusSuccess))
		Expect(state.Registers["EAX"]).To(Equal(uint64(5)))
	})

	It("degrades to Unsupported on an op this translator declines, and remembers the first fault", func() {
		unknownCall := pcode.Op{
			Opcode: pcode.CALLOTHER,
			Inputs: []pcode.Varnode{
				{Space: space.Const, Offset: 7, Size: 4},
				{Space: space.Const, Offset: 0, Size: 4},
				{Space: space.Const, Offset: 0, Size: 4},
			},
		}
		ctx.Dispatch(unknownCall)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
		Expect(ctx.FirstFault).NotTo(BeNil())
		Expect(ctx.FirstFault.Opcode).To(Equal(pcode.CALLOTHER))
	})

	It("never raises status back up once degraded", func() {
		out := pcode.Varnode{Space: space.Register, Offset: 0, Size: 4}
		badCall := pcode.Op{Opcode: pcode.CALLOTHER, Inputs: []pcode.Varnode{{Space: space.Const, Offset: 9, Size: 4}}}
		goodCopy := pcode.Op{Opcode: pcode.COPY, Out: &out, Inputs: []pcode.Varnode{{Space: space.Const, Offset: 1, Size: 4}}}

		ctx.Dispatch(badCall)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
		ctx.Dispatch(goodCopy)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
	})

	It("degrades to Invalid when a memory write is refused, and Invalid outranks Unsupported", func() {
		state.RefuseMem = func(addr uint64, size int, isStore bool) bool { return true }
		store := pcode.Op{
			Opcode: pcode.STORE,
			Inputs: []pcode.Varnode{
				{Space: space.Const, Offset: 0, Size: 4},
				{Space: space.Const, Offset: 0x4000, Size: 4},
				{Space: space.Const, Offset: 1, Size: 4},
			},
		}
		badCall := pcode.Op{Opcode: pcode.CALLOTHER, Inputs: []pcode.Varnode{{Space: space.Const, Offset: 9, Size: 4}}}

		ctx.Dispatch(badCall)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
		ctx.Dispatch(store)
		Expect(ctx.Status).To(Equal(lift.StatusInvalid))
	})
})

var _ = Describe("claim_eq CALLOTHER", func() {
	var (
		facade arch.Facade
		state  *irbuilder.State
		b      *irbuilder.RefBuilder
		ctx    *lift.Context
	)

	BeforeEach(func() {
		f, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())
		facade = f
		state = irbuilder.NewState()
		b = irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem := b.NewMemoryHandle()
		ctx = lift.NewContext(facade, b, mem, pcode.CategoryOther)
	})

	It("substitutes the claimed constant's reads with the right-hand parameter's value", func() {
		state.Registers["EBX"] = 77

		claimOp := pcode.Op{
			Opcode: pcode.CALLOTHER,
			Inputs: []pcode.Varnode{
				{Space: space.Const, Offset: 0, Size: 4},
				{Space: space.Const, Offset: 42, Size: 4},
				{Space: space.Register, Offset: 4, Size: 4},
			},
		}
		ctx.Dispatch(claimOp)
		Expect(ctx.Status).To(Equal(lift.StatusSuccess))

		out := pcode.Varnode{Space: space.Register, Offset: 0, Size: 4}
		copyOp := pcode.Op{Opcode: pcode.COPY, Out: &out, Inputs: []pcode.Varnode{{Space: space.Const, Offset: 42, Size: 4}}}
		ctx.Dispatch(copyOp)

		Expect(ctx.Status).To(Equal(lift.StatusSuccess))
		Expect(state.Registers["EAX"]).To(Equal(uint64(77)))
	})

	It("degrades to Unsupported when operand 0 does not index the claim_eq user op", func() {
		claimOp := pcode.Op{
			Opcode: pcode.CALLOTHER,
			Inputs: []pcode.Varnode{
				{Space: space.Const, Offset: 99, Size: 4},
				{Space: space.Const, Offset: 42, Size: 4},
				{Space: space.Register, Offset: 4, Size: 4},
			},
		}
		ctx.Dispatch(claimOp)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
	})
})

var _ = Describe("MULTIEQUAL", func() {
	It("always reports Unsupported even when every incoming operand resolves cleanly", func() {
		facade, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())
		state := irbuilder.NewState()
		b := irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem := b.NewMemoryHandle()
		ctx := lift.NewContext(facade, b, mem, pcode.CategoryOther)

		out := pcode.Varnode{Space: space.Register, Offset: 0, Size: 4}
		op := pcode.Op{
			Opcode: pcode.MULTIEQUAL,
			Out:    &out,
			Inputs: []pcode.Varnode{
				{Space: space.Const, Offset: 1, Size: 4},
				{Space: space.Const, Offset: 2, Size: 4},
			},
		}
		ctx.Dispatch(op)
		Expect(ctx.Status).To(Equal(lift.StatusUnsupported))
	})
})

var _ = Describe("KnownUnsupported", func() {
	It("names every opcode this translator deliberately declines to model", func() {
		Expect(lift.KnownUnsupported[pcode.MULTIEQUAL]).To(BeTrue())
		Expect(lift.KnownUnsupported[pcode.INDIRECT]).To(BeTrue())
		Expect(lift.KnownUnsupported[pcode.COPY]).To(BeFalse())
	})
})
