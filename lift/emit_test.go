package lift_test

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sleighlift/pcodelift/corpus"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/lift"
	"github.com/sleighlift/pcodelift/pcode"
)

var _ = Describe("Lift", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("drives the generator exactly once at the instruction's own address", func() {
		facade, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())

		state := irbuilder.NewState()
		b := irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem := b.NewMemoryHandle()

		gen := NewMockGenerator(mockCtrl)
		gen.EXPECT().Generate(uint64(0x5000), gomock.Any()).Return(nil).Times(1)

		_, err = lift.Lift(facade, b, gen, 0x5000, []byte{0x90}, pcode.CategoryOther, mem)
		Expect(err).NotTo(HaveOccurred())
	})

	It("propagates a generator error as a lift error", func() {
		facade, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())

		state := irbuilder.NewState()
		b := irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem := b.NewMemoryHandle()

		gen := NewMockGenerator(mockCtrl)
		gen.EXPECT().Generate(uint64(0x6000), gomock.Any()).Return(errGeneratorFailed)

		_, err = lift.Lift(facade, b, gen, 0x6000, []byte{0x90}, pcode.CategoryOther, mem)
		Expect(err).To(HaveOccurred())
	})

	It("advances NEXT_PC by the instruction length even with no ops emitted", func() {
		facade, err := corpus.Facade()
		Expect(err).NotTo(HaveOccurred())

		state := irbuilder.NewState()
		state.Registers["NEXT_PC"] = 0x100
		b := irbuilder.NewRefBuilder(state, &irbuilder.Block{})
		mem := b.NewMemoryHandle()

		result, err := lift.Lift(facade, b, pcode.Trace{}, 0x100, []byte{0x90, 0x90}, pcode.CategoryOther, mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(lift.StatusSuccess))
		Expect(state.Registers["NEXT_PC"]).To(Equal(uint64(0x102)))
		Expect(state.Registers["PC"]).To(Equal(uint64(0x102)))
	})
})

type errString string

func (e errString) Error() string { return string(e) }

const errGeneratorFailed = errString("generator failed")
