package corpus

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/lift"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/space"
)

// testArchYAML describes a small, self-contained architecture used to
// seed and replay the golden scenarios: a 32-bit word, a 64-bit
// pointer, three general registers, a two-byte register for narrow
// results, and the program-counter pair every façade must carry.
const testArchYAML = `
word_bits: 32
pointer_bits: 64
registers:
  - {name: EAX, space: register, offset: 0, size: 4}
  - {name: EBX, space: register, offset: 4, size: 4}
  - {name: ECX, space: register, offset: 8, size: 4}
  - {name: DL,  space: register, offset: 12, size: 2}
  - {name: PC,  space: register, offset: 16, size: 8}
  - {name: NEXT_PC, space: register, offset: 24, size: 8}
user_ops:
  - claim_eq
intrinsics:
  load: true
  store: true
`

// Facade returns the architecture description the golden scenarios are
// written against.
func Facade() (*arch.YAMLFacade, error) {
	return arch.ParseFacade([]byte(testArchYAML))
}

func u64(v uint64) *uint64 { return &v }

// Golden returns the built-in scenarios corresponding to the six
// end-to-end walkthroughs this translator's behavior is checked
// against: a constant copy, an unconditional branch, a conditional
// branch taken and not taken, a PIECE/SUBPIECE round trip, and an
// equality-claim substitution.
func Golden() []Scenario {
	return []Scenario{
		{
			Name:    "copy-constant-to-register",
			Address: 0x1000,
			Insn:    []byte{0xB8, 0x07, 0x00, 0x00, 0x00},
			Ops: []pcode.Op{
				{
					Address: 0x1000,
					Opcode:  pcode.COPY,
					Out:     &pcode.Varnode{Space: space.Register, Offset: 0, Size: 4},
					Inputs:  []pcode.Varnode{{Space: space.Const, Offset: 7, Size: 4}},
				},
			},
			ExpectRegisters: map[string]uint64{"EAX": 7},
			ExpectStatus:    "Success",
		},
		{
			Name:    "direct-branch",
			Address: 0x2000,
			Insn:    []byte{0xE9, 0x00, 0x10, 0x00, 0x00},
			Ops: []pcode.Op{
				{
					Address: 0x2000,
					Opcode:  pcode.BRANCH,
					Inputs:  []pcode.Varnode{{Space: space.Const, Offset: 0x1000, Size: 8}},
				},
			},
			ExpectRegisters: map[string]uint64{"PC": 0x1000},
			ExpectStatus:    "Success",
		},
		{
			Name:             "conditional-branch-taken",
			Address:          0x20,
			Insn:             []byte{0x74, 0x60},
			Category:         pcode.CategoryConditionalBranch,
			InitialRegisters: map[string]uint64{"NEXT_PC": 0x20},
			Ops: []pcode.Op{
				{
					Address: 0x20,
					Opcode:  pcode.CBRANCH,
					Inputs: []pcode.Varnode{
						{Space: space.Const, Offset: 0x80, Size: 8},
						{Space: space.Const, Offset: 1, Size: 1},
					},
				},
			},
			ExpectRegisters:   map[string]uint64{"PC": 0x80},
			ExpectBranchTaken: u64(1),
			ExpectStatus:      "Success",
		},
		{
			Name:             "conditional-branch-not-taken",
			Address:          0x20,
			Insn:             []byte{0x74, 0x60},
			Category:         pcode.CategoryConditionalBranch,
			InitialRegisters: map[string]uint64{"NEXT_PC": 0x20},
			Ops: []pcode.Op{
				{
					Address: 0x20,
					Opcode:  pcode.CBRANCH,
					Inputs: []pcode.Varnode{
						{Space: space.Const, Offset: 0x80, Size: 8},
						{Space: space.Const, Offset: 0, Size: 1},
					},
				},
			},
			ExpectRegisters:   map[string]uint64{"PC": 0x22},
			ExpectBranchTaken: u64(0),
			ExpectStatus:      "Success",
		},
		{
			Name:    "piece-then-subpiece-round-trip",
			Address: 0x3000,
			Insn:    []byte{0x66, 0x0F, 0x6E, 0xC0},
			Ops: []pcode.Op{
				{
					Address: 0x3000,
					Opcode:  pcode.PIECE,
					Out:     &pcode.Varnode{Space: space.Unique, Offset: 0, Size: 4},
					Inputs: []pcode.Varnode{
						{Space: space.Const, Offset: 0xAA, Size: 2},
						{Space: space.Const, Offset: 0xBB, Size: 2},
					},
				},
				{
					Address: 0x3000,
					Opcode:  pcode.SUBPIECE,
					Out:     &pcode.Varnode{Space: space.Register, Offset: 12, Size: 2},
					Inputs: []pcode.Varnode{
						{Space: space.Unique, Offset: 0, Size: 4},
						{Space: space.Const, Offset: 0, Size: 4},
					},
				},
			},
			ExpectRegisters: map[string]uint64{"DL": 0xBB},
			ExpectStatus:    "Success",
		},
		{
			Name:             "claim-eq-substitution",
			Address:          0x4000,
			Insn:             []byte{0x89, 0xD8},
			InitialRegisters: map[string]uint64{"EBX": 99},
			Ops: []pcode.Op{
				{
					Address: 0x4000,
					Opcode:  pcode.CALLOTHER,
					Inputs: []pcode.Varnode{
						{Space: space.Const, Offset: 0, Size: 4},
						{Space: space.Const, Offset: 42, Size: 4},
						{Space: space.Register, Offset: 4, Size: 4},
					},
				},
				{
					Address: 0x4000,
					Opcode:  pcode.COPY,
					Out:     &pcode.Varnode{Space: space.Register, Offset: 0, Size: 4},
					Inputs:  []pcode.Varnode{{Space: space.Const, Offset: 42, Size: 4}},
				},
			},
			ExpectRegisters: map[string]uint64{"EAX": 99},
			ExpectStatus:    "Success",
		},
	}
}

// Outcome is the result of replaying one scenario against a fresh
// state: the lift result itself and the register values the caller
// asked to observe.
type Outcome struct {
	Result   lift.Result
	Observed map[string]uint64
}

// Run replays sc against a fresh State built from its InitialRegisters
// and returns the lift outcome plus every register named in
// ExpectRegisters, read back after lifting.
func Run(facade arch.Facade, sc Scenario) (Outcome, error) {
	state := irbuilder.NewState()
	for name, v := range sc.InitialRegisters {
		state.Registers[name] = v
	}
	block := &irbuilder.Block{}
	b := irbuilder.NewRefBuilder(state, block)
	mem := b.NewMemoryHandle()

	gen := pcode.Trace{Ops: sc.Ops}
	result, err := lift.Lift(facade, b, gen, sc.Address, sc.Insn, sc.Category, mem)
	if err != nil {
		return Outcome{}, fmt.Errorf("corpus: run %s: %w", sc.Name, err)
	}

	observed := make(map[string]uint64, len(sc.ExpectRegisters))
	for name := range sc.ExpectRegisters {
		observed[name] = state.Registers[name]
	}
	return Outcome{Result: result, Observed: observed}, nil
}

// Verify runs sc and reports every mismatch between its expectations
// and the observed outcome as a single combined error, or nil if every
// expectation held.
func Verify(facade arch.Facade, sc Scenario) error {
	outcome, err := Run(facade, sc)
	if err != nil {
		return err
	}

	var mismatches []string
	if got := outcome.Result.Status.String(); sc.ExpectStatus != "" && got != sc.ExpectStatus {
		mismatches = append(mismatches, fmt.Sprintf("status: want %s, got %s", sc.ExpectStatus, got))
	}
	if diff := cmp.Diff(sc.ExpectRegisters, outcome.Observed); diff != "" {
		mismatches = append(mismatches, fmt.Sprintf("registers differ:\n%s", diff))
	}
	if sc.ExpectBranchTaken != nil {
		if outcome.Result.BranchTaken == nil {
			mismatches = append(mismatches, "branch-taken: want a value, got none")
		}
	}

	if len(mismatches) == 0 {
		return nil
	}
	return fmt.Errorf("corpus: %s: %d mismatch(es): %v", sc.Name, len(mismatches), mismatches)
}
