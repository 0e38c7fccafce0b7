package lift

import (
	"log/slog"

	"github.com/rs/xid"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/claim"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/varnode"
)

// Canonical register names every façade used with this package must
// provide: the program counter, and the "next instruction" slot the
// emitter frame reads and writes per C7.
const (
	RegisterPC     = "PC"
	RegisterNextPC = "NEXT_PC"
)

// Context is the per-instruction arena the dispatcher and opcode
// handlers mutate: the target block (via Builder), the memory handle,
// the scratch and claim arenas, and the running lift status. A Context
// must not outlive the single instruction it was created for.
type Context struct {
	Facade     arch.Facade
	Builder    irbuilder.Builder
	Classifier *varnode.Classifier
	Scratch    *scratch.Allocator
	Claims     *claim.Context

	// ID distinguishes this instruction's log records from any other
	// Context's, so concurrent lifts in one process interleave cleanly
	// in the log stream.
	ID xid.ID

	Mem irbuilder.MemoryHandle

	// Category is the decoded instruction category the caller supplied;
	// only the conditional-branch distinction matters to CBRANCH.
	Category pcode.Category

	Status     Status
	FirstFault *pcode.Op

	// BranchTaken holds the full-width CBRANCH condition for
	// instructions categorized as conditional branches. nil if this
	// instruction never emitted one.
	BranchTaken *irbuilder.Value
}

// NewContext builds a fresh per-instruction arena over an existing
// Builder and memory handle.
func NewContext(facade arch.Facade, b irbuilder.Builder, mem irbuilder.MemoryHandle, category pcode.Category) *Context {
	alloc := scratch.NewAllocator()
	claims := claim.NewContext()
	return &Context{
		Facade:     facade,
		Builder:    b,
		Classifier: varnode.NewClassifier(facade, alloc, claims, b),
		Scratch:    alloc,
		Claims:     claims,
		ID:         xid.New(),
		Mem:        mem,
		Category:   category,
		Status:     StatusSuccess,
	}
}

// record folds one op's outcome into the running status per the
// monotonic degrade rule, and remembers the first op that caused any
// degradation.
func (c *Context) record(op pcode.Op, s Status) {
	c.Status = degrade(c.Status, s)
	if s != StatusSuccess && c.FirstFault == nil {
		opCopy := op
		c.FirstFault = &opCopy
	}
	logger().Debug("lifted op", "inst", c.ID.String(), "opcode", op.Opcode.String(), "status", s.String())
}

var sharedLogger = slog.Default()

// SetLogger installs the logger used for per-opcode debug records and
// per-instruction info records. Passing nil restores slog's default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	sharedLogger = l
}

func logger() *slog.Logger { return sharedLogger }
