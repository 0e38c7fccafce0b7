// Package irbuilder defines the typed IR builder contract the translator
// emits into, and the opaque memory-handle token threaded through every
// memory access. Per the lifter's scope, the builder's internals (and any
// particular backend IR vocabulary) are out of scope; this package only
// fixes the shape of the contract plus one concrete reference
// implementation (RefBuilder) used for testing and the CLI tools.
package irbuilder

import (
	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/typ"
)

// ValueID names one typed value produced by the builder within a Block.
type ValueID int

// Value is a typed handle to one IR value. It is opaque to callers beyond
// its Type; RefBuilder happens to also carry the value's bits so tests can
// assert on results without a second execution pass, but that is a
// RefBuilder-specific convenience, not part of the Builder contract.
type Value struct {
	ID   ValueID
	Type typ.Type
}

// MemoryHandle is the opaque token representing "the current program
// memory". Every store rewrites it; callers must thread the latest handle
// into the next memory operation.
type MemoryHandle struct {
	id int
}

// IRInst is one typed operation recorded into a Block. Op is a mnemonic
// ("add.i32", "load.i64", "const.i32", ...), not a p-code opcode — a
// single p-code op can lower to more than one IRInst (e.g. a shift whose
// amount needs truncating first).
type IRInst struct {
	ID   ValueID
	Op   string
	Args []ValueID
	Imm  uint64
	Type typ.Type
}

// Block is the caller-owned sequence of IR instructions the translator
// appends into. Ownership stays with the caller for the duration of one
// lift call; nothing in this module retains a Block past that call.
type Block struct {
	Insts []IRInst
}

// Builder is the typed IR emitter the translator drives. It provides
// arithmetic, memory, cast, call and control primitives over typed
// values, matching the "typed IR builder" external collaborator from the
// lifter's contract.
type Builder interface {
	Const(v uint64, t typ.Type) Value

	Trunc(v Value, t typ.Type) Value
	ZExt(v Value, t typ.Type) Value
	SExt(v Value, t typ.Type) Value

	Add(a, b Value) Value
	Sub(a, b Value) Value
	Mul(a, b Value) Value
	UDiv(a, b Value) Value
	SDiv(a, b Value) Value
	URem(a, b Value) Value
	SRem(a, b Value) Value
	And(a, b Value) Value
	Or(a, b Value) Value
	Xor(a, b Value) Value
	Shl(a, b Value) Value
	Shr(a, b Value) Value  // logical right shift
	AShr(a, b Value) Value // arithmetic right shift
	Neg(a Value) Value
	Not(a Value) Value

	ICmpEq(a, b Value) Value
	ICmpNe(a, b Value) Value
	ICmpULt(a, b Value) Value
	ICmpSLt(a, b Value) Value
	ICmpULe(a, b Value) Value
	ICmpSLe(a, b Value) Value

	AddCarry(a, b Value) (sum, carry Value)
	AddSCarry(a, b Value) (sum, overflow Value)
	SubSBorrow(a, b Value) (diff, borrow Value)
	Popcount(a Value, outT typ.Type) Value

	// Not1 flips a single bit in place (used by BOOL_NEGATE and composed
	// with ZExt/FCmpEq for FLOAT_NAN; see the lift opcode handlers).
	Not1(a Value) Value
	BoolAnd(a, b Value) Value
	BoolOr(a, b Value) Value
	BoolXor(a, b Value) Value

	FNeg(a Value) Value
	FAbs(a Value) Value
	FSqrt(a Value) Value
	FCeil(a Value) Value
	FFloor(a Value) Value
	FRound(a Value) Value

	FAdd(a, b Value) Value
	FSub(a, b Value) Value
	FMul(a, b Value) Value
	FDiv(a, b Value) Value
	FCmpEq(a, b Value) Value
	FCmpNe(a, b Value) Value
	FCmpLt(a, b Value) Value
	FCmpLe(a, b Value) Value

	IntToFloat(a Value, t typ.Type) Value
	FloatToFloat(a Value, t typ.Type) Value
	FloatToSInt(a Value, t typ.Type) Value

	Select(cond, a, b Value) Value
	// Phi returns ok=false when the builder declines to model a phi (see
	// the MULTIEQUAL open-question resolution in DESIGN.md).
	Phi(incoming []Value, t typ.Type) (Value, bool)

	Concat(hi, lo Value, t typ.Type) Value
	Extract(v Value, byteOffset int, t typ.Type) Value

	LoadReg(ref arch.RegisterRef, t typ.Type) Value
	StoreReg(ref arch.RegisterRef, v Value)

	LoadScratch(ref scratch.Ref, t typ.Type) Value
	StoreScratch(ref scratch.Ref, v Value)

	// LoadMem/StoreMem invoke the memory intrinsics. ok is false iff the
	// intrinsic refused the access (spec's Invalid class for stores).
	LoadMem(mem MemoryHandle, addr Value, t typ.Type) (Value, bool)
	StoreMem(mem MemoryHandle, addr Value, v Value) (MemoryHandle, bool)

	// Call drives an architecture-specific named helper intrinsic.
	Call(name string, args []Value, t typ.Type) (Value, bool)
}
