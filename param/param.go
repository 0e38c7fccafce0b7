// Package param implements the uniform read/write contract the opcode
// handlers use over every varnode class, as a tagged variant rather than
// an interface with four implementations: Parameter carries a closed Kind
// tag and an exhaustive switch drives Read/Write, so there is no heap
// allocation behind a polymorphic handle and the handler code never has
// to guess which concrete cell it holds.
package param

import (
	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/typ"
)

// Kind discriminates the four Parameter variants.
type Kind int

const (
	KindRegister Kind = iota
	KindMemory
	KindConstant
	KindScratch
)

// WriteStatus is the outcome of a Write call.
type WriteStatus int

const (
	WriteSuccess WriteStatus = iota
	WriteUnsupported
	WriteInvalid
)

// Parameter is a handle over one varnode's backing cell. Construct one
// with NewRegister, NewMemory, NewConstant, or NewScratch; zero values are
// not valid Parameters.
type Parameter struct {
	kind Kind
	b    irbuilder.Builder

	reg arch.RegisterRef

	memAddr irbuilder.Value
	mem     *irbuilder.MemoryHandle

	constVal irbuilder.Value

	scratchRef scratch.Ref
}

// NewRegister returns a RegisterCell bound to ref.
func NewRegister(b irbuilder.Builder, ref arch.RegisterRef) Parameter {
	return Parameter{kind: KindRegister, b: b, reg: ref}
}

// NewMemory returns a MemoryCell at addr, backed by the memory handle mem
// points at. mem is shared with the caller so a write can refresh it in
// place.
func NewMemory(b irbuilder.Builder, addr irbuilder.Value, mem *irbuilder.MemoryHandle) Parameter {
	return Parameter{kind: KindMemory, b: b, memAddr: addr, mem: mem}
}

// NewConstant returns a ConstantCell wrapping an already-materialized
// literal value.
func NewConstant(b irbuilder.Builder, v irbuilder.Value) Parameter {
	return Parameter{kind: KindConstant, b: b, constVal: v}
}

// NewScratch returns a ScratchCell at ref.
func NewScratch(b irbuilder.Builder, ref scratch.Ref) Parameter {
	return Parameter{kind: KindScratch, b: b, scratchRef: ref}
}

// Kind reports which variant this Parameter holds.
func (p Parameter) Kind() Kind { return p.kind }

// Read materializes this cell's value as type t. ok is false iff the cell
// cannot provide that type (a ConstantCell whose literal width doesn't
// match, or a memory intrinsic refusal).
func (p Parameter) Read(t typ.Type) (irbuilder.Value, bool) {
	switch p.kind {
	case KindRegister:
		return p.b.LoadReg(p.reg, t), true
	case KindMemory:
		return p.b.LoadMem(*p.mem, p.memAddr, t)
	case KindConstant:
		if p.constVal.Type.Bits != t.Bits {
			return irbuilder.Value{}, false
		}
		return irbuilder.Value{ID: p.constVal.ID, Type: t}, true
	case KindScratch:
		return p.b.LoadScratch(p.scratchRef, t), true
	default:
		return irbuilder.Value{}, false
	}
}

// Write stores v into this cell.
func (p Parameter) Write(v irbuilder.Value) WriteStatus {
	switch p.kind {
	case KindRegister:
		p.b.StoreReg(p.reg, v)
		return WriteSuccess
	case KindMemory:
		newMem, ok := p.b.StoreMem(*p.mem, p.memAddr, v)
		if !ok {
			return WriteInvalid
		}
		*p.mem = newMem
		return WriteSuccess
	case KindConstant:
		return WriteUnsupported
	case KindScratch:
		p.b.StoreScratch(p.scratchRef, v)
		return WriteSuccess
	default:
		return WriteUnsupported
	}
}
