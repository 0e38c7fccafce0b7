package lift

import (
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/typ"
)

// ternaryStore ignores operand 0 (the space identifier): this package
// targets a single flat memory space, so the space id carries no extra
// information the address doesn't already encode.
func ternaryStore(c *Context, op pcode.Op) Status {
	addrVn, valVn := op.Inputs[1], op.Inputs[2]
	addr, ok := unaryRead(c, addrVn, c.Facade.WordType())
	if !ok {
		return StatusUnsupported
	}
	val, ok := unaryRead(c, valVn, typ.IntOf(8*valVn.Size))
	if !ok {
		return StatusUnsupported
	}
	cell := param.NewMemory(c.Builder, addr, &c.Mem)
	switch cell.Write(val) {
	case param.WriteSuccess:
		return StatusSuccess
	case param.WriteInvalid:
		return StatusInvalid
	default:
		return StatusUnsupported
	}
}

func ternaryPtradd(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	baseVn, idxVn, elemVn := op.Inputs[0], op.Inputs[1], op.Inputs[2]
	outT := typ.IntOf(8 * op.Out.Size)

	base, ok := unaryRead(c, baseVn, c.Facade.WordType())
	if !ok {
		return StatusUnsupported
	}
	idx, ok := unaryRead(c, idxVn, typ.IntOf(8*idxVn.Size))
	if !ok {
		return StatusUnsupported
	}

	elemSize := c.Builder.Const(elemVn.Offset, typ.IntOf(8*elemVn.Size))
	scaled := c.Builder.Mul(c.resize(idx, outT), elemSize)
	result := c.Builder.Add(c.resize(base, outT), scaled)
	return c.writeOut(op, result)
}

// ternaryPtrsub adds rather than subtracts, per the p-code dialect this
// translator follows (the name is misleading, not the arithmetic). The
// literal offset is carried in operand 1's Offset field, the same
// encoding PTRADD uses for its element size; operand 2 is unused.
func ternaryPtrsub(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	baseVn, offVn := op.Inputs[0], op.Inputs[1]
	outT := typ.IntOf(8 * op.Out.Size)

	base, ok := unaryRead(c, baseVn, c.Facade.WordType())
	if !ok {
		return StatusUnsupported
	}
	offset := c.Builder.Const(offVn.Offset, outT)
	result := c.Builder.Add(c.resize(base, outT), offset)
	return c.writeOut(op, result)
}

var ternaryTable = map[pcode.Opcode]func(*Context, pcode.Op) Status{
	pcode.STORE:  ternaryStore,
	pcode.PTRADD: ternaryPtradd,
	pcode.PTRSUB: ternaryPtrsub,
}

func (c *Context) dispatchTernary(op pcode.Op) Status {
	fn, ok := ternaryTable[op.Opcode]
	if !ok {
		return StatusUnsupported
	}
	return fn(c, op)
}
