package lift

import (
	"fmt"

	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/typ"
)

func readBinaryInts(c *Context, op pcode.Op) (a, b irbuilder.Value, ok bool) {
	a, ok = unaryRead(c, op.Inputs[0], typ.IntOf(8*op.Inputs[0].Size))
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	b, ok = unaryRead(c, op.Inputs[1], typ.IntOf(8*op.Inputs[1].Size))
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	return a, b, true
}

// readBinaryFloats reads each operand from its own varnode, which is the
// correct behavior for opcodes like FLOAT_ADD where both operands happen
// to look similar; reusing one varnode's read for both sides is a
// known defect in the reference this translator is built against and is
// deliberately not reproduced here.
func readBinaryFloats(c *Context, op pcode.Op) (a, b irbuilder.Value, ok bool) {
	aFT, ok := floatTypeFor(op.Inputs[0].Size)
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	a, ok = unaryRead(c, op.Inputs[0], aFT)
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	bFT, ok := floatTypeFor(op.Inputs[1].Size)
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	b, ok = unaryRead(c, op.Inputs[1], bFT)
	if !ok {
		return irbuilder.Value{}, irbuilder.Value{}, false
	}
	return a, b, true
}

func intBinarySimple(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, b, ok := readBinaryInts(c, op)
		if !ok {
			return StatusUnsupported
		}
		return c.writeOut(op, fn(c.Builder, a, b))
	}
}

// intBinaryShift coerces the shift amount's type to match the shifted
// operand before emitting, per the binary-family shift rule.
func intBinaryShift(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, b, ok := readBinaryInts(c, op)
		if !ok {
			return StatusUnsupported
		}
		amt := c.resize(b, a.Type)
		return c.writeOut(op, fn(c.Builder, a, amt))
	}
}

func intCompare(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, b, ok := readBinaryInts(c, op)
		if !ok {
			return StatusUnsupported
		}
		cmp := fn(c.Builder, a, b)
		return c.writeOut(op, c.Builder.ZExt(cmp, typ.IntOf(8)))
	}
}

func intCarry(c *Context, op pcode.Op) Status {
	a, b, ok := readBinaryInts(c, op)
	if !ok {
		return StatusUnsupported
	}
	_, carry := c.Builder.AddCarry(a, b)
	return c.writeOut(op, c.Builder.ZExt(carry, typ.IntOf(8)))
}

func intScarry(c *Context, op pcode.Op) Status {
	a, b, ok := readBinaryInts(c, op)
	if !ok {
		return StatusUnsupported
	}
	_, overflow := c.Builder.AddSCarry(a, b)
	return c.writeOut(op, c.Builder.ZExt(overflow, typ.IntOf(8)))
}

func intSborrow(c *Context, op pcode.Op) Status {
	a, b, ok := readBinaryInts(c, op)
	if !ok {
		return StatusUnsupported
	}
	_, borrow := c.Builder.SubSBorrow(a, b)
	return c.writeOut(op, c.Builder.ZExt(borrow, typ.IntOf(8)))
}

func boolBinary(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, ok := unaryRead(c, op.Inputs[0], typ.IntOf(8))
		if !ok {
			return StatusUnsupported
		}
		b, ok := unaryRead(c, op.Inputs[1], typ.IntOf(8))
		if !ok {
			return StatusUnsupported
		}
		return c.writeOut(op, fn(c.Builder, a, b))
	}
}

func floatBinaryArith(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, b, ok := readBinaryFloats(c, op)
		if !ok {
			return StatusUnsupported
		}
		return c.writeOut(op, fn(c.Builder, a, b))
	}
}

func floatCompare(fn func(irbuilder.Builder, irbuilder.Value, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		a, b, ok := readBinaryFloats(c, op)
		if !ok {
			return StatusUnsupported
		}
		cmp := fn(c.Builder, a, b)
		return c.writeOut(op, c.Builder.ZExt(cmp, typ.IntOf(8)))
	}
}

// binaryCbranch emits PC <- select(trunc(cond,1 bit), target, PC_before).
// When the enclosing instruction is categorized as a conditional branch,
// the full-width condition is also latched into the branch-taken side
// channel.
func binaryCbranch(c *Context, op pcode.Op) Status {
	targetVn, condVn := op.Inputs[0], op.Inputs[1]

	target, ok := unaryRead(c, targetVn, typ.IntOf(8*targetVn.Size))
	if !ok {
		return StatusUnsupported
	}
	cond, ok := unaryRead(c, condVn, typ.IntOf(8*condVn.Size))
	if !ok {
		return StatusUnsupported
	}

	pcRef, ok := c.Facade.RegisterRef(RegisterPC)
	if !ok {
		panic(fmt.Errorf("lift: facade has no %s register", RegisterPC))
	}
	pcWidth := typ.IntOf(8 * pcRef.Size)
	pcBefore := c.Builder.LoadReg(pcRef, pcWidth)
	cond1 := c.resize(cond, typ.Bool1)
	selected := c.Builder.Select(cond1, c.resize(target, pcWidth), pcBefore)
	c.Builder.StoreReg(pcRef, selected)

	if c.Category == pcode.CategoryConditionalBranch {
		c.BranchTaken = &cond
	}
	return StatusSuccess
}

func binaryLoad(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	addrVn := op.Inputs[1]
	addr, ok := unaryRead(c, addrVn, c.Facade.WordType())
	if !ok {
		return StatusUnsupported
	}
	cell := param.NewMemory(c.Builder, addr, &c.Mem)
	v, ok := cell.Read(typ.IntOf(8 * op.Out.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, v)
}

func binaryPiece(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	hiVn, loVn := op.Inputs[0], op.Inputs[1]
	if hiVn.Size+loVn.Size != op.Out.Size {
		return StatusUnsupported
	}
	hi, ok := unaryRead(c, hiVn, typ.IntOf(8*hiVn.Size))
	if !ok {
		return StatusUnsupported
	}
	lo, ok := unaryRead(c, loVn, typ.IntOf(8*loVn.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.Concat(hi, lo, typ.IntOf(8*op.Out.Size)))
}

// binarySubpiece implements SUBPIECE as a right-shift by rhs.offset
// bytes followed by truncation to the outvar's width — the p-code
// dialect semantics this translator follows, not the reference's
// non-shifting byte-count truncation (see DESIGN.md).
func binarySubpiece(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	lhsVn := op.Inputs[0]
	byteOffset := int(op.Inputs[1].Offset)
	lhs, ok := unaryRead(c, lhsVn, typ.IntOf(8*lhsVn.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.Extract(lhs, byteOffset, typ.IntOf(8*op.Out.Size)))
}

func binaryUnsupported(*Context, pcode.Op) Status { return StatusUnsupported }

var binaryTable = map[pcode.Opcode]func(*Context, pcode.Op) Status{
	pcode.INT_AND: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.And(a, c) }),
	pcode.INT_OR:  intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Or(a, c) }),
	pcode.INT_XOR: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Xor(a, c) }),
	pcode.INT_ADD: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Add(a, c) }),
	pcode.INT_SUB: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Sub(a, c) }),
	pcode.INT_MULT: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Mul(a, c) }),
	pcode.INT_DIV:  intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.UDiv(a, c) }),
	pcode.INT_SDIV: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.SDiv(a, c) }),
	pcode.INT_REM:  intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.URem(a, c) }),
	pcode.INT_SREM: intBinarySimple(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.SRem(a, c) }),

	pcode.INT_LEFT:   intBinaryShift(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Shl(a, c) }),
	pcode.INT_RIGHT:  intBinaryShift(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.Shr(a, c) }),
	pcode.INT_SRIGHT: intBinaryShift(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.AShr(a, c) }),

	pcode.INT_EQUAL:       intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpEq(a, c) }),
	pcode.INT_NOTEQUAL:    intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpNe(a, c) }),
	pcode.INT_LESS:        intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpULt(a, c) }),
	pcode.INT_SLESS:       intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpSLt(a, c) }),
	pcode.INT_LESSEQUAL:   intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpULe(a, c) }),
	pcode.INT_SLESSEQUAL:  intCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.ICmpSLe(a, c) }),

	pcode.INT_CARRY:   intCarry,
	pcode.INT_SCARRY:  intScarry,
	pcode.INT_SBORROW: intSborrow,

	pcode.CBRANCH: binaryCbranch,

	pcode.BOOL_AND: boolBinary(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.BoolAnd(a, c) }),
	pcode.BOOL_OR:  boolBinary(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.BoolOr(a, c) }),
	pcode.BOOL_XOR: boolBinary(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.BoolXor(a, c) }),

	pcode.FLOAT_ADD:  floatBinaryArith(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FAdd(a, c) }),
	pcode.FLOAT_SUB:  floatBinaryArith(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FSub(a, c) }),
	pcode.FLOAT_MULT: floatBinaryArith(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FMul(a, c) }),
	pcode.FLOAT_DIV:  floatBinaryArith(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FDiv(a, c) }),

	pcode.FLOAT_EQUAL:     floatCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FCmpEq(a, c) }),
	pcode.FLOAT_NOTEQUAL:  floatCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FCmpNe(a, c) }),
	pcode.FLOAT_LESS:      floatCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FCmpLt(a, c) }),
	pcode.FLOAT_LESSEQUAL: floatCompare(func(b irbuilder.Builder, a, c irbuilder.Value) irbuilder.Value { return b.FCmpLe(a, c) }),

	pcode.LOAD:     binaryLoad,
	pcode.PIECE:    binaryPiece,
	pcode.SUBPIECE: binarySubpiece,
	pcode.INDIRECT: binaryUnsupported,
	pcode.NEW:      binaryUnsupported,
}

func (c *Context) dispatchBinary(op pcode.Op) Status {
	fn, ok := binaryTable[op.Opcode]
	if !ok {
		return StatusUnsupported
	}
	return fn(c, op)
}
