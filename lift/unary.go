package lift

import (
	"fmt"

	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/typ"
)

// floatTypeFor rejects any varnode size other than 32 or 64 bits, per
// the float-width open question: a faithful implementation picks the
// float type matching the varnode's own size rather than always using
// 32-bit.
func floatTypeFor(sizeBytes int) (typ.Type, bool) {
	switch sizeBytes * 8 {
	case 32:
		return typ.FloatOf(32), true
	case 64:
		return typ.FloatOf(64), true
	default:
		return typ.Type{}, false
	}
}

// resize coerces v to width t by truncating or zero-extending, the
// universal "output writes are truncated or zero-extended to outvar
// width" rule. Same-width values are reinterpreted with no IR emitted.
func (c *Context) resize(v irbuilder.Value, t typ.Type) irbuilder.Value {
	if v.Type.Bits == t.Bits {
		return irbuilder.Value{ID: v.ID, Type: t}
	}
	if v.Type.Bits > t.Bits {
		return c.Builder.Trunc(v, t)
	}
	return c.Builder.ZExt(v, t)
}

// writeOut resizes v to op.Out's declared width and writes it through
// that varnode's Parameter.
func (c *Context) writeOut(op pcode.Op, v irbuilder.Value) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	p, err := c.Classifier.Resolve(*op.Out, &c.Mem)
	if err != nil {
		panic(err)
	}
	outT := typ.IntOf(8 * op.Out.Size)
	resized := c.resize(v, outT)
	switch p.Write(resized) {
	case param.WriteSuccess:
		return StatusSuccess
	case param.WriteInvalid:
		return StatusInvalid
	default:
		return StatusUnsupported
	}
}

func unaryRead(c *Context, vn pcode.Varnode, t typ.Type) (irbuilder.Value, bool) {
	p, err := c.Classifier.Resolve(vn, &c.Mem)
	if err != nil {
		panic(err)
	}
	return p.Read(t)
}

func unaryCopy(c *Context, op pcode.Op) Status {
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, v)
}

func unaryBoolNegate(c *Context, op pcode.Op) Status {
	v, ok := unaryRead(c, op.Inputs[0], typ.Bool1)
	if !ok {
		return StatusUnsupported
	}
	negated := c.Builder.Not1(v)
	widened := c.Builder.ZExt(negated, typ.IntOf(8))
	return c.writeOut(op, widened)
}

func unaryZext(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	ext := c.Builder.ZExt(v, typ.IntOf(8*op.Out.Size))
	return c.writeOut(op, ext)
}

func unarySext(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	ext := c.Builder.SExt(v, typ.IntOf(8*op.Out.Size))
	return c.writeOut(op, ext)
}

func unaryInt2Comp(c *Context, op pcode.Op) Status {
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.Neg(v))
}

func unaryIntNegate(c *Context, op pcode.Op) Status {
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.Not(v))
}

func floatUnary(fn func(irbuilder.Builder, irbuilder.Value) irbuilder.Value) func(*Context, pcode.Op) Status {
	return func(c *Context, op pcode.Op) Status {
		in := op.Inputs[0]
		ft, ok := floatTypeFor(in.Size)
		if !ok {
			return StatusUnsupported
		}
		v, ok := unaryRead(c, in, ft)
		if !ok {
			return StatusUnsupported
		}
		return c.writeOut(op, fn(c.Builder, v))
	}
}

func unaryFloatNan(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	ft, ok := floatTypeFor(in.Size)
	if !ok {
		return StatusUnsupported
	}
	v, ok := unaryRead(c, in, ft)
	if !ok {
		return StatusUnsupported
	}
	eq := c.Builder.FCmpEq(v, v)
	notEq := c.Builder.Not1(eq)
	widened := c.Builder.ZExt(notEq, typ.IntOf(8*op.Out.Size))
	return c.writeOut(op, widened)
}

func unaryInt2Float(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	ft, ok := floatTypeFor(op.Out.Size)
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.IntToFloat(v, ft))
}

func unaryFloat2Float(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	inFT, ok := floatTypeFor(in.Size)
	if !ok {
		return StatusUnsupported
	}
	v, ok := unaryRead(c, in, inFT)
	if !ok {
		return StatusUnsupported
	}
	outFT, ok := floatTypeFor(op.Out.Size)
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.FloatToFloat(v, outFT))
}

func unaryFloatTrunc(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	inFT, ok := floatTypeFor(in.Size)
	if !ok {
		return StatusUnsupported
	}
	v, ok := unaryRead(c, in, inFT)
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.FloatToSInt(v, typ.IntOf(8*op.Out.Size)))
}

func unaryPopcount(c *Context, op pcode.Op) Status {
	if op.Out == nil {
		return StatusUnsupported
	}
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, c.Builder.Popcount(v, typ.IntOf(8*op.Out.Size)))
}

func unaryBranch(c *Context, op pcode.Op) Status {
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	ref, ok := c.Facade.RegisterRef(RegisterPC)
	if !ok {
		panic(fmt.Errorf("lift: facade has no %s register", RegisterPC))
	}
	c.Builder.StoreReg(ref, c.resize(v, typ.IntOf(8*ref.Size)))
	return StatusSuccess
}

func unaryIndirectReturn(c *Context, op pcode.Op) Status {
	in := op.Inputs[0]
	v, ok := unaryRead(c, in, typ.IntOf(8*in.Size))
	if !ok {
		return StatusUnsupported
	}
	ref, ok := c.Facade.RegisterRef(RegisterPC)
	if !ok {
		panic(fmt.Errorf("lift: facade has no %s register", RegisterPC))
	}
	c.Builder.StoreReg(ref, c.resize(v, typ.IntOf(8*ref.Size)))
	return StatusSuccess
}

var unaryTable = map[pcode.Opcode]func(*Context, pcode.Op) Status{
	pcode.COPY:        unaryCopy,
	pcode.CAST:        unaryCopy,
	pcode.BOOL_NEGATE: unaryBoolNegate,
	pcode.INT_ZEXT:    unaryZext,
	pcode.INT_SEXT:    unarySext,
	pcode.INT_2COMP:   unaryInt2Comp,
	pcode.INT_NEGATE:  unaryIntNegate,

	pcode.FLOAT_NEG:   floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FNeg(v) }),
	pcode.FLOAT_ABS:   floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FAbs(v) }),
	pcode.FLOAT_SQRT:  floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FSqrt(v) }),
	pcode.FLOAT_CEIL:  floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FCeil(v) }),
	pcode.FLOAT_FLOOR: floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FFloor(v) }),
	pcode.FLOAT_ROUND: floatUnary(func(b irbuilder.Builder, v irbuilder.Value) irbuilder.Value { return b.FRound(v) }),

	pcode.FLOAT_NAN:         unaryFloatNan,
	pcode.FLOAT_INT2FLOAT:   unaryInt2Float,
	pcode.FLOAT_FLOAT2FLOAT: unaryFloat2Float,
	pcode.FLOAT_TRUNC:       unaryFloatTrunc,
	pcode.POPCOUNT:          unaryPopcount,

	pcode.BRANCH: unaryBranch,
	pcode.CALL:   unaryBranch,

	pcode.RETURN:    unaryIndirectReturn,
	pcode.BRANCHIND: unaryIndirectReturn,
	pcode.CALLIND:   unaryIndirectReturn,
}

func (c *Context) dispatchUnary(op pcode.Op) Status {
	fn, ok := unaryTable[op.Opcode]
	if !ok {
		return StatusUnsupported
	}
	return fn(c, op)
}
