package lift

import (
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/typ"
)

// variadicMultiequal always declines: see the MULTIEQUAL open-question
// resolution in DESIGN.md. It still reads every incoming operand first,
// so a missing or mistyped operand is reported the same way any other
// opcode would report it rather than being masked by the refusal.
func variadicMultiequal(c *Context, op pcode.Op) Status {
	if op.Out == nil || len(op.Inputs) == 0 {
		return StatusUnsupported
	}
	width := typ.IntOf(8 * op.Inputs[0].Size)
	incoming := make([]irbuilder.Value, 0, len(op.Inputs))
	for _, vn := range op.Inputs {
		v, ok := unaryRead(c, vn, width)
		if !ok {
			return StatusUnsupported
		}
		incoming = append(incoming, v)
	}
	result, ok := c.Builder.Phi(incoming, width)
	if !ok {
		return StatusUnsupported
	}
	return c.writeOut(op, result)
}

func variadicCpoolref(*Context, pcode.Op) Status { return StatusUnsupported }

var variadicTable = map[pcode.Opcode]func(*Context, pcode.Op) Status{
	pcode.MULTIEQUAL: variadicMultiequal,
	pcode.CPOOLREF:   variadicCpoolref,
}

func (c *Context) dispatchVariadic(op pcode.Op) Status {
	fn, ok := variadicTable[op.Opcode]
	if !ok {
		return StatusUnsupported
	}
	return fn(c, op)
}
