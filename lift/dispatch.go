package lift

import (
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/space"
)

// claimEqName is the only user-defined pseudo-op this translator
// recognizes; every other CALLOTHER degrades to Unsupported but still
// lets the instruction finish emitting.
const claimEqName = "claim_eq"

// Dispatch fans out one p-code op and folds its outcome into the
// context's running status. It never aborts the instruction on
// Unsupported/Invalid; Fatal conditions panic, by design, since those
// represent a contract violation by the caller or generator rather than
// an ordinarily-unmodeled opcode.
func (c *Context) Dispatch(op pcode.Op) {
	c.record(op, c.dispatchOp(op))
}

func (c *Context) dispatchOp(op pcode.Op) Status {
	switch op.Opcode {
	case pcode.CALLOTHER:
		return c.dispatchCallOther(op)
	case pcode.MULTIEQUAL, pcode.CPOOLREF:
		return c.dispatchVariadic(op)
	}

	switch len(op.Inputs) {
	case 1:
		return c.dispatchUnary(op)
	case 2:
		return c.dispatchBinary(op)
	case 3:
		return c.dispatchTernary(op)
	default:
		return StatusUnsupported
	}
}

// dispatchCallOther implements §4.5 rule 1: a three-operand CALLOTHER
// whose operand 0 indexes "claim_eq" in the user-op table applies an
// equality claim and emits no IR. Any other user-defined call degrades
// to Unsupported.
func (c *Context) dispatchCallOther(op pcode.Op) Status {
	if len(op.Inputs) != 3 {
		return StatusUnsupported
	}
	selector := op.Inputs[0]
	userOps := c.Facade.UserOps()
	if int(selector.Offset) >= len(userOps) {
		return StatusUnsupported
	}
	if userOps[selector.Offset] != claimEqName {
		return StatusUnsupported
	}

	lhs, rhs := op.Inputs[1], op.Inputs[2]
	if lhs.Space != space.Const {
		return StatusUnsupported
	}

	rhsParam, err := c.Classifier.Resolve(rhs, &c.Mem)
	if err != nil {
		panic(err)
	}
	c.Claims.ApplyEq(lhs.Offset, rhsParam)
	return StatusSuccess
}
