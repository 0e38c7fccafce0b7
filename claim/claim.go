// Package claim implements the equality-claim context (C4): a
// per-instruction mapping from a literal constant offset to a Parameter
// that should be read in its place the next time that offset is
// materialized. It exists so a caller-supplied hint ("this constant is
// really the value of EBX at lift time") can flow into an otherwise
// ordinary constant varnode lift without threading extra arguments
// through every opcode handler.
package claim

import (
	"fmt"

	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/typ"
)

type entry struct {
	src  param.Parameter
	used bool
}

// Context holds the active claims for one instruction. A Context must
// not outlive the instruction it was created for; Reset (or discarding
// it) drops every entry.
type Context struct {
	entries map[uint64]*entry
}

// NewContext returns an empty claim context.
func NewContext() *Context {
	return &Context{entries: make(map[uint64]*entry)}
}

// ApplyEq records that future materializations of the literal offset
// should instead read p. p is captured as-is; callers must lift the
// right-hand varnode into a Parameter before calling ApplyEq, since the
// claim-eq semantics capture the substitute eagerly at claim time, not
// lazily at resolution time.
func (c *Context) ApplyEq(offset uint64, p param.Parameter) {
	c.entries[offset] = &entry{src: p}
}

// ApplyNonEq drops every active claim.
func (c *Context) ApplyNonEq() {
	c.entries = make(map[uint64]*entry)
}

// Resolve is the claim_resolve hook C1 calls while materializing a
// constant offset. If offset has an active, unconsumed claim, it is
// consumed (marked used) and read at type t; a second resolution of the
// same offset is an ambiguity error, since the spec treats that as fatal
// rather than recoverable. With no active claim, Resolve returns the
// literal constant of value offset and type t.
func (c *Context) Resolve(b irbuilder.Builder, offset uint64, t typ.Type) (irbuilder.Value, error) {
	e, ok := c.entries[offset]
	if !ok {
		return b.Const(offset, t), nil
	}
	if e.used {
		return irbuilder.Value{}, fmt.Errorf("claim: offset %#x claimed more than once in the same instruction", offset)
	}
	e.used = true
	v, ok := e.src.Read(t)
	if !ok {
		return irbuilder.Value{}, fmt.Errorf("claim: offset %#x substitute could not be read as %s", offset, t)
	}
	return v, nil
}
