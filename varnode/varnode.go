// Package varnode implements the address-space classifier (C1): given a
// p-code varnode, it produces the Parameter that reads and writes the
// value that varnode names, resolving constants and memory addresses
// through the equality-claim context and allocating scratch cells for
// unique-space and unnamed-register temporaries.
package varnode

import (
	"fmt"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/claim"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/param"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/space"
	"github.com/sleighlift/pcodelift/typ"
)

// Classifier resolves varnodes for a single instruction. Its Scratch and
// Claims fields are that instruction's arenas; neither is safe to reuse
// across instructions without Reset.
type Classifier struct {
	Facade  arch.Facade
	Scratch *scratch.Allocator
	Claims  *claim.Context
	Builder irbuilder.Builder
}

// NewClassifier builds a Classifier for one instruction's lift.
func NewClassifier(facade arch.Facade, alloc *scratch.Allocator, claims *claim.Context, b irbuilder.Builder) *Classifier {
	return &Classifier{Facade: facade, Scratch: alloc, Claims: claims, Builder: b}
}

// Resolve classifies vn into a Parameter. mem is the caller's current
// memory handle, threaded through for RAM varnodes so a later write
// through the returned Parameter can refresh it. An error here is always
// fatal: an unhandled address-space tag, a register the façade names but
// cannot place in the state record, a scratch size conflict from the
// allocator, or a claim-eq ambiguity or unreadable substitute propagated
// out of the claim context.
func (c *Classifier) Resolve(vn pcode.Varnode, mem *irbuilder.MemoryHandle) (param.Parameter, error) {
	switch vn.Space {
	case space.RAM:
		addr, err := c.Claims.Resolve(c.Builder, vn.Offset, c.Facade.WordType())
		if err != nil {
			return param.Parameter{}, err
		}
		return param.NewMemory(c.Builder, addr, mem), nil

	case space.Register:
		if name, ok := c.Facade.RegisterName(space.Register, vn.Offset, vn.Size); ok {
			ref, ok := c.Facade.RegisterRef(name)
			if !ok {
				return param.Parameter{}, fmt.Errorf("varnode: facade named register %q but cannot resolve its state-record slot", name)
			}
			return param.NewRegister(c.Builder, ref), nil
		}
		ref, err := c.Scratch.Get("unknown-register", vn.Offset, vn.Size)
		if err != nil {
			return param.Parameter{}, err
		}
		return param.NewScratch(c.Builder, ref), nil

	case space.Const:
		v, err := c.Claims.Resolve(c.Builder, vn.Offset, typ.IntOf(8*vn.Size))
		if err != nil {
			return param.Parameter{}, err
		}
		return param.NewConstant(c.Builder, v), nil

	case space.Unique:
		ref, err := c.Scratch.Get("unique", vn.Offset, vn.Size)
		if err != nil {
			return param.Parameter{}, err
		}
		return param.NewScratch(c.Builder, ref), nil

	default:
		return param.Parameter{}, fmt.Errorf("varnode: unhandled address space tag %v", vn.Space)
	}
}
