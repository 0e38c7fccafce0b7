// Package arch describes the read-only architecture façade the translator
// queries for register naming, word size, and intrinsic/user-op tables.
// The façade is an external collaborator per the lifter's contract: this
// package defines the interface plus one concrete, YAML-backed
// implementation used by tests and the CLI tools.
package arch

import (
	"github.com/sleighlift/pcodelift/space"
	"github.com/sleighlift/pcodelift/typ"
)

// RegisterRef is a handle to a named register's slot in the architectural
// state record. It stands in for "a pointer into the state record" from
// the spec: byte offset and size within an opaque per-lift state blob that
// the IR builder knows how to load/store.
type RegisterRef struct {
	Name   string
	Offset int
	Size   int // bytes
}

// IntrinsicTable names the opaque function handles the IR builder inserts
// calls to for memory load/store and architecture-specific helpers. The
// core never calls these directly; it only asks the façade whether one is
// available by name before instructing the builder to call it.
type IntrinsicTable interface {
	Has(name string) bool
}

// Facade is the read-only architecture description the translator
// consults while lifting one instruction. Implementations must be safe
// for concurrent use by lifts running against different instructions.
type Facade interface {
	// WordType is the architecture's general-purpose register width.
	WordType() typ.Type
	// PointerType is the width used for memory addresses.
	PointerType() typ.Type
	// RegisterName returns the canonical, uppercase name of the register
	// that exactly covers (offset, size) in the given space, if any such
	// register is known to the façade.
	RegisterName(tag space.Tag, offset uint64, size int) (name string, ok bool)
	// RegisterRef resolves a canonical register name to its slot in the
	// state record.
	RegisterRef(name string) (RegisterRef, bool)
	// HasRegister reports whether name is a known canonical register.
	HasRegister(name string) bool
	// Intrinsics exposes the memory and helper intrinsic table.
	Intrinsics() IntrinsicTable
	// UserOps is the indexed list of user-defined pseudo-op names
	// (CALLOTHER operand 0 selects into this table).
	UserOps() []string
}
