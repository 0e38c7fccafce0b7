// Package pcode fixes the shape of the external p-code generator
// contract: the opcode enumeration, the (address, opcode, outvar,
// inputs) tuple the generator feeds to a sink in program order, and one
// concrete generator (Trace) that replays a pre-recorded op sequence.
// Decoding machine bytes into this sequence is out of scope; this
// package only defines what the translator consumes.
package pcode

import (
	"encoding/json"
	"fmt"

	"github.com/sleighlift/pcodelift/space"
)

// Opcode enumerates the p-code ops the dispatcher recognizes. Anything
// outside this set (or inside it but unhandled for its arity) degrades
// the instruction to Unsupported rather than failing the whole lift.
type Opcode int

const (
	Unknown Opcode = iota

	COPY
	CAST
	BOOL_NEGATE
	INT_ZEXT
	INT_SEXT
	INT_2COMP
	INT_NEGATE
	FLOAT_NEG
	FLOAT_ABS
	FLOAT_SQRT
	FLOAT_CEIL
	FLOAT_FLOOR
	FLOAT_ROUND
	FLOAT_NAN
	FLOAT_INT2FLOAT
	FLOAT_FLOAT2FLOAT
	FLOAT_TRUNC
	POPCOUNT
	BRANCH
	CALL
	RETURN
	BRANCHIND
	CALLIND

	INT_AND
	INT_OR
	INT_XOR
	INT_LEFT
	INT_RIGHT
	INT_SRIGHT
	INT_ADD
	INT_SUB
	INT_MULT
	INT_DIV
	INT_SDIV
	INT_REM
	INT_SREM
	INT_EQUAL
	INT_NOTEQUAL
	INT_LESS
	INT_SLESS
	INT_LESSEQUAL
	INT_SLESSEQUAL
	INT_CARRY
	INT_SCARRY
	INT_SBORROW
	CBRANCH
	BOOL_AND
	BOOL_OR
	BOOL_XOR
	FLOAT_EQUAL
	FLOAT_NOTEQUAL
	FLOAT_LESS
	FLOAT_LESSEQUAL
	FLOAT_ADD
	FLOAT_SUB
	FLOAT_MULT
	FLOAT_DIV
	LOAD
	PIECE
	SUBPIECE
	INDIRECT
	NEW

	STORE
	PTRADD
	PTRSUB

	MULTIEQUAL
	CPOOLREF

	CALLOTHER
)

var opcodeNames = map[Opcode]string{
	COPY: "COPY", CAST: "CAST", BOOL_NEGATE: "BOOL_NEGATE",
	INT_ZEXT: "INT_ZEXT", INT_SEXT: "INT_SEXT", INT_2COMP: "INT_2COMP", INT_NEGATE: "INT_NEGATE",
	FLOAT_NEG: "FLOAT_NEG", FLOAT_ABS: "FLOAT_ABS", FLOAT_SQRT: "FLOAT_SQRT",
	FLOAT_CEIL: "FLOAT_CEIL", FLOAT_FLOOR: "FLOAT_FLOOR", FLOAT_ROUND: "FLOAT_ROUND",
	FLOAT_NAN: "FLOAT_NAN", FLOAT_INT2FLOAT: "FLOAT_INT2FLOAT",
	FLOAT_FLOAT2FLOAT: "FLOAT_FLOAT2FLOAT", FLOAT_TRUNC: "FLOAT_TRUNC",
	POPCOUNT: "POPCOUNT", BRANCH: "BRANCH", CALL: "CALL", RETURN: "RETURN",
	BRANCHIND: "BRANCHIND", CALLIND: "CALLIND",
	INT_AND: "INT_AND", INT_OR: "INT_OR", INT_XOR: "INT_XOR",
	INT_LEFT: "INT_LEFT", INT_RIGHT: "INT_RIGHT", INT_SRIGHT: "INT_SRIGHT",
	INT_ADD: "INT_ADD", INT_SUB: "INT_SUB", INT_MULT: "INT_MULT",
	INT_DIV: "INT_DIV", INT_SDIV: "INT_SDIV", INT_REM: "INT_REM", INT_SREM: "INT_SREM",
	INT_EQUAL: "INT_EQUAL", INT_NOTEQUAL: "INT_NOTEQUAL",
	INT_LESS: "INT_LESS", INT_SLESS: "INT_SLESS",
	INT_LESSEQUAL: "INT_LESSEQUAL", INT_SLESSEQUAL: "INT_SLESSEQUAL",
	INT_CARRY: "INT_CARRY", INT_SCARRY: "INT_SCARRY", INT_SBORROW: "INT_SBORROW",
	CBRANCH: "CBRANCH", BOOL_AND: "BOOL_AND", BOOL_OR: "BOOL_OR", BOOL_XOR: "BOOL_XOR",
	FLOAT_EQUAL: "FLOAT_EQUAL", FLOAT_NOTEQUAL: "FLOAT_NOTEQUAL",
	FLOAT_LESS: "FLOAT_LESS", FLOAT_LESSEQUAL: "FLOAT_LESSEQUAL",
	FLOAT_ADD: "FLOAT_ADD", FLOAT_SUB: "FLOAT_SUB", FLOAT_MULT: "FLOAT_MULT", FLOAT_DIV: "FLOAT_DIV",
	LOAD: "LOAD", PIECE: "PIECE", SUBPIECE: "SUBPIECE", INDIRECT: "INDIRECT", NEW: "NEW",
	STORE: "STORE", PTRADD: "PTRADD", PTRSUB: "PTRSUB",
	MULTIEQUAL: "MULTIEQUAL", CPOOLREF: "CPOOLREF", CALLOTHER: "CALLOTHER",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// Category classifies the enclosing instruction, not an individual op.
// Only the conditional-branch distinction matters to the dispatcher (the
// CBRANCH branch-taken side channel).
type Category int

const (
	CategoryOther Category = iota
	CategoryConditionalBranch
)

// Varnode is the wire shape of one abstract value location: an address
// space tag, a byte offset within that space, and a byte size.
type Varnode struct {
	Space  space.Tag `json:"space"`
	Offset uint64    `json:"offset"`
	Size   int       `json:"size"`
}

// Op is one micro-operation as the generator hands it to the sink:
// opcode, optional output varnode, and an ordered input vector.
type Op struct {
	Address uint64    `json:"address"`
	Opcode  Opcode    `json:"opcode"`
	Out     *Varnode  `json:"out,omitempty"`
	Inputs  []Varnode `json:"inputs"`
}

// UnmarshalJSON lets Op decode opcodes given by name in a trace file
// instead of their numeric value, since numeric values are an
// implementation detail callers shouldn't have to hardcode.
func (o *Op) UnmarshalJSON(data []byte) error {
	var wire struct {
		Address uint64    `json:"address"`
		Opcode  string    `json:"opcode"`
		Out     *Varnode  `json:"out,omitempty"`
		Inputs  []Varnode `json:"inputs"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	op, ok := opcodeByName[wire.Opcode]
	if !ok {
		return fmt.Errorf("pcode: unknown opcode %q", wire.Opcode)
	}
	o.Address = wire.Address
	o.Opcode = op
	o.Out = wire.Out
	o.Inputs = wire.Inputs
	return nil
}

// MarshalJSON encodes the opcode by name, the counterpart to
// UnmarshalJSON, so a trace round-trips through JSON without exposing
// the numeric enum as a wire detail.
func (o Op) MarshalJSON() ([]byte, error) {
	wire := struct {
		Address uint64    `json:"address"`
		Opcode  string    `json:"opcode"`
		Out     *Varnode  `json:"out,omitempty"`
		Inputs  []Varnode `json:"inputs"`
	}{
		Address: o.Address,
		Opcode:  o.Opcode.String(),
		Out:     o.Out,
		Inputs:  o.Inputs,
	}
	return json.Marshal(wire)
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// Sink is the callback target the generator feeds ops into, in program
// order.
type Sink interface {
	Emit(op Op)
}

// Generator drives a Sink with every op for the instruction at addr. It
// is the external disassembler/p-code producer collaborator: this
// package only fixes its shape and supplies one concrete, replay-based
// implementation.
type Generator interface {
	Generate(addr uint64, sink Sink) error
}

// Trace is a Generator that replays a fixed, pre-recorded op sequence.
// It exists for tests and CLI tooling that work from a captured or
// hand-written instruction trace rather than a live disassembler.
type Trace struct {
	Ops []Op
}

// Generate emits every op in t.Ops to sink, in order, ignoring addr
// (the trace already carries per-op addresses).
func (t Trace) Generate(_ uint64, sink Sink) error {
	for _, op := range t.Ops {
		sink.Emit(op)
	}
	return nil
}

// ParseTrace decodes a JSON-encoded op sequence, the format pcodelift's
// CLI tools read from disk.
func ParseTrace(data []byte) (*Trace, error) {
	var t Trace
	if err := json.Unmarshal(data, &t.Ops); err != nil {
		return nil, fmt.Errorf("pcode: parse trace: %w", err)
	}
	return &t, nil
}
