// Package lift ties the dispatcher (C5), the opcode handlers (C6), and
// the instruction-function emitter (C7) together into the single
// entry point downstream tooling calls: Lift.
package lift

import (
	"fmt"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/pcode"
	"github.com/sleighlift/pcodelift/typ"
)

// Result is the outcome of lifting one instruction: the floor of every
// per-op status, the op that first caused a degrade (nil on full
// Success), the memory handle to thread into the next lift call, and the
// CBRANCH branch-taken side channel if this instruction used one.
type Result struct {
	Status      Status
	FirstFault  *pcode.Op
	Memory      irbuilder.MemoryHandle
	BranchTaken *irbuilder.Value
}

// Emit lets *Context serve as the pcode.Sink the generator drives.
func (c *Context) Emit(op pcode.Op) { c.Dispatch(op) }

// Lift translates one machine instruction into IR appended to b's
// current block. It frames the generator-driven dispatch exactly as
// C7 describes: load next_pc, compute and store the current PC, run the
// generator, then copy the final PC back into next_pc so a subsequent
// lift call picks up where this one left off.
//
// The spec's "per-instruction helper" and "outer lifting entry point"
// are one call here rather than two: this module emits straight into
// the caller's block instead of building a separate IR function object
// that would need its own inline-hint linkage, so there is no second
// frame to thread results through.
func Lift(facade arch.Facade, b irbuilder.Builder, gen pcode.Generator, addr uint64, insn []byte, category pcode.Category, mem irbuilder.MemoryHandle) (Result, error) {
	ctx := NewContext(facade, b, mem, category)

	nextPCRef, ok := facade.RegisterRef(RegisterNextPC)
	if !ok {
		return Result{}, fmt.Errorf("lift: facade has no %s register", RegisterNextPC)
	}
	pcRef, ok := facade.RegisterRef(RegisterPC)
	if !ok {
		return Result{}, fmt.Errorf("lift: facade has no %s register", RegisterPC)
	}

	nextPCWidth := typ.IntOf(8 * nextPCRef.Size)
	pcWidth := typ.IntOf(8 * pcRef.Size)

	nextPC := b.LoadReg(nextPCRef, nextPCWidth)
	lenConst := b.Const(uint64(len(insn)), nextPCWidth)
	currEIP := b.Add(nextPC, lenConst)
	b.StoreReg(nextPCRef, currEIP)
	b.StoreReg(pcRef, ctx.resize(currEIP, pcWidth))

	if err := gen.Generate(addr, ctx); err != nil {
		return Result{}, fmt.Errorf("lift: generate ops for %#x: %w", addr, err)
	}

	pcAfter := b.LoadReg(pcRef, pcWidth)
	b.StoreReg(nextPCRef, ctx.resize(pcAfter, nextPCWidth))

	logger().Info("lifted instruction", "inst", ctx.ID.String(), "address", fmt.Sprintf("%#x", addr), "status", ctx.Status.String())

	return Result{
		Status:      ctx.Status,
		FirstFault:  ctx.FirstFault,
		Memory:      ctx.Mem,
		BranchTaken: ctx.BranchTaken,
	}, nil
}
