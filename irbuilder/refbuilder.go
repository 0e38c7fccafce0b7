package irbuilder

import (
	"math"
	"math/bits"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/scratch"
	"github.com/sleighlift/pcodelift/typ"
)

// State is the architectural state record a RefBuilder threads values
// through: named registers, per-instruction scratch cells, and a flat
// byte-addressable memory. It stands in for the real state record and
// memory model the real IR builder/backend would own.
type State struct {
	Registers map[string]uint64
	Scratch   map[scratch.Ref]uint64
	Memory    map[uint64]byte

	// RefuseMem, if set, lets tests simulate the memory intrinsic
	// refusing an access (spec's Invalid class). isStore distinguishes
	// load refusal from store refusal.
	RefuseMem func(addr uint64, size int, isStore bool) bool
}

// NewState returns a zero-initialized state.
func NewState() *State {
	return &State{
		Registers: make(map[string]uint64),
		Scratch:   make(map[scratch.Ref]uint64),
		Memory:    make(map[uint64]byte),
	}
}

func (s *State) readMem(addr uint64, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(s.Memory[addr+uint64(i)]) << (8 * uint(i))
	}
	return v
}

func (s *State) writeMem(addr uint64, n int, v uint64) {
	for i := 0; i < n; i++ {
		s.Memory[addr+uint64(i)] = byte(v >> (8 * uint(i)))
	}
}

// RefBuilder is the reference Builder implementation: it both records a
// trace of IRInst into the caller-owned Block AND evaluates each
// instruction eagerly against a State, so tests can assert on results
// directly instead of running a second interpretation pass.
type RefBuilder struct {
	State *State
	Block *Block

	nextVal ValueID
	nextMem int
	bits    map[ValueID]uint64
}

// NewRefBuilder returns a builder that appends into block and evaluates
// against state.
func NewRefBuilder(state *State, block *Block) *RefBuilder {
	return &RefBuilder{State: state, Block: block, bits: make(map[ValueID]uint64)}
}

// NewMemoryHandle mints a fresh memory handle, used by callers to seed the
// first handle of a lift call.
func (b *RefBuilder) NewMemoryHandle() MemoryHandle {
	id := b.nextMem
	b.nextMem++
	return MemoryHandle{id: id}
}

func maskTo(v uint64, bitsN int) uint64 {
	if bitsN <= 0 {
		return 0
	}
	if bitsN >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(bitsN)) - 1)
}

func signExtend(v uint64, bitsN int) int64 {
	if bitsN >= 64 {
		return int64(v)
	}
	shift := uint(64 - bitsN)
	return int64(v<<shift) >> shift
}

func f32(v uint64) float32   { return math.Float32frombits(uint32(v)) }
func f32bits(f float32) uint64 { return uint64(math.Float32bits(f)) }
func f64(v uint64) float64   { return math.Float64frombits(v) }
func f64bits(f float64) uint64 { return math.Float64bits(f) }

func floatVal(v uint64, width int) float64 {
	if width == 32 {
		return float64(f32(v))
	}
	return f64(v)
}

func floatBits(f float64, width int) uint64 {
	if width == 32 {
		return f32bits(float32(f))
	}
	return f64bits(f)
}

func (b *RefBuilder) val(v Value) uint64 { return b.bits[v.ID] }

func (b *RefBuilder) emit(op string, args []ValueID, imm uint64, t typ.Type, bits uint64) Value {
	id := b.nextVal
	b.nextVal++
	b.Block.Insts = append(b.Block.Insts, IRInst{ID: id, Op: op, Args: args, Imm: imm, Type: t})
	b.bits[id] = maskTo(bits, t.Bits)
	return Value{ID: id, Type: t}
}

func argIDs(vs ...Value) []ValueID {
	ids := make([]ValueID, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}

func (b *RefBuilder) Const(v uint64, t typ.Type) Value {
	return b.emit("const", nil, v, t, v)
}

func (b *RefBuilder) Trunc(v Value, t typ.Type) Value {
	return b.emit("trunc", argIDs(v), 0, t, b.val(v))
}

func (b *RefBuilder) ZExt(v Value, t typ.Type) Value {
	return b.emit("zext", argIDs(v), 0, t, b.val(v))
}

func (b *RefBuilder) SExt(v Value, t typ.Type) Value {
	return b.emit("sext", argIDs(v), 0, t, uint64(signExtend(b.val(v), v.Type.Bits)))
}

func (b *RefBuilder) Add(a, c Value) Value {
	return b.emit("add", argIDs(a, c), 0, a.Type, b.val(a)+b.val(c))
}

func (b *RefBuilder) Sub(a, c Value) Value {
	return b.emit("sub", argIDs(a, c), 0, a.Type, b.val(a)-b.val(c))
}

func (b *RefBuilder) Mul(a, c Value) Value {
	return b.emit("mul", argIDs(a, c), 0, a.Type, b.val(a)*b.val(c))
}

func (b *RefBuilder) UDiv(a, c Value) Value {
	cv := b.val(c)
	if cv == 0 {
		return b.emit("udiv", argIDs(a, c), 0, a.Type, 0)
	}
	return b.emit("udiv", argIDs(a, c), 0, a.Type, b.val(a)/cv)
}

func (b *RefBuilder) SDiv(a, c Value) Value {
	sc := signExtend(b.val(c), c.Type.Bits)
	if sc == 0 {
		return b.emit("sdiv", argIDs(a, c), 0, a.Type, 0)
	}
	sa := signExtend(b.val(a), a.Type.Bits)
	return b.emit("sdiv", argIDs(a, c), 0, a.Type, uint64(sa/sc))
}

func (b *RefBuilder) URem(a, c Value) Value {
	cv := b.val(c)
	if cv == 0 {
		return b.emit("urem", argIDs(a, c), 0, a.Type, 0)
	}
	return b.emit("urem", argIDs(a, c), 0, a.Type, b.val(a)%cv)
}

func (b *RefBuilder) SRem(a, c Value) Value {
	sc := signExtend(b.val(c), c.Type.Bits)
	if sc == 0 {
		return b.emit("srem", argIDs(a, c), 0, a.Type, 0)
	}
	sa := signExtend(b.val(a), a.Type.Bits)
	return b.emit("srem", argIDs(a, c), 0, a.Type, uint64(sa%sc))
}

func (b *RefBuilder) And(a, c Value) Value {
	return b.emit("and", argIDs(a, c), 0, a.Type, b.val(a)&b.val(c))
}

func (b *RefBuilder) Or(a, c Value) Value {
	return b.emit("or", argIDs(a, c), 0, a.Type, b.val(a)|b.val(c))
}

func (b *RefBuilder) Xor(a, c Value) Value {
	return b.emit("xor", argIDs(a, c), 0, a.Type, b.val(a)^b.val(c))
}

func (b *RefBuilder) Shl(a, c Value) Value {
	amt := b.val(c)
	if amt >= uint64(a.Type.Bits) {
		return b.emit("shl", argIDs(a, c), 0, a.Type, 0)
	}
	return b.emit("shl", argIDs(a, c), 0, a.Type, b.val(a)<<amt)
}

func (b *RefBuilder) Shr(a, c Value) Value {
	amt := b.val(c)
	if amt >= uint64(a.Type.Bits) {
		return b.emit("shr", argIDs(a, c), 0, a.Type, 0)
	}
	return b.emit("shr", argIDs(a, c), 0, a.Type, b.val(a)>>amt)
}

func (b *RefBuilder) AShr(a, c Value) Value {
	amt := b.val(c)
	if amt > 63 {
		amt = 63
	}
	sa := signExtend(b.val(a), a.Type.Bits)
	return b.emit("ashr", argIDs(a, c), 0, a.Type, uint64(sa>>amt))
}

func (b *RefBuilder) Neg(a Value) Value {
	return b.emit("neg", argIDs(a), 0, a.Type, ^b.val(a)+1)
}

func (b *RefBuilder) Not(a Value) Value {
	return b.emit("not", argIDs(a), 0, a.Type, ^b.val(a))
}

func boolOf(cond bool) uint64 {
	if cond {
		return 1
	}
	return 0
}

func (b *RefBuilder) ICmpEq(a, c Value) Value {
	return b.emit("icmp.eq", argIDs(a, c), 0, typ.Bool1, boolOf(b.val(a) == b.val(c)))
}

func (b *RefBuilder) ICmpNe(a, c Value) Value {
	return b.emit("icmp.ne", argIDs(a, c), 0, typ.Bool1, boolOf(b.val(a) != b.val(c)))
}

func (b *RefBuilder) ICmpULt(a, c Value) Value {
	return b.emit("icmp.ult", argIDs(a, c), 0, typ.Bool1, boolOf(b.val(a) < b.val(c)))
}

func (b *RefBuilder) ICmpSLt(a, c Value) Value {
	sa := signExtend(b.val(a), a.Type.Bits)
	sc := signExtend(b.val(c), c.Type.Bits)
	return b.emit("icmp.slt", argIDs(a, c), 0, typ.Bool1, boolOf(sa < sc))
}

func (b *RefBuilder) ICmpULe(a, c Value) Value {
	return b.emit("icmp.ule", argIDs(a, c), 0, typ.Bool1, boolOf(b.val(a) <= b.val(c)))
}

func (b *RefBuilder) ICmpSLe(a, c Value) Value {
	sa := signExtend(b.val(a), a.Type.Bits)
	sc := signExtend(b.val(c), c.Type.Bits)
	return b.emit("icmp.sle", argIDs(a, c), 0, typ.Bool1, boolOf(sa <= sc))
}

func (b *RefBuilder) AddCarry(a, c Value) (Value, Value) {
	width := a.Type.Bits
	sum64, carry64 := bits.Add64(b.val(a), b.val(c), 0)
	var carry uint64
	if width >= 64 {
		carry = carry64
	} else {
		carry = (sum64 >> uint(width)) & 1
	}
	sum := b.emit("add", argIDs(a, c), 0, a.Type, sum64)
	carryV := b.emit("carry.u", argIDs(a, c), 0, typ.Bool1, carry)
	return sum, carryV
}

func addOverflow(sa, sc, sum int64) bool {
	sameSign := (sa < 0) == (sc < 0)
	return sameSign && (sum < 0) != (sa < 0)
}

func subOverflow(sa, sc, diff int64) bool {
	diffSign := (sa < 0) != (sc < 0)
	return diffSign && (diff < 0) != (sa < 0)
}

func (b *RefBuilder) AddSCarry(a, c Value) (Value, Value) {
	sa := signExtend(b.val(a), a.Type.Bits)
	sc := signExtend(b.val(c), c.Type.Bits)
	sum := sa + sc
	sumV := b.emit("add", argIDs(a, c), 0, a.Type, uint64(sum))
	overflowV := b.emit("carry.s", argIDs(a, c), 0, typ.Bool1, boolOf(addOverflow(sa, sc, sum)))
	return sumV, overflowV
}

func (b *RefBuilder) SubSBorrow(a, c Value) (Value, Value) {
	sa := signExtend(b.val(a), a.Type.Bits)
	sc := signExtend(b.val(c), c.Type.Bits)
	diff := sa - sc
	diffV := b.emit("sub", argIDs(a, c), 0, a.Type, uint64(diff))
	borrowV := b.emit("borrow.s", argIDs(a, c), 0, typ.Bool1, boolOf(subOverflow(sa, sc, diff)))
	return diffV, borrowV
}

func (b *RefBuilder) Popcount(a Value, outT typ.Type) Value {
	n := bits.OnesCount64(maskTo(b.val(a), a.Type.Bits))
	return b.emit("popcount", argIDs(a), 0, outT, uint64(n))
}

func (b *RefBuilder) Not1(a Value) Value {
	return b.emit("not1", argIDs(a), 0, typ.Bool1, (^b.val(a))&1)
}

func (b *RefBuilder) BoolAnd(a, c Value) Value {
	return b.emit("booland", argIDs(a, c), 0, typ.IntOf(8), b.val(a)&b.val(c))
}

func (b *RefBuilder) BoolOr(a, c Value) Value {
	return b.emit("boolor", argIDs(a, c), 0, typ.IntOf(8), b.val(a)|b.val(c))
}

func (b *RefBuilder) BoolXor(a, c Value) Value {
	return b.emit("boolxor", argIDs(a, c), 0, typ.IntOf(8), b.val(a)^b.val(c))
}

func (b *RefBuilder) FNeg(a Value) Value {
	return b.emit("fneg", argIDs(a), 0, a.Type, floatBits(-floatVal(b.val(a), a.Type.Bits), a.Type.Bits))
}

func (b *RefBuilder) FAbs(a Value) Value {
	return b.emit("fabs", argIDs(a), 0, a.Type, floatBits(math.Abs(floatVal(b.val(a), a.Type.Bits)), a.Type.Bits))
}

func (b *RefBuilder) FSqrt(a Value) Value {
	return b.emit("fsqrt", argIDs(a), 0, a.Type, floatBits(math.Sqrt(floatVal(b.val(a), a.Type.Bits)), a.Type.Bits))
}

func (b *RefBuilder) FCeil(a Value) Value {
	return b.emit("fceil", argIDs(a), 0, a.Type, floatBits(math.Ceil(floatVal(b.val(a), a.Type.Bits)), a.Type.Bits))
}

func (b *RefBuilder) FFloor(a Value) Value {
	return b.emit("ffloor", argIDs(a), 0, a.Type, floatBits(math.Floor(floatVal(b.val(a), a.Type.Bits)), a.Type.Bits))
}

func (b *RefBuilder) FRound(a Value) Value {
	return b.emit("fround", argIDs(a), 0, a.Type, floatBits(math.Round(floatVal(b.val(a), a.Type.Bits)), a.Type.Bits))
}

func (b *RefBuilder) FAdd(a, c Value) Value {
	return b.emit("fadd", argIDs(a, c), 0, a.Type, floatBits(floatVal(b.val(a), a.Type.Bits)+floatVal(b.val(c), c.Type.Bits), a.Type.Bits))
}

func (b *RefBuilder) FSub(a, c Value) Value {
	return b.emit("fsub", argIDs(a, c), 0, a.Type, floatBits(floatVal(b.val(a), a.Type.Bits)-floatVal(b.val(c), c.Type.Bits), a.Type.Bits))
}

func (b *RefBuilder) FMul(a, c Value) Value {
	return b.emit("fmul", argIDs(a, c), 0, a.Type, floatBits(floatVal(b.val(a), a.Type.Bits)*floatVal(b.val(c), c.Type.Bits), a.Type.Bits))
}

func (b *RefBuilder) FDiv(a, c Value) Value {
	return b.emit("fdiv", argIDs(a, c), 0, a.Type, floatBits(floatVal(b.val(a), a.Type.Bits)/floatVal(b.val(c), c.Type.Bits), a.Type.Bits))
}

func (b *RefBuilder) FCmpEq(a, c Value) Value {
	return b.emit("fcmp.eq", argIDs(a, c), 0, typ.Bool1, boolOf(floatVal(b.val(a), a.Type.Bits) == floatVal(b.val(c), c.Type.Bits)))
}

func (b *RefBuilder) FCmpNe(a, c Value) Value {
	return b.emit("fcmp.ne", argIDs(a, c), 0, typ.Bool1, boolOf(floatVal(b.val(a), a.Type.Bits) != floatVal(b.val(c), c.Type.Bits)))
}

func (b *RefBuilder) FCmpLt(a, c Value) Value {
	return b.emit("fcmp.lt", argIDs(a, c), 0, typ.Bool1, boolOf(floatVal(b.val(a), a.Type.Bits) < floatVal(b.val(c), c.Type.Bits)))
}

func (b *RefBuilder) FCmpLe(a, c Value) Value {
	return b.emit("fcmp.le", argIDs(a, c), 0, typ.Bool1, boolOf(floatVal(b.val(a), a.Type.Bits) <= floatVal(b.val(c), c.Type.Bits)))
}

func (b *RefBuilder) IntToFloat(a Value, t typ.Type) Value {
	sa := signExtend(b.val(a), a.Type.Bits)
	return b.emit("int2float", argIDs(a), 0, t, floatBits(float64(sa), t.Bits))
}

func (b *RefBuilder) FloatToFloat(a Value, t typ.Type) Value {
	f := floatVal(b.val(a), a.Type.Bits)
	return b.emit("float2float", argIDs(a), 0, t, floatBits(f, t.Bits))
}

func (b *RefBuilder) FloatToSInt(a Value, t typ.Type) Value {
	f := floatVal(b.val(a), a.Type.Bits)
	return b.emit("float2int", argIDs(a), 0, t, uint64(int64(f)))
}

func (b *RefBuilder) Select(cond, a, c Value) Value {
	if b.val(cond)&1 != 0 {
		return b.emit("select", []ValueID{cond.ID, a.ID, c.ID}, 0, a.Type, b.val(a))
	}
	return b.emit("select", []ValueID{cond.ID, a.ID, c.ID}, 0, a.Type, b.val(c))
}

// Phi always declines: MULTIEQUAL incoming-block tracking is a known
// deficiency in the reference this translator is built against (every
// incoming value would use the current emission block as its predecessor,
// which is not valid SSA); this module refuses rather than reproduce that.
func (b *RefBuilder) Phi([]Value, typ.Type) (Value, bool) {
	return Value{}, false
}

func (b *RefBuilder) Concat(hi, lo Value, t typ.Type) Value {
	hiZ := maskTo(b.val(hi), t.Bits)
	loZ := maskTo(b.val(lo), t.Bits)
	bitsOut := (hiZ << uint(lo.Type.Bits)) | loZ
	return b.emit("piece", argIDs(hi, lo), 0, t, bitsOut)
}

func (b *RefBuilder) Extract(v Value, byteOffset int, t typ.Type) Value {
	shifted := b.val(v) >> uint(byteOffset*8)
	return b.emit("subpiece", argIDs(v), uint64(byteOffset), t, shifted)
}

func (b *RefBuilder) LoadReg(ref arch.RegisterRef, t typ.Type) Value {
	v := maskTo(b.State.Registers[ref.Name], t.Bits)
	return b.emit("loadreg."+ref.Name, nil, 0, t, v)
}

func (b *RefBuilder) StoreReg(ref arch.RegisterRef, v Value) {
	id := b.nextVal
	b.nextVal++
	b.Block.Insts = append(b.Block.Insts, IRInst{ID: id, Op: "storereg." + ref.Name, Args: argIDs(v), Type: v.Type})
	b.State.Registers[ref.Name] = maskTo(b.val(v), v.Type.Bits)
}

func (b *RefBuilder) LoadScratch(ref scratch.Ref, t typ.Type) Value {
	v := maskTo(b.State.Scratch[ref], t.Bits)
	return b.emit("loadscratch", nil, ref.Offset, t, v)
}

func (b *RefBuilder) StoreScratch(ref scratch.Ref, v Value) {
	id := b.nextVal
	b.nextVal++
	b.Block.Insts = append(b.Block.Insts, IRInst{ID: id, Op: "storescratch", Args: argIDs(v), Imm: ref.Offset, Type: v.Type})
	b.State.Scratch[ref] = maskTo(b.val(v), v.Type.Bits)
}

func (b *RefBuilder) LoadMem(mem MemoryHandle, addr Value, t typ.Type) (Value, bool) {
	n := t.Bits / 8
	if b.State.RefuseMem != nil && b.State.RefuseMem(b.val(addr), n, false) {
		return Value{}, false
	}
	v := b.State.readMem(b.val(addr), n)
	return b.emit("load", argIDs(addr), uint64(mem.id), t, v), true
}

func (b *RefBuilder) StoreMem(mem MemoryHandle, addr Value, v Value) (MemoryHandle, bool) {
	n := v.Type.Bits / 8
	if b.State.RefuseMem != nil && b.State.RefuseMem(b.val(addr), n, true) {
		return mem, false
	}
	b.State.writeMem(b.val(addr), n, b.val(v))
	id := b.nextVal
	b.nextVal++
	b.Block.Insts = append(b.Block.Insts, IRInst{ID: id, Op: "store", Args: argIDs(addr, v), Imm: uint64(mem.id), Type: v.Type})
	newMem := b.NewMemoryHandle()
	return newMem, true
}

func (b *RefBuilder) Call(name string, args []Value, t typ.Type) (Value, bool) {
	ids := make([]ValueID, len(args))
	for i, a := range args {
		ids[i] = a.ID
	}
	return b.emit("call."+name, ids, 0, t, 0), true
}
