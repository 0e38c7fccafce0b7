// Package typ describes the small, closed set of value types the typed IR
// builder works with: fixed-width integers, fixed-width floats, and a
// pointer type sized to the target's address width.
package typ

// Kind distinguishes the value categories the IR builder supports.
type Kind int

const (
	Int Kind = iota
	Float
	Pointer
)

// Type is a value's bit width and category. Two Types compare equal with
// ==; there is no hidden state.
type Type struct {
	Kind Kind
	Bits int
}

// IntOf returns the unsigned/signed-agnostic integer type of the given
// width in bits. p-code does not distinguish signedness in the type
// itself; individual opcodes choose signed or unsigned behavior.
func IntOf(bits int) Type { return Type{Kind: Int, Bits: bits} }

// FloatOf returns the float type of the given width. Only 32 and 64 are
// valid; callers that need to reject other widths should do so explicitly
// (see lift's float handlers).
func FloatOf(bits int) Type { return Type{Kind: Float, Bits: bits} }

// PointerOf returns the pointer type of the given width.
func PointerOf(bits int) Type { return Type{Kind: Pointer, Bits: bits} }

// Bool1 is the 1-bit type every comparison and BOOL_NEGATE reads/produces
// before it gets zero-extended to its outvar's width.
var Bool1 = IntOf(1)

func (t Type) String() string {
	switch t.Kind {
	case Int:
		return "i" + itoa(t.Bits)
	case Float:
		return "f" + itoa(t.Bits)
	case Pointer:
		return "ptr" + itoa(t.Bits)
	default:
		return "?"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
