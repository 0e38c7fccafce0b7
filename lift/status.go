package lift

import "github.com/sleighlift/pcodelift/pcode"

// Status is the tri-valued lift outcome. The zero value is Invalid;
// callers should start a Context at StatusSuccess and let record degrade
// it, never construct a bare Status.
type Status int

const (
	StatusInvalid Status = iota
	StatusUnsupported
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusUnsupported:
		return "Unsupported"
	case StatusInvalid:
		return "Invalid"
	default:
		return "?"
	}
}

// degrade implements the monotonic floor rule: the combined status of
// two outcomes is the worse of the two, and Success ranks best.
func degrade(a, b Status) Status {
	if a < b {
		return a
	}
	return b
}

// KnownUnsupported names the opcodes this translator deliberately never
// models, so callers (e.g. a coverage report) can distinguish "declined
// by design" from "fell through an opcode table gap".
var KnownUnsupported = map[pcode.Opcode]bool{
	pcode.INDIRECT:  true,
	pcode.NEW:       true,
	pcode.CPOOLREF:  true,
	pcode.MULTIEQUAL: true,
}
