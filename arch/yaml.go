package arch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sleighlift/pcodelift/space"
	"github.com/sleighlift/pcodelift/typ"
)

// registerDoc is one register entry in a YAML architecture description.
type registerDoc struct {
	Name   string `yaml:"name"`
	Space  string `yaml:"space"`
	Offset uint64 `yaml:"offset"`
	Size   int    `yaml:"size"`
}

// facadeDoc is the top-level shape of a YAML architecture description,
// the analogue of the teacher's NameIDBinding register-file registration
// done in Go code (confignew.NameIDBinding.BindRegisterFile), but data
// driven so new architectures don't require a recompile.
type facadeDoc struct {
	WordBits    int            `yaml:"word_bits"`
	PointerBits int            `yaml:"pointer_bits"`
	Registers   []registerDoc  `yaml:"registers"`
	UserOps     []string       `yaml:"user_ops"`
	Intrinsics  map[string]bool `yaml:"intrinsics"`
}

// YAMLFacade is a concrete Facade loaded from a YAML document: a flat
// register table, word/pointer widths, and a user-op name table.
type YAMLFacade struct {
	wordType    typ.Type
	pointerType typ.Type
	byName      map[string]RegisterRef
	byLocation  map[registerKey]string
	userOps     []string
	intrinsics  intrinsicSet
}

type registerKey struct {
	tag    space.Tag
	offset uint64
	size   int
}

type intrinsicSet map[string]bool

func (s intrinsicSet) Has(name string) bool { return s[name] }

// LoadFacade reads a YAML architecture description from path.
func LoadFacade(path string) (*YAMLFacade, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("arch: read %s: %w", path, err)
	}
	return ParseFacade(data)
}

// ParseFacade decodes a YAML architecture description already read into
// memory.
func ParseFacade(data []byte) (*YAMLFacade, error) {
	var doc facadeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("arch: parse yaml: %w", err)
	}

	f := &YAMLFacade{
		wordType:    typ.IntOf(doc.WordBits),
		pointerType: typ.PointerOf(doc.PointerBits),
		byName:      make(map[string]RegisterRef, len(doc.Registers)),
		byLocation:  make(map[registerKey]string, len(doc.Registers)),
		userOps:     append([]string(nil), doc.UserOps...),
		intrinsics:  make(intrinsicSet, len(doc.Intrinsics)),
	}
	for name, enabled := range doc.Intrinsics {
		if enabled {
			f.intrinsics[name] = true
		}
	}

	offset := 0
	for _, r := range doc.Registers {
		tag, err := parseSpaceTag(r.Space)
		if err != nil {
			return nil, fmt.Errorf("arch: register %q: %w", r.Name, err)
		}
		name := strings.ToUpper(r.Name)
		ref := RegisterRef{Name: name, Offset: offset, Size: r.Size}
		f.byName[name] = ref
		f.byLocation[registerKey{tag: tag, offset: r.Offset, size: r.Size}] = name
		offset += r.Size
	}

	return f, nil
}

func parseSpaceTag(s string) (space.Tag, error) {
	switch strings.ToLower(s) {
	case "register":
		return space.Register, nil
	case "ram":
		return space.RAM, nil
	case "const":
		return space.Const, nil
	case "unique":
		return space.Unique, nil
	default:
		return 0, fmt.Errorf("unknown address space %q", s)
	}
}

func (f *YAMLFacade) WordType() typ.Type    { return f.wordType }
func (f *YAMLFacade) PointerType() typ.Type { return f.pointerType }

func (f *YAMLFacade) RegisterName(tag space.Tag, offset uint64, size int) (string, bool) {
	name, ok := f.byLocation[registerKey{tag: tag, offset: offset, size: size}]
	return name, ok
}

func (f *YAMLFacade) RegisterRef(name string) (RegisterRef, bool) {
	ref, ok := f.byName[strings.ToUpper(name)]
	return ref, ok
}

func (f *YAMLFacade) HasRegister(name string) bool {
	_, ok := f.byName[strings.ToUpper(name)]
	return ok
}

func (f *YAMLFacade) Intrinsics() IntrinsicTable { return f.intrinsics }
func (f *YAMLFacade) UserOps() []string          { return f.userOps }

// StateSize returns the number of bytes the architectural state record
// needs to back every named register. Callers building a fresh
// irbuilder.State for this façade should size their register blob to at
// least this.
func (f *YAMLFacade) StateSize() int {
	size := 0
	for _, ref := range f.byName {
		if end := ref.Offset + ref.Size; end > size {
			size = end
		}
	}
	return size
}
