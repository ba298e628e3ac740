// Package symbols implements the symbol & variable store (spec component
// 4.C): ordinary symbols, SET variables, sequence symbols and macro
// invocation frames, plus the source snapshot used to restart open-code
// processing at a prior point.
package symbols

import "fmt"

// AttrType enumerates the ordinary-symbol attributes HLASM exposes via
// T'/L'/S'/I'/K'... references.
type AttrType int

const (
	AttrUnknown AttrType = iota
	AttrTypeChar
	AttrLength
	AttrScale
	AttrInteger
	AttrProgramType
	AttrAssemblerType
)

// Attributes is the attribute set carried by an ordinary symbol, frozen
// once the symbol becomes Defined.
type Attributes struct {
	Type          byte // the T' attribute, e.g. 'F', 'C', 'U'
	Length        int
	Scale         int
	Integer       int
	ProgramType   byte
	AssemblerType byte
	Defined       bool
}

// Ordinary is one ordinary symbol: unique within its section, immutable
// once Defined.
type Ordinary struct {
	Name    string
	Section string
	Value   int64
	Attrs   Attributes
	Defined bool
}

// OrdinaryTable tracks ordinary symbols, scoped by section, and the
// forward references that must be resolved at end-of-section.
type OrdinaryTable struct {
	bySection map[string]map[string]*Ordinary
	forward   map[string][]ForwardRef
}

// ForwardRef records a use of a not-yet-defined ordinary symbol so it can
// be resolved once the symbol is defined (or reported unresolved at
// end-of-section).
type ForwardRef struct {
	Section string
	Name    string
	Line    int
	Column  int
}

// NewOrdinaryTable returns an empty table.
func NewOrdinaryTable() *OrdinaryTable {
	return &OrdinaryTable{
		bySection: make(map[string]map[string]*Ordinary),
		forward:   make(map[string][]ForwardRef),
	}
}

// Define creates or completes an ordinary symbol. Redefining an already
// Defined symbol is an error: once defined its value and attributes are
// immutable (§3 "Symbol store invariants").
func (t *OrdinaryTable) Define(section, name string, value int64, attrs Attributes) error {
	scope, ok := t.bySection[section]
	if !ok {
		scope = make(map[string]*Ordinary)
		t.bySection[section] = scope
	}
	if sym, exists := scope[name]; exists {
		if sym.Defined {
			return fmt.Errorf("ordinary symbol %q already defined in section %q", name, section)
		}
		sym.Value = value
		sym.Attrs = attrs
		sym.Attrs.Defined = true
		sym.Defined = true
		return nil
	}
	scope[name] = &Ordinary{Name: name, Section: section, Value: value, Attrs: attrs, Defined: true}
	return nil
}

// Reserve creates a placeholder for a symbol referenced before definition
// (used by attribute lookahead, §4.H) so later lookups can find it.
func (t *OrdinaryTable) Reserve(section, name string) *Ordinary {
	scope, ok := t.bySection[section]
	if !ok {
		scope = make(map[string]*Ordinary)
		t.bySection[section] = scope
	}
	if sym, exists := scope[name]; exists {
		return sym
	}
	sym := &Ordinary{Name: name, Section: section}
	scope[name] = sym
	return sym
}

// Lookup finds a symbol within a section.
func (t *OrdinaryTable) Lookup(section, name string) (*Ordinary, bool) {
	scope, ok := t.bySection[section]
	if !ok {
		return nil, false
	}
	sym, ok := scope[name]
	return sym, ok
}

// All returns every interned ordinary symbol across all sections, for
// editor/inspector listings; order is unspecified.
func (t *OrdinaryTable) All() []*Ordinary {
	var out []*Ordinary
	for _, scope := range t.bySection {
		for _, sym := range scope {
			out = append(out, sym)
		}
	}
	return out
}

// AddForwardRef records a use of a symbol that was not yet defined.
func (t *OrdinaryTable) AddForwardRef(ref ForwardRef) {
	t.forward[ref.Section+"\x00"+ref.Name] = append(t.forward[ref.Section+"\x00"+ref.Name], ref)
}

// UnresolvedAtEndOfSection returns every forward reference whose symbol
// remains undefined, for end-of-section diagnostics.
func (t *OrdinaryTable) UnresolvedAtEndOfSection(section string) []ForwardRef {
	var out []ForwardRef
	for key, refs := range t.forward {
		for _, r := range refs {
			if r.Section != section {
				continue
			}
			_ = key
			if sym, ok := t.Lookup(r.Section, r.Name); !ok || !sym.Defined {
				out = append(out, r)
			}
		}
	}
	return out
}
