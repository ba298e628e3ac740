package symbols

import "fmt"

// SetType is the A/B/C (arithmetic/boolean/character) type tag of a SET
// variable.
type SetType int

const (
	SetA SetType = iota
	SetB
	SetC
)

func (t SetType) String() string {
	switch t {
	case SetA:
		return "SETA"
	case SetB:
		return "SETB"
	case SetC:
		return "SETC"
	default:
		return "SET?"
	}
}

// SetValue is a tagged union over the three SET variable types. Only the
// field matching Type is meaningful.
type SetValue struct {
	Type SetType
	A    int32
	B    bool
	C    string
}

func defaultValue(t SetType) SetValue {
	switch t {
	case SetA:
		return SetValue{Type: SetA, A: 0}
	case SetB:
		return SetValue{Type: SetB, B: false}
	default:
		return SetValue{Type: SetC, C: ""}
	}
}

// Scope is the lexical visibility of a SET variable: Local to one macro
// invocation, or Global across the whole assembly.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeGlobal
)

// SetVariable is a declared SETA/SETB/SETC, scalar or subscripted.
type SetVariable struct {
	Name   string
	Type   SetType
	Scope  Scope
	Scalar SetValue
	// Array holds subscripted values; a sparse map from positive index to
	// value, default-valued on first read of an unset index (§3 "SET
	// variable" invariants).
	Array map[int]SetValue
}

func newSetVariable(name string, t SetType, scope Scope) *SetVariable {
	return &SetVariable{
		Name:   name,
		Type:   t,
		Scope:  scope,
		Scalar: defaultValue(t),
		Array:  make(map[int]SetValue),
	}
}

// Get reads the scalar value, default-valuing it on first read.
func (v *SetVariable) Get() SetValue {
	return v.Scalar
}

// GetIndexed reads a subscripted value, default-valuing it on first read.
func (v *SetVariable) GetIndexed(index int) SetValue {
	if val, ok := v.Array[index]; ok {
		return val
	}
	def := defaultValue(v.Type)
	v.Array[index] = def
	return def
}

// Set writes the scalar value.
func (v *SetVariable) Set(val SetValue) error {
	if val.Type != v.Type {
		return fmt.Errorf("type mismatch assigning to %s %q", v.Type, v.Name)
	}
	v.Scalar = val
	return nil
}

// SetIndexed writes a subscripted value.
func (v *SetVariable) SetIndexed(index int, val SetValue) error {
	if val.Type != v.Type {
		return fmt.Errorf("type mismatch assigning to %s %q(%d)", v.Type, v.Name, index)
	}
	v.Array[index] = val
	return nil
}

// CodeScope is one lexical scope: the global scope, or one macro
// invocation's local scope (§3 "SET variable": locals die with the macro
// frame).
type CodeScope struct {
	vars map[string]*SetVariable
}

// NewCodeScope returns an empty scope.
func NewCodeScope() *CodeScope {
	return &CodeScope{vars: make(map[string]*SetVariable)}
}

// Declare declares a LCLx/GBLx variable, or the implicit declaration on
// first SETx of an undeclared name. Redeclaring an existing name is a
// no-op returning the existing variable (HLASM tolerates duplicate
// LCLx/GBLx of the same name).
func (s *CodeScope) Declare(name string, t SetType, scope Scope) *SetVariable {
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := newSetVariable(name, t, scope)
	s.vars[name] = v
	return v
}

// Lookup finds a declared variable in this scope only.
func (s *CodeScope) Lookup(name string) (*SetVariable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// All returns every SET variable declared in this scope, for
// editor/inspector listings; order is unspecified.
func (s *CodeScope) All() []*SetVariable {
	out := make([]*SetVariable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	return out
}
