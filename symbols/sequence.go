package symbols

import "fmt"

// SequenceKind distinguishes a macro-scoped sequence symbol (an offset
// into the macro body) from an open-code one (an absolute source position
// plus a reproducible snapshot), grounded on the original's
// sequence_symbol / opencode_sequence_symbol / macro_sequence_symbol split.
type SequenceKind int

const (
	SequenceOpenCode SequenceKind = iota
	SequenceMacro
)

// SequenceSymbol is a `.NAME` branch target.
type SequenceSymbol struct {
	Name     string
	Location Location
	Kind     SequenceKind

	// valid when Kind == SequenceMacro
	StatementOffset int

	// valid when Kind == SequenceOpenCode
	Position SourcePosition
	Snapshot Snapshot
}

// Equal compares two open-code sequence symbols by their snapshot, the
// way the original's opencode_sequence_symbol::operator== does.
func (s *SequenceSymbol) Equal(o *SequenceSymbol) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Kind == SequenceMacro {
		return s.StatementOffset == o.StatementOffset
	}
	return s.Snapshot.Equal(o.Snapshot)
}

// SequenceTable is global to the outer assembly (macro-scoped symbols are
// additionally namespaced by the owning macro's definition pointer, see
// MacroDefinition.Sequences).
type SequenceTable struct {
	symbols map[string]*SequenceSymbol

	// pending holds lookahead-queued redefinitions: diagnostics are
	// recorded here and only committed if the lookahead fails to reach its
	// target by another path (§4.C "Attribute lookup" / §4.H "Sequence
	// lookahead").
	pending []PendingRedefinition
}

// PendingRedefinition is a queued sequence-symbol redefinition diagnostic
// raised while a sequence lookahead is in flight.
type PendingRedefinition struct {
	Name    string
	Message string
}

// NewSequenceTable returns an empty table.
func NewSequenceTable() *SequenceTable {
	return &SequenceTable{symbols: make(map[string]*SequenceSymbol)}
}

// Define interns name on first sighting, or validates a redefinition.
// Per §3: a sequence symbol is define-once; on a second write, if the new
// open-code snapshot differs from the first, error E045 is raised (via
// the returned bool/diagnostic text); during lookahead the caller should
// route that diagnostic through QueuePending instead of committing it
// immediately.
func (t *SequenceTable) Define(sym *SequenceSymbol) (redefined bool, message string) {
	existing, ok := t.symbols[sym.Name]
	if !ok {
		t.symbols[sym.Name] = sym
		return false, ""
	}
	if existing.Equal(sym) {
		return false, ""
	}
	return true, fmt.Sprintf("E045: sequence symbol %q redefined at %s (previously defined at %s)",
		sym.Name, locString(sym.Location), locString(existing.Location))
}

func locString(l Location) string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Lookup finds a sequence symbol by name.
func (t *SequenceTable) Lookup(name string) (*SequenceSymbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// All returns every interned sequence symbol, for editor/inspector
// listings; order is unspecified.
func (t *SequenceTable) All() []*SequenceSymbol {
	out := make([]*SequenceSymbol, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, s)
	}
	return out
}

// QueuePending records a redefinition diagnostic produced while a
// sequence lookahead is active, to be committed or discarded once the
// lookahead resolves.
func (t *SequenceTable) QueuePending(name, message string) {
	t.pending = append(t.pending, PendingRedefinition{Name: name, Message: message})
}

// CommitPending returns and clears all queued redefinition diagnostics
// (lookahead failed to reach its target: they become real diagnostics).
func (t *SequenceTable) CommitPending() []PendingRedefinition {
	out := t.pending
	t.pending = nil
	return out
}

// DiscardPending clears queued redefinition diagnostics without emitting
// them (lookahead succeeded at the target).
func (t *SequenceTable) DiscardPending() {
	t.pending = nil
}
