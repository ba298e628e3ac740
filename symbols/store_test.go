package symbols

import "testing"

func TestOrdinaryTable_DefineAndLookup(t *testing.T) {
	table := NewOrdinaryTable()
	if err := table.Define("", "LBL", 100, Attributes{Type: 'F', Length: 4}); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	sym, ok := table.Lookup("", "LBL")
	if !ok {
		t.Fatal("expected LBL to be found")
	}
	if sym.Value != 100 || !sym.Defined {
		t.Errorf("unexpected symbol state: %+v", sym)
	}
}

func TestOrdinaryTable_RedefineIsError(t *testing.T) {
	table := NewOrdinaryTable()
	if err := table.Define("", "LBL", 100, Attributes{}); err != nil {
		t.Fatalf("first Define failed: %v", err)
	}
	if err := table.Define("", "LBL", 200, Attributes{}); err == nil {
		t.Error("expected error redefining an already-defined symbol")
	}
}

func TestOrdinaryTable_ReserveThenDefine(t *testing.T) {
	table := NewOrdinaryTable()
	placeholder := table.Reserve("", "FWD")
	if placeholder.Defined {
		t.Error("expected reserved placeholder to be undefined")
	}

	table.AddForwardRef(ForwardRef{Section: "", Name: "FWD", Line: 3, Column: 1})
	if unresolved := table.UnresolvedAtEndOfSection(""); len(unresolved) != 1 {
		t.Fatalf("expected 1 unresolved forward ref, got %d", len(unresolved))
	}

	if err := table.Define("", "FWD", 42, Attributes{}); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if unresolved := table.UnresolvedAtEndOfSection(""); len(unresolved) != 0 {
		t.Errorf("expected forward ref resolved after Define, got %d", len(unresolved))
	}
}

func TestCodeScope_DeclareAndGetDefaults(t *testing.T) {
	scope := NewCodeScope()
	v := scope.Declare("&COUNT", SetA, ScopeLocal)

	got := v.Get()
	if got.Type != SetA || got.A != 0 {
		t.Errorf("expected zero-valued SETA default, got %+v", got)
	}

	if err := v.Set(SetValue{Type: SetA, A: 7}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v.Get().A != 7 {
		t.Errorf("expected A=7 after Set, got %+v", v.Get())
	}
}

func TestCodeScope_DeclareIsIdempotent(t *testing.T) {
	scope := NewCodeScope()
	a := scope.Declare("&X", SetB, ScopeLocal)
	b := scope.Declare("&X", SetB, ScopeLocal)
	if a != b {
		t.Error("expected redeclaring the same name to return the existing variable")
	}
}

func TestSetVariable_TypeMismatchRejected(t *testing.T) {
	scope := NewCodeScope()
	v := scope.Declare("&X", SetA, ScopeLocal)
	if err := v.Set(SetValue{Type: SetC, C: "oops"}); err == nil {
		t.Error("expected type mismatch error setting a SETC value on a SETA variable")
	}
}

func TestSetVariable_IndexedDefaultsOnFirstRead(t *testing.T) {
	scope := NewCodeScope()
	v := scope.Declare("&ARR", SetC, ScopeLocal)
	got := v.GetIndexed(5)
	if got.Type != SetC || got.C != "" {
		t.Errorf("expected default SETC value at unset index, got %+v", got)
	}
	if err := v.SetIndexed(5, SetValue{Type: SetC, C: "hi"}); err != nil {
		t.Fatalf("SetIndexed failed: %v", err)
	}
	if v.GetIndexed(5).C != "hi" {
		t.Errorf("expected indexed value to persist")
	}
}

func TestSequenceTable_DefineAndRedefine(t *testing.T) {
	table := NewSequenceTable()
	first := &SequenceSymbol{Name: ".A", Kind: SequenceMacro, StatementOffset: 1}
	if redefined, _ := table.Define(first); redefined {
		t.Error("did not expect redefined on first definition")
	}

	second := &SequenceSymbol{Name: ".A", Kind: SequenceMacro, StatementOffset: 2}
	redefined, msg := table.Define(second)
	if !redefined {
		t.Error("expected redefinition to be detected")
	}
	if msg == "" {
		t.Error("expected a redefinition message")
	}
}

func TestSequenceTable_PendingLifecycle(t *testing.T) {
	table := NewSequenceTable()
	table.QueuePending(".A", "E045: redefined")
	table.DiscardPending()
	if got := table.CommitPending(); len(got) != 0 {
		t.Errorf("expected discarded pending to be empty on commit, got %v", got)
	}

	table.QueuePending(".B", "E045: redefined")
	committed := table.CommitPending()
	if len(committed) != 1 {
		t.Fatalf("expected 1 committed redefinition, got %d", len(committed))
	}
}

func TestStore_CurrentScopeDefaultsToGlobal(t *testing.T) {
	store := NewStore()
	if store.CurrentScope() != store.Global {
		t.Error("expected current scope to be global with no active macro frame")
	}
}

func TestStore_NextSYSNDXIncrements(t *testing.T) {
	store := NewStore()
	first := store.NextSYSNDX()
	second := store.NextSYSNDX()
	if second != first+1 {
		t.Errorf("expected SYSNDX to increment, got %d then %d", first, second)
	}
}

func TestStore_DefineAndLookupMacro(t *testing.T) {
	store := NewStore()
	def := &MacroDefinition{Name: "MYMAC"}
	store.DefineMacro(def)

	got, ok := store.LookupMacro("MYMAC")
	if !ok || got != def {
		t.Errorf("expected to look up defined macro, got %v, %v", got, ok)
	}
}
