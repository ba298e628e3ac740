package processing

import (
	"context"
	"strings"
	"testing"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/library"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

// fakeCopyLibrary is a library.Provider backed by an in-memory member map,
// for tests exercising COPY activation without the filesystem.
type fakeCopyLibrary map[string]string

func (f fakeCopyLibrary) HasLibrary(_ context.Context, name string) bool {
	_, ok := f[name]
	return ok
}

func (f fakeCopyLibrary) GetLibrary(_ context.Context, name string) (library.Source, bool, error) {
	text, ok := f[name]
	if !ok {
		return library.Source{}, false, nil
	}
	return library.Source{Text: text, Location: name}, true, nil
}

func (f fakeCopyLibrary) ParseLibrary(context.Context, string, library.AnalysisContext, library.Kind) (bool, error) {
	return false, nil
}

func run(t *testing.T, src string) (*Manager, *diag.Collector) {
	t.Helper()
	diags := diag.NewCollector()
	stmts := ParseSource(src, "t.hlasm", diags)
	store := symbols.NewStore()
	mgr := NewManager("t.hlasm", stmts, store, diags, nil)
	mgr.Run(context.Background(), 10000)
	return mgr, diags
}

func TestSETAArithmetic(t *testing.T) {
	src := "&X SETA 2+3*4\n"
	mgr, diags := run(t, src)
	v, ok := mgr.Store.Global.Lookup("&X")
	if !ok {
		t.Fatalf("&X not declared; diags=%v", diags.All())
	}
	if got := v.Get().A; got != 14 {
		t.Errorf("&X = %d, want 14", got)
	}
}

func TestAGOSkipsForward(t *testing.T) {
	src := strings.Join([]string{
		"         AGO .SKIP",
		"&Y       SETA 1",
		".SKIP    ANOP",
		"&Z       SETA 2",
		"",
	}, "\n")
	mgr, diags := run(t, src)
	if _, ok := mgr.Store.Global.Lookup("&Y"); ok {
		t.Errorf("&Y should not have been declared, statement was skipped; diags=%v", diags.All())
	}
	if _, ok := mgr.Store.Global.Lookup("&Z"); !ok {
		t.Errorf("&Z should have been declared after the AGO landed")
	}
}

func TestAIFConditionalBranch(t *testing.T) {
	src := strings.Join([]string{
		"&C       SETB  1",
		"         AIF   (&C EQ 1).HIT",
		"&MISS    SETA  1",
		".HIT     ANOP",
		"&HIT     SETA  1",
		"",
	}, "\n")
	mgr, _ := run(t, src)
	if _, ok := mgr.Store.Global.Lookup("&MISS"); ok {
		t.Errorf("&MISS should have been skipped by the taken AIF branch")
	}
	if _, ok := mgr.Store.Global.Lookup("&HIT"); !ok {
		t.Errorf("&HIT should have been reached")
	}
}

func TestSequenceSymbolNotFoundReportsE047(t *testing.T) {
	_, diags := run(t, "         AGO .NOWHERE\n")
	found := false
	for _, d := range diags.All() {
		if d.Code == "E047" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E047 for an unresolved AGO target, got %v", diags.All())
	}
}

func TestForwardBranchDoesNotChargeBranchCounter(t *testing.T) {
	src := strings.Join([]string{
		"         MACRO",
		"&LBL     FWDONLY",
		"         ACTR  0",
		"         AIF   (1 EQ 1).SKIP",
		"&MISS    SETA  1",
		".SKIP    ANOP",
		"&HIT     SETA  1",
		"         MEND",
		"GEN      FWDONLY",
		"",
	}, "\n")
	_, diags := run(t, src)
	for _, d := range diags.All() {
		if d.Code == "E073" {
			t.Errorf("a forward AIF branch must not charge the branch counter even with ACTR 0, got %v", diags.All())
		}
	}
}

func TestSequenceLookaheadAcrossCopy(t *testing.T) {
	diags := diag.NewCollector()
	src := "         AGO .TARGET\n         COPY  MEMBER\n"
	stmts := ParseSource(src, "t.hlasm", diags)
	store := symbols.NewStore()
	mgr := NewManager("t.hlasm", stmts, store, diags, fakeCopyLibrary{"MEMBER": ".TARGET  ANOP\n&HIT     SETA 1\n"})
	mgr.Run(context.Background(), 10000)
	if _, ok := store.Global.Lookup("&HIT"); !ok {
		t.Errorf("expected &HIT to be defined after the lookahead-resolved AGO landed inside the COPY member; diags=%v", diags.All())
	}
	for _, d := range diags.All() {
		if d.Code == "E047" {
			t.Errorf("unexpected sequence-not-found diagnostic: %v", d)
		}
	}
}

func TestMacroDefinitionAndInvocation(t *testing.T) {
	src := strings.Join([]string{
		"         MACRO",
		"&LBL     ADDTWO &A,&B",
		"&LBL     SETA  &A+&B",
		"         MEND",
		"GEN      ADDTWO 3,4",
		"",
	}, "\n")
	mgr, diags := run(t, src)
	if _, ok := mgr.Store.LookupMacro("ADDTWO"); !ok {
		t.Fatalf("ADDTWO not defined as a macro; diags=%v", diags.All())
	}
}

func TestBranchCounterExhaustionReportsE073(t *testing.T) {
	src := strings.Join([]string{
		"         MACRO",
		"&LBL     LOOPY",
		"         ACTR  2",
		".AGAIN   ANOP",
		"         AGO   .AGAIN",
		"         MEND",
		"GEN      LOOPY",
		"",
	}, "\n")
	_, diags := run(t, src)
	found := false
	for _, d := range diags.All() {
		if d.Code == "E073" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E073 once the branch counter underflows, got %v", diags.All())
	}
}
