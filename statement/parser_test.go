package statement

import (
	"testing"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/lexer"
)

func tokenizeVisible(t *testing.T, source string) []lexer.Token {
	t.Helper()
	diags := diag.NewCollector()
	l := lexer.New(source, "t.hlasm", diags)
	return l.Tokenize()
}

func TestParseInitial_LabelInstructionOperand(t *testing.T) {
	toks := tokenizeVisible(t, "LBL DS F\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)

	if stmt.Label != "LBL" {
		t.Errorf("expected label LBL, got %q", stmt.Label)
	}
	if stmt.Instruction != "DS" {
		t.Errorf("expected instruction DS, got %q", stmt.Instruction)
	}
	if stmt.DeferredText != "F" {
		t.Errorf("expected deferred text F, got %q", stmt.DeferredText)
	}
	if stmt.Kind != KindDeferred {
		t.Errorf("expected KindDeferred after Initial parse, got %v", stmt.Kind)
	}
}

func TestParseInitial_NoLabel(t *testing.T) {
	toks := tokenizeVisible(t, "    DS F\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)

	if stmt.Label != "" {
		t.Errorf("expected no label, got %q", stmt.Label)
	}
	if stmt.Instruction != "DS" {
		t.Errorf("expected instruction DS, got %q", stmt.Instruction)
	}
}

func TestParseInitial_InstructionUppercased(t *testing.T) {
	toks := tokenizeVisible(t, "lbl ds f\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)

	if stmt.Instruction != "DS" {
		t.Errorf("expected uppercased instruction DS, got %q", stmt.Instruction)
	}
}

func TestReparse_SplitsOperandsAndRemarks(t *testing.T) {
	toks := tokenizeVisible(t, "LBL DC F'1',F'2' a remark\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)

	p.Reparse(stmt, ProcessingForm{Kind: ProcOrdinary, Form: FormDataDef, Occurrence: OperandPresent})

	if len(stmt.Operands) != 2 {
		t.Fatalf("expected 2 operands, got %d: %v", len(stmt.Operands), stmt.Operands)
	}
	if stmt.Operands[0].Text != "F'1'" || stmt.Operands[1].Text != "F'2'" {
		t.Errorf("unexpected operand text: %q, %q", stmt.Operands[0].Text, stmt.Operands[1].Text)
	}
	if len(stmt.Remarks) != 2 {
		t.Errorf("expected 2 remark words, got %v", stmt.Remarks)
	}
	if stmt.Kind != KindResolved {
		t.Errorf("expected KindResolved after Reparse, got %v", stmt.Kind)
	}
}

func TestReparse_ParenthesesProtectCommas(t *testing.T) {
	toks := tokenizeVisible(t, "LBL DC A(X,Y),A(Z)\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)
	p.Reparse(stmt, ProcessingForm{Form: FormDataDef, Occurrence: OperandPresent})

	if len(stmt.Operands) != 2 {
		t.Fatalf("expected 2 top-level operands despite inner comma, got %d: %v", len(stmt.Operands), stmt.Operands)
	}
	if stmt.Operands[0].Text != "A(X,Y)" {
		t.Errorf("expected first operand to retain parenthesized comma, got %q", stmt.Operands[0].Text)
	}
}

func TestReparse_OperandAbsent(t *testing.T) {
	toks := tokenizeVisible(t, "LBL EQU *\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)
	p.Reparse(stmt, ProcessingForm{Form: FormAsmGeneric, Occurrence: OperandAbsent})

	if stmt.Operands != nil {
		t.Errorf("expected no operands when Occurrence is absent, got %v", stmt.Operands)
	}
}

func TestReparse_SingleCommaIsZeroOperands(t *testing.T) {
	toks := tokenizeVisible(t, "LBL MAC ,\n")
	p := New("t.hlasm", diag.NewCollector(), lexer.DefaultColumns().Begin)
	stmt := p.ParseInitial(toks)
	p.Reparse(stmt, ProcessingForm{Form: FormMacroCall, Occurrence: OperandPresent})

	if len(stmt.Operands) != 0 {
		t.Errorf("expected zero operands for a lone comma, got %v", stmt.Operands)
	}
}

func TestProcessingForm_CacheKey(t *testing.T) {
	a := ProcessingForm{Kind: ProcOrdinary, Form: FormDataDef, Occurrence: OperandPresent}
	b := ProcessingForm{Kind: ProcMacro, Form: FormDataDef, Occurrence: OperandPresent}

	if a.CacheKey() != b.CacheKey() {
		t.Errorf("expected cache keys to match across differing Kind, got %v vs %v", a.CacheKey(), b.CacheKey())
	}
}
