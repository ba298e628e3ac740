package lexer

import (
	"testing"

	"github.com/lookbusy1344/hlasm-ls/diag"
)

func nonHidden(toks []Token) []Token {
	var out []Token
	for _, t := range toks {
		if t.Channel == ChannelDefault && t.Kind != TokenEOLLN && t.Kind != TokenEOF {
			out = append(out, t)
		}
	}
	return out
}

func TestLexer_SimpleStatement(t *testing.T) {
	diags := diag.NewCollector()
	l := New("LBL DS F\n", "t.hlasm", diags)
	toks := nonHidden(l.Tokenize())

	if len(toks) != 3 {
		t.Fatalf("expected 3 significant tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Text != "LBL" || toks[0].Kind != TokenOrdinarySymbol {
		t.Errorf("unexpected first token: %v", toks[0])
	}
	if toks[1].Text != "DS" {
		t.Errorf("unexpected second token: %v", toks[1])
	}
	if toks[2].Text != "F" {
		t.Errorf("unexpected third token: %v", toks[2])
	}
	if diags.All() != nil && len(diags.All()) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags.All())
	}
}

func TestLexer_CommentLine(t *testing.T) {
	diags := diag.NewCollector()
	l := New("* this is a comment\nLBL DS F\n", "t.hlasm", diags)
	toks := l.Tokenize()

	foundComment := false
	for _, tok := range toks {
		if tok.Kind == TokenComment {
			foundComment = true
		}
	}
	if !foundComment {
		t.Errorf("expected a comment token, got %v", toks)
	}
}

func TestLexer_Continuation(t *testing.T) {
	source := "LBL DS                                                                X\n" +
		"               F\n"
	diags := diag.NewCollector()
	l := New(source, "t.hlasm", diags)
	toks := nonHidden(l.Tokenize())

	var words []string
	for _, tok := range toks {
		words = append(words, tok.Text)
	}
	if len(words) < 3 || words[0] != "LBL" || words[1] != "DS" || words[len(words)-1] != "F" {
		t.Errorf("expected continuation to join operand across lines, got %v", words)
	}
}

func TestLexer_ContinuationDisabledAtEnd80(t *testing.T) {
	cols := Columns{Begin: 0, End: 79, Continue: 15}
	diags := diag.NewCollector()
	l := New("LBL DS F\n", "t.hlasm", diags, WithColumns(cols))
	l.Tokenize()

	if diags.All() == nil {
		// no continuation was attempted, so no diagnostic is expected either
	}
	if cols.ContinuationEnabled() {
		t.Errorf("expected continuation disabled at END=80 (0-indexed 79)")
	}
}

func TestClassifyWord(t *testing.T) {
	cases := map[string]TokenKind{
		"123":   TokenNumber,
		"LABEL": TokenOrdinarySymbol,
		"OR":    TokenOR,
		"AND":   TokenAND,
	}
	for word, want := range cases {
		if got := classifyWord(word); got != want {
			t.Errorf("classifyWord(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestValidateICTL(t *testing.T) {
	if err := ValidateICTL(1, 71, 16); err != nil {
		t.Errorf("expected valid ICTL, got %v", err)
	}
	if err := ValidateICTL(0, 71, 16); err == nil {
		t.Error("expected error for BEGIN out of range")
	}
	if err := ValidateICTL(10, 71, 5); err == nil {
		t.Error("expected error when BEGIN >= CONTINUE")
	}
}

func TestLexer_ICTLChangesColumns(t *testing.T) {
	source := " ICTL 10,71,15\n" +
		"         LBL DS F\n"
	diags := diag.NewCollector()
	l := New(source, "t.hlasm", diags)
	toks := nonHidden(l.Tokenize())

	foundLBL := false
	for _, tok := range toks {
		if tok.Text == "LBL" {
			foundLBL = true
		}
	}
	if !foundLBL {
		t.Errorf("expected LBL token to be lexed under the new ICTL columns, got %v", toks)
	}
}
