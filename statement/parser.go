package statement

import (
	"strings"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/lexer"
)

// Parser turns one logical line's token slice (as produced by lexer.Lexer,
// bounded by a TokenEOLLN or TokenEOF) into a Statement. It has two
// modes: Initial mode parses the label/instruction fields and defers the
// operand field; Reparse mode re-lexes a previously deferred operand
// field once the processing form is known (§4.B).
type Parser struct {
	filename string
	diags    *diag.Collector
	begin    int // BEGIN column, used to recognize the label field
}

// New returns a Parser bound to one file's diagnostics collector.
func New(filename string, diags *diag.Collector, beginColumn int) *Parser {
	return &Parser{filename: filename, diags: diags, begin: beginColumn}
}

// ParseInitial consumes one logical line's tokens (default-channel only;
// hidden tokens are skipped) and returns a Deferred statement with the
// label and instruction fields resolved and the operand field set aside
// for later reparse.
func (p *Parser) ParseInitial(tokens []lexer.Token) *Statement {
	toks := visibleTokens(tokens)
	stmt := &Statement{Kind: KindDeferred, Tokens: tokens}

	i := 0
	if i < len(toks) && toks[i].Range.Start.Column == p.begin && isLabelToken(toks[i]) {
		// Label field: every token starting exactly at BEGIN, run together
		// without an intervening blank. Blanks are their own (hidden,
		// already-filtered-out) tokens, so "no blank between" shows up here
		// as "no column gap between consecutive tokens" (a SET-symbol or
		// sequence-symbol label is itself several tokens: '&'/'.' then a
		// word).
		start := i
		var sb strings.Builder
		prevEnd := toks[i].Range.Start.Column
		for i < len(toks) && toks[i].Kind != lexer.TokenEOLLN && toks[i].Kind != lexer.TokenEOF && toks[i].Range.Start.Column == prevEnd {
			sb.WriteString(toks[i].Text)
			prevEnd = toks[i].Range.End.Column
			i++
		}
		stmt.Label = sb.String()
		stmt.LabelRange = toRange(p.filename, lexer.Range{Start: toks[start].Range.Start, End: toks[i-1].Range.End})
	}

	if i < len(toks) && toks[i].Kind != lexer.TokenEOLLN && toks[i].Kind != lexer.TokenEOF {
		stmt.Instruction = strings.ToUpper(toks[i].Text)
		stmt.InstrRange = toRange(p.filename, toks[i].Range)
		i++
	}

	i = skipSpace(toks, i)

	// Everything from here to EOLLN/EOF is the deferred operand field,
	// reconstructed from original token text (preserving inter-token
	// spacing) so a reparse can re-lex it faithfully.
	start := i
	var sb strings.Builder
	var rangeStart, rangeEnd lexer.Position
	haveStart := false
	for ; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == lexer.TokenEOLLN || t.Kind == lexer.TokenEOF {
			break
		}
		if !haveStart {
			rangeStart = t.Range.Start
			haveStart = true
		} else if t.Range.Start.Line == rangeEnd.Line && t.Range.Start.Column > rangeEnd.Column {
			sb.WriteString(strings.Repeat(" ", t.Range.Start.Column-rangeEnd.Column))
		}
		sb.WriteString(t.Text)
		rangeEnd = t.Range.End
	}
	_ = start
	stmt.DeferredText = sb.String()
	if haveStart {
		stmt.DeferredRange = diag.Range{
			Start: diag.Position{File: p.filename, Line: rangeStart.Line, Column: rangeStart.Column},
			End:   diag.Position{File: p.filename, Line: rangeEnd.Line, Column: rangeEnd.Column},
		}
	}
	return stmt
}

func isLabelToken(t lexer.Token) bool {
	return t.Kind == lexer.TokenOrdinarySymbol || t.Kind == lexer.TokenIdentifier ||
		t.Kind == lexer.TokenDot || t.Kind == lexer.TokenAmpersand
}

func visibleTokens(tokens []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for _, t := range tokens {
		if t.Channel == lexer.ChannelHidden {
			continue
		}
		out = append(out, t)
	}
	return out
}

func skipSpace(toks []lexer.Token, i int) int {
	for i < len(toks) && toks[i].Kind == lexer.TokenSpace {
		i++
	}
	return i
}

func toRange(filename string, r lexer.Range) diag.Range {
	return diag.Range{
		Start: diag.Position{File: filename, Line: r.Start.Line, Column: r.Start.Column},
		End:   diag.Position{File: filename, Line: r.End.Line, Column: r.End.Column},
	}
}

// Reparse re-lexes a Deferred statement's operand field under the given
// processing form, producing a typed operand list and remark list
// (§4.B "Reparse mode"). If occurrence is absent, or form is
// unknown/ignored, it returns an empty operand list without re-lexing
// (§4.B "Reparse corner cases").
func (p *Parser) Reparse(stmt *Statement, form ProcessingForm) {
	if form.Occurrence == OperandAbsent || form.Form == FormUnknown || form.Form == FormIgnored {
		stmt.Operands = nil
		stmt.Remarks = nil
		stmt.Kind = KindResolved
		return
	}

	operandPart, remarkPart := splitOperandField(stmt.DeferredText)

	// A single comma alone is a legal "one comma, then remark" pattern:
	// parses as zero operands without diagnostic (§4.B, §8 boundary behaviors).
	if strings.TrimSpace(operandPart) == "," {
		stmt.Operands = nil
	} else {
		stmt.Operands = p.splitOperands(operandPart, stmt.DeferredRange)
	}
	stmt.Remarks = splitRemarks(remarkPart, stmt.DeferredRange)
	stmt.Kind = KindResolved
}

// splitOperandField separates the deferred text into the operand portion
// and the remark portion: the remark portion begins at the first
// depth-0, outside-quotes run of whitespace.
func splitOperandField(text string) (operand, remark string) {
	depth := 0
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
			// literal content, ignore
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ' ' && depth == 0:
			return text[:i], strings.TrimLeft(text[i:], " ")
		}
	}
	return text, ""
}

// splitOperands splits the operand portion on top-level (depth-0,
// outside-quotes) commas.
func (p *Parser) splitOperands(text string, base diag.Range) []Operand {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []Operand
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			out = append(out, Operand{Text: text[start:i], Range: base})
			start = i + 1
		}
	}
	out = append(out, Operand{Text: text[start:], Range: base})
	return out
}

func splitRemarks(text string, base diag.Range) []Remark {
	fields := strings.Fields(text)
	out := make([]Remark, 0, len(fields))
	for _, f := range fields {
		out = append(out, Remark{Text: f, Range: base})
	}
	return out
}

// ResplitAfterSubstitution re-splits a macro-call operand string after
// parameter substitution has produced a compound value, preserving
// sub-operand ranges via rangeProvider, which maps an offset within
// substituted back to its original source column (§4.B "Reparse corner
// cases").
func ResplitAfterSubstitution(substituted string, base diag.Range, rangeProvider func(offset int) diag.Position) []Operand {
	p := &Parser{}
	ops := p.splitOperands(substituted, base)
	for i := range ops {
		ops[i].RangeProvider = rangeProvider
	}
	return ops
}
