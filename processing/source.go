// Package processing implements the statement-provider / processor
// cooperative pipeline that drives an assembly (spec components 4.F,
// 4.G, 4.H): open code, COPY members and macro bodies are each a
// provider of statements; an ordinary/macro-definition/copy-definition/
// lookahead/preprocessor/empty processor consumes them.
package processing

import (
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/lexer"
	"github.com/lookbusy1344/hlasm-ls/statement"
)

// ParseSource lexes source in full and splits the token stream into
// Initial-mode statements at each logical-line boundary (TokenEOLLN/
// TokenEOF). It is the entry point every provider uses to turn raw text
// (the open-code file, a COPY member, a macro body) into a statement
// sequence.
func ParseSource(source, filename string, diags *diag.Collector, opts ...lexer.Option) []*statement.Statement {
	lx := lexer.New(source, filename, diags, opts...)
	toks := lx.Tokenize()
	p := statement.New(filename, diags, lexer.DefaultColumns().Begin)

	var out []*statement.Statement
	var cur []lexer.Token
	for _, t := range toks {
		cur = append(cur, t)
		if t.Kind == lexer.TokenEOLLN || t.Kind == lexer.TokenEOF {
			if t.Kind == lexer.TokenEOF && len(cur) == 1 {
				break
			}
			out = append(out, p.ParseInitial(cur))
			cur = nil
		}
	}
	return out
}
