package statement

import (
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/lexer"
)

// Kind distinguishes the five structured-statement variants (§3
// "Statement (structured form)").
type Kind int

const (
	KindResolved Kind = iota
	KindDeferred
	KindPreprocessorSynthetic
	KindErrorCarrying
	KindEOF
)

// Operand is one parsed, typed operand (its shape depends on the
// processing form it was reparsed under; Text retains the source text for
// forms, like FormUnknown, that never typecheck it further).
type Operand struct {
	Text  string
	Range diag.Range
	// RangeProvider maps an offset within Text back to its original
	// source column, needed after macro-operand substitution has
	// rewritten the text (§4.B "Reparse corner cases").
	RangeProvider func(offset int) diag.Position
}

// Remark is one trailing comment word following the last operand.
type Remark struct {
	Text  string
	Range diag.Range
}

// Statement is the structured form a Deferred statement's operand field
// parses into. Label and Instruction are always resolved at Initial-mode
// parse time; Operands and Remarks are only populated once the field has
// been reparsed under a known ProcessingForm (§4.B).
type Statement struct {
	Kind Kind

	Label       string
	LabelRange  diag.Range
	Instruction string
	InstrRange  diag.Range

	// Deferred-mode fields: populated at Initial-mode parse time, consumed
	// by Reparse.
	DeferredText  string
	DeferredRange diag.Range

	// Resolved-mode fields: populated once Reparse has run.
	Operands []Operand
	Remarks  []Remark

	// AreadLine holds one raw physical line pulled directly from the
	// input stream via the AREAD facility, bypassing normal statement
	// parsing (supplemented from original_source's aread_time.cpp).
	AreadLine string

	Tokens []lexer.Token // the full token slice this statement was built from

	Diagnostics []diag.Diagnostic // present on KindErrorCarrying

	// ReparseCache memoizes this statement's (processing-form -> operands)
	// reparses (§4.E). Created lazily by the processing manager the first
	// time a Deferred statement needs reparsing.
	ReparseCache *Cache
}

// IsEOF reports whether this is the EOF-sentinel variant signalling
// provider exhaustion.
func (s *Statement) IsEOF() bool { return s.Kind == KindEOF }

// EOFSentinel builds the EOF-sentinel statement.
func EOFSentinel() *Statement { return &Statement{Kind: KindEOF} }
