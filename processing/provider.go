package processing

import "github.com/lookbusy1344/hlasm-ls/statement"

// ProviderKind is a statement provider's priority class (§4.F). Higher
// priority providers are drained first: a macro body being expanded
// takes precedence over the COPY member that invoked it, which in turn
// takes precedence over a preprocessor, which takes precedence over
// open code.
type ProviderKind int

const (
	ProviderOpenCode ProviderKind = iota
	ProviderPreprocessor
	ProviderCopy
	ProviderMacro
)

// priorityOrder lists provider kinds from highest to lowest priority,
// the order the manager polls them in.
var priorityOrder = []ProviderKind{ProviderMacro, ProviderCopy, ProviderPreprocessor, ProviderOpenCode}

// Provider yields one statement at a time from some source (open code, a
// COPY member, a macro body, a preprocessor). It is the unit the manager
// restarts/rewinds for AGO/AIF jumps and sequence lookahead (§4.F).
type Provider interface {
	Kind() ProviderKind
	Name() string
	// GetNext returns the next statement, or the EOF sentinel once
	// exhausted.
	GetNext() *statement.Statement
	Finished() bool
}

// listProvider is the shared backing for every provider in this package:
// all four are, underneath, "play back this slice of pre-split
// statements, with the ability to jump to an arbitrary index" (AGO/AIF
// targets and sequence-lookahead restarts are both index jumps).
type listProvider struct {
	kind  ProviderKind
	name  string
	stmts []*statement.Statement
	pos   int
}

func (p *listProvider) Kind() ProviderKind { return p.kind }
func (p *listProvider) Name() string       { return p.name }

func (p *listProvider) Finished() bool { return p.pos >= len(p.stmts) }

func (p *listProvider) GetNext() *statement.Statement {
	if p.pos >= len(p.stmts) {
		return statement.EOFSentinel()
	}
	s := p.stmts[p.pos]
	p.pos++
	return s
}

// Jump moves the read cursor to index, the mechanism behind AGO/AIF
// branches and sequence-lookahead restarts (§4.H). index may equal
// len(stmts) to land exactly at EOF.
func (p *listProvider) Jump(index int) {
	if index < 0 {
		index = 0
	}
	if index > len(p.stmts) {
		index = len(p.stmts)
	}
	p.pos = index
}

// Mark returns the current read position, for a sequence lookahead that
// needs to restore it after scanning ahead and failing to find its
// target.
func (p *listProvider) Mark() int { return p.pos }

// StatementsFrom returns the statements from idx to the end without
// moving the read cursor, the view attribute lookahead scans over.
func (p *listProvider) StatementsFrom(idx int) []*statement.Statement {
	if idx < 0 {
		idx = 0
	}
	if idx > len(p.stmts) {
		return nil
	}
	return p.stmts[idx:]
}

// IndexOfSequence finds the statement index whose label is name
// (case-exact), used to resolve an AGO/AIF/sequence-lookahead target
// already present in the already-lexed provider.
func (p *listProvider) IndexOfSequence(name string) (int, bool) {
	for i, s := range p.stmts {
		if s.Label == name {
			return i, true
		}
	}
	return 0, false
}

// OpenCodeProvider plays back the main source file's statements.
type OpenCodeProvider struct{ listProvider }

// NewOpenCodeProvider wraps a pre-split statement slice as the open-code
// provider.
func NewOpenCodeProvider(name string, stmts []*statement.Statement) *OpenCodeProvider {
	return &OpenCodeProvider{listProvider{kind: ProviderOpenCode, name: name, stmts: stmts}}
}

// MacroProvider plays back one macro invocation's substituted body.
type MacroProvider struct{ listProvider }

// NewMacroProvider wraps an invocation's already-substituted body
// statements.
func NewMacroProvider(macroName string, stmts []*statement.Statement) *MacroProvider {
	return &MacroProvider{listProvider{kind: ProviderMacro, name: macroName, stmts: stmts}}
}

// CopyProvider plays back one COPY member's statements.
type CopyProvider struct{ listProvider }

// NewCopyProvider wraps a fetched COPY member's statements.
func NewCopyProvider(memberName string, stmts []*statement.Statement) *CopyProvider {
	return &CopyProvider{listProvider{kind: ProviderCopy, name: memberName, stmts: stmts}}
}

// PreprocessorProvider plays back preprocessor-synthesized statements,
// including ones inserted by AINSERT (§4.H "AINSERT").
type PreprocessorProvider struct{ listProvider }

// NewPreprocessorProvider wraps a synthetic statement queue.
func NewPreprocessorProvider(stmts []*statement.Statement) *PreprocessorProvider {
	return &PreprocessorProvider{listProvider{kind: ProviderPreprocessor, name: "preprocessor", stmts: stmts}}
}

// InsertFront splices statements at the current read position so they
// are consumed next, implementing AINSERT's FRONT option.
func (p *PreprocessorProvider) InsertFront(stmts []*statement.Statement) {
	tail := append([]*statement.Statement{}, p.stmts[p.pos:]...)
	p.stmts = append(p.stmts[:p.pos], append(stmts, tail...)...)
}

// InsertBack appends statements to the end of the queue, implementing
// AINSERT's BACK option (the default).
func (p *PreprocessorProvider) InsertBack(stmts []*statement.Statement) {
	p.stmts = append(p.stmts, stmts...)
}
