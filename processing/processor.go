package processing

import (
	"strings"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/statement"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

// ProcessorKind tags which of the six statement-processor variants a
// Processor value holds (§4.G). Rather than modeling this as an
// interface hierarchy with six implementations (which Go has no
// inheritance to share state through anyway), Processor is a single
// tagged-variant record: one Kind field selects which of the
// kind-specific state pointers is live, and every method switches on
// Kind. This keeps the shared bookkeeping (the diagnostics stack frame,
// the owning provider kind) in one place instead of duplicated six ways.
type ProcessorKind int

const (
	ProcKindOrdinary ProcessorKind = iota
	ProcKindMacroDefinition
	ProcKindCopyDefinition
	ProcKindLookahead
	ProcKindPreprocessor
	ProcKindEmpty
)

func (k ProcessorKind) String() string {
	switch k {
	case ProcKindOrdinary:
		return "ordinary"
	case ProcKindMacroDefinition:
		return "macro-definition"
	case ProcKindCopyDefinition:
		return "copy-definition"
	case ProcKindLookahead:
		return "lookahead"
	case ProcKindPreprocessor:
		return "preprocessor"
	default:
		return "empty"
	}
}

// LookaheadKind distinguishes the two lookahead purposes (§4.H).
type LookaheadKind int

const (
	LookaheadSequence LookaheadKind = iota
	LookaheadOrdinary
)

// MacroDefState is live for ProcKindMacroDefinition: collecting a
// MACRO...MEND body into a MacroDefinition rather than executing it.
type MacroDefState struct {
	Def        *symbols.MacroDefinition
	sawProto   bool
	bodyOffset int
}

// CopyDefState is live for ProcKindCopyDefinition: a COPY member's
// statements are being read, but interpreted exactly the way Delegate
// would interpret them (ordinary execution, or macro-body capture if
// the COPY appeared inside a MACRO/MEND). §4.G lists this as its own
// processor only because the diagnostics-stack bookkeeping (entering and
// leaving the copy member) has to happen somewhere; the interpretation
// itself is forwarded.
type CopyDefState struct {
	Delegate *Processor
	Member   string
}

// LookaheadState is live for ProcKindLookahead: scanning statements
// without normal side effects, hunting for a sequence symbol or
// resolving an ordinary symbol's attributes (§4.H "Sequence lookahead",
// "Attribute lookahead").
type LookaheadState struct {
	Kind     LookaheadKind
	Target   string
	Found    bool
	Sink     *diag.Collector // diagnostics observed during the scan; discarded unless promoted
	OnFound  func(*statement.Statement)
	StopScan bool // true once the scan should stop feeding the underlying provider further
}

// Processor is the tagged-variant statement consumer described above.
type Processor struct {
	Kind ProcessorKind

	// OwningProviderKind is the provider this processor was pushed
	// alongside (empty/zero for the root ordinary processor, which owns
	// open code implicitly). TerminalCondition compares against it.
	OwningProviderKind ProviderKind
	HasOwner           bool

	MacroDef   *MacroDefState
	CopyDef    *CopyDefState
	Lookahead  *LookaheadState
	macroFrame *symbols.Frame // set when this processor is executing a macro invocation body
}

// NewOrdinaryProcessor returns the processor that performs normal
// statement execution (symbol definition, instruction dispatch, CA
// branching).
func NewOrdinaryProcessor() *Processor { return &Processor{Kind: ProcKindOrdinary} }

// NewMacroDefinitionProcessor returns a processor that captures a
// MACRO...MEND body instead of executing it.
func NewMacroDefinitionProcessor(def *symbols.MacroDefinition) *Processor {
	return &Processor{Kind: ProcKindMacroDefinition, MacroDef: &MacroDefState{Def: def}}
}

// NewCopyDefinitionProcessor wraps delegate with copy-member bookkeeping.
func NewCopyDefinitionProcessor(delegate *Processor, member string) *Processor {
	return &Processor{
		Kind:               ProcKindCopyDefinition,
		OwningProviderKind: ProviderCopy,
		HasOwner:           true,
		CopyDef:            &CopyDefState{Delegate: delegate, Member: member},
	}
}

// NewLookaheadProcessor returns a processor that scans for target
// without normal effects.
func NewLookaheadProcessor(kind LookaheadKind, target string) *Processor {
	return &Processor{Kind: ProcKindLookahead, Lookahead: &LookaheadState{
		Kind: kind, Target: target, Sink: diag.NewCollector(),
	}}
}

// NewEmptyProcessor returns the inert base-of-stack processor: it
// accepts statements and does nothing, used only to guarantee the
// processor stack is never empty.
func NewEmptyProcessor() *Processor { return &Processor{Kind: ProcKindEmpty} }

// TerminalCondition reports whether this processor should be finalized
// and popped once a provider of kind k is exhausted (§4.H main loop).
func (p *Processor) TerminalCondition(k ProviderKind) bool {
	if !p.HasOwner {
		return k == ProviderOpenCode
	}
	return k == p.OwningProviderKind
}

// ProcessStatement feeds one statement to the processor. The returned
// done is true once this processor's own termination statement (MEND
// for macro-definition, the lookahead target for lookahead) has been
// seen, signalling the manager to finalize and pop it.
func (p *Processor) ProcessStatement(mgr *Manager, stmt *statement.Statement) (done bool) {
	if stmt.IsEOF() {
		return true
	}
	switch p.Kind {
	case ProcKindOrdinary:
		mgr.processOrdinary(stmt)
		return false
	case ProcKindMacroDefinition:
		return mgr.processMacroDefinition(p.MacroDef, stmt)
	case ProcKindCopyDefinition:
		return p.CopyDef.Delegate.ProcessStatement(mgr, stmt)
	case ProcKindLookahead:
		return mgr.processLookahead(p.Lookahead, stmt)
	case ProcKindPreprocessor:
		mgr.processOrdinary(stmt)
		return false
	default:
		return false
	}
}

// instructionUpper returns the statement's instruction in upper case, or
// "" if absent.
func instructionUpper(s *statement.Statement) string {
	return strings.ToUpper(s.Instruction)
}
