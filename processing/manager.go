package processing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lookbusy1344/hlasm-ls/config"
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/expr"
	"github.com/lookbusy1344/hlasm-ls/library"
	"github.com/lookbusy1344/hlasm-ls/statement"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

// Manager is the processing manager (§4.H): it owns the provider/
// processor stacks and drives the single-threaded cooperative main
// loop. There is one Manager per analyzed source file.
//
// The "cooperative coroutine" model §5 describes maps onto a single Go
// goroutine calling blocking library-provider methods directly: a
// blocking call on one goroutine already is a suspension point, so no
// emulation of async/await is needed, and the manager's state never
// needs a mutex (nothing else touches it concurrently).
type Manager struct {
	Store   *symbols.Store
	Diags   *diag.Collector
	Library library.Provider

	// Validator is the external machine-instruction operand-validity
	// checker (§1 "Deliberately out of scope"); NoopValidator when unset.
	Validator InstructionValidator
	// Available is the instruction-set version bitfield the active
	// MACHINE/OPTABLE assembler option resolved to, passed through to
	// Validator on every machine-instruction dispatch.
	Available config.InstructionSetVersion

	filename string

	openCode       *OpenCodeProvider
	macroProviders []*MacroProvider
	copyProviders  []*CopyProvider
	preprocessor   *PreprocessorProvider

	processorStack []*Processor

	StatementCount int

	// ctx is sampled at every main-loop iteration and before every
	// library fetch (§5 "Cancellation"); set by Run, defaulted to
	// context.Background() so a Manager driven by direct Step calls
	// (tests) still behaves.
	ctx context.Context
}

// NewManager builds a manager over a file's open-code statement stream.
func NewManager(filename string, openCodeStmts []*statement.Statement, store *symbols.Store, diags *diag.Collector, lib library.Provider) *Manager {
	if lib == nil {
		lib = library.Empty{}
	}
	m := &Manager{
		Store:     store,
		Diags:     diags,
		Library:   lib,
		Validator: NoopValidator{},
		Available: config.VersionAll,
		filename:  filename,
		openCode:  NewOpenCodeProvider(filename, openCodeStmts),
		ctx:       context.Background(),
	}
	m.processorStack = []*Processor{NewOrdinaryProcessor()}
	return m
}

// ProcessorStack returns the live processor stack, outer (root ordinary
// processor) first, for editor/inspector "what am I inside of right now"
// displays. Callers must not mutate the returned slice.
func (m *Manager) ProcessorStack() []*Processor { return m.processorStack }

func (m *Manager) topProcessor() *Processor {
	if len(m.processorStack) == 0 {
		return nil
	}
	return m.processorStack[len(m.processorStack)-1]
}

func (m *Manager) pushProcessor(p *Processor) { m.processorStack = append(m.processorStack, p) }

func (m *Manager) popProcessor() *Processor {
	if len(m.processorStack) == 0 {
		return nil
	}
	p := m.processorStack[len(m.processorStack)-1]
	m.processorStack = m.processorStack[:len(m.processorStack)-1]
	return p
}

// activeProvider returns the highest-priority provider that still has
// statements, or nil if every provider is exhausted.
func (m *Manager) activeProvider() Provider {
	if n := len(m.macroProviders); n > 0 && !m.macroProviders[n-1].Finished() {
		return m.macroProviders[n-1]
	}
	if n := len(m.copyProviders); n > 0 && !m.copyProviders[n-1].Finished() {
		return m.copyProviders[n-1]
	}
	if m.preprocessor != nil && !m.preprocessor.Finished() {
		return m.preprocessor
	}
	if m.openCode != nil && !m.openCode.Finished() {
		return m.openCode
	}
	return nil
}

// anyProviderLeft reports whether a provider with unread statements
// still exists anywhere (used to tell "nothing left at all" from
// "current provider only just ran dry").
func (m *Manager) anyProviderLeft() bool { return m.activeProvider() != nil }

func (m *Manager) popExhausted(kind ProviderKind) {
	switch kind {
	case ProviderMacro:
		if n := len(m.macroProviders); n > 0 {
			m.macroProviders = m.macroProviders[:n-1]
		}
	case ProviderCopy:
		if n := len(m.copyProviders); n > 0 {
			m.copyProviders = m.copyProviders[:n-1]
		}
	case ProviderPreprocessor:
		m.preprocessor = nil
	case ProviderOpenCode:
		// open code never gets removed; Finished() just stays true.
	}
}

// Step runs one iteration of the main loop (§4.H). done is true once the
// whole analysis has finished (processor stack drained to empty).
func (m *Manager) Step() (done bool) {
	top := m.topProcessor()
	if top == nil {
		return true
	}

	prov := m.activeProvider()
	if prov == nil {
		m.finalizeAndPop()
		return m.topProcessor() == nil
	}

	if prov.Finished() {
		kind := prov.Kind()
		m.popExhausted(kind)
		if top.TerminalCondition(kind) {
			m.finalizeAndPop()
		}
		return m.topProcessor() == nil && !m.anyProviderLeft()
	}

	stmt := prov.GetNext()
	m.StatementCount++
	if top.ProcessStatement(m, stmt) {
		m.finalizeAndPop()
	}
	return false
}

// Run drives Step to completion, bounded by maxSteps as a runaway
// safety net (a malformed AGO/AIF loop with an intact ACTR budget could
// otherwise spin forever). ctx is sampled before every iteration and
// before every library fetch (§5 "Cancellation"); once it is done, Run
// stops and the caller must discard the Manager and its Store rather
// than trust a partial analysis. A nil ctx behaves as
// context.Background().
func (m *Manager) Run(ctx context.Context, maxSteps int) {
	if ctx == nil {
		ctx = context.Background()
	}
	m.ctx = ctx
	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			m.Diags.Add(diag.Errorf("A998", diag.Range{}, "analysis cancelled: %v", err))
			return
		}
		if m.Step() {
			return
		}
	}
	m.Diags.Add(diag.Errorf("A999", diag.Range{}, "processing aborted: statement budget exceeded"))
}

// finalizeAndPop pops the top processor, running any kind-specific
// cleanup (leaving a macro invocation releases its frame and diagnostics
// stack entry; leaving copy-definition bookkeeping pops its diagnostics
// frame).
func (m *Manager) finalizeAndPop() {
	p := m.popProcessor()
	if p == nil {
		return
	}
	switch p.Kind {
	case ProcKindCopyDefinition:
		m.Diags.PopFrame()
	case ProcKindOrdinary:
		if p.HasOwner && p.OwningProviderKind == ProviderMacro && p.macroFrame != nil {
			if top := m.Store.Frames.Top(); top == p.macroFrame {
				m.Store.Frames.Pop()
				m.Diags.PopFrame()
			}
		}
	}
}

// activeSequenceProvider returns the provider AGO/AIF sequence targets
// are resolved against: the innermost macro body if one is executing,
// else open code (COPY members don't carry their own sequence
// namespace; their statements are already spliced into whichever
// provider activated them at the point they're pushed).
func (m *Manager) activeSequenceProvider() jumpable {
	if n := len(m.macroProviders); n > 0 {
		return m.macroProviders[n-1]
	}
	return m.openCode
}

type jumpable interface {
	IndexOfSequence(name string) (int, bool)
	Jump(index int)
	Mark() int
	StatementsFrom(int) []*statement.Statement
}

// classifyForm maps an instruction mnemonic to the operand grammar it
// reparses under (§4.B "Processing form"). Machine instructions are the
// default; this table only needs to single out the forms with distinct
// operand grammars.
func classifyForm(instr string) statement.Form {
	switch instr {
	case "":
		return statement.FormIgnored
	case "MACRO", "MEND", "MEXIT":
		return statement.FormIgnored
	case "COPY":
		return statement.FormAsmGeneric
	case "AIF", "AGO", "ACTR", "SETA", "SETB", "SETC",
		"GBLA", "GBLB", "GBLC", "LCLA", "LCLB", "LCLC", "ANOP", "AREAD", "AINSERT":
		return statement.FormConditionalAssembly
	case "DC", "DS":
		return statement.FormDataDef
	case "USING", "DROP":
		return statement.FormAsmUsing
	case "END":
		return statement.FormAsmEnd
	case "EQU", "CSECT", "DSECT", "START", "TITLE", "PRINT", "SPACE", "EJECT", "ICTL", "ISEQ", "PUNCH", "REPRO":
		return statement.FormAsmGeneric
	default:
		// a macro call reparses identically to a generic assembler
		// statement (comma-separated operands); the manager distinguishes
		// macro calls from machine instructions afterward, by store lookup.
		return statement.FormMachine
	}
}

// reparse applies the statement cache (§4.E) to resolve a deferred
// statement's operand field under form.
func (m *Manager) reparse(stmt *statement.Statement, form statement.ProcessingForm) {
	if stmt.Kind != statement.KindDeferred && stmt.ReparseCache == nil {
		return
	}
	if stmt.ReparseCache == nil {
		stmt.ReparseCache = statement.NewCache()
	}
	ops, remarks, diags := stmt.ReparseCache.Get(form.CacheKey(), func() ([]statement.Operand, []statement.Remark, []diag.Diagnostic) {
		local := diag.NewCollector()
		p := statement.New(m.filename, local, 0)
		tmp := *stmt
		p.Reparse(&tmp, form)
		return tmp.Operands, tmp.Remarks, local.All()
	})
	stmt.Operands = ops
	stmt.Remarks = remarks
	stmt.Kind = statement.KindResolved
	for _, d := range diags {
		m.Diags.Add(d)
	}
}

// processOrdinary implements ordinary statement processing (§4.G
// "Ordinary processor"): symbol table maintenance and instruction
// dispatch.
func (m *Manager) processOrdinary(stmt *statement.Statement) {
	instr := instructionUpper(stmt)
	occ := statement.OperandAbsent
	if strings.TrimSpace(stmt.DeferredText) != "" {
		occ = statement.OperandPresent
	}
	form := statement.ProcessingForm{Kind: statement.ProcOrdinary, Form: classifyForm(instr), Occurrence: occ}
	m.reparse(stmt, form)

	if stmt.Label != "" {
		if strings.HasPrefix(stmt.Label, ".") {
			m.defineSequenceSymbol(stmt)
		} else if instr != "MACRO" {
			m.defineOrdinarySymbol(stmt, instr)
		}
	}

	switch instr {
	case "MACRO":
		m.beginMacroDefinition(stmt)
	case "COPY":
		if len(stmt.Operands) > 0 {
			m.ActivateCopy(strings.TrimSpace(stmt.Operands[0].Text))
		}
	case "AIF":
		m.execAIF(stmt)
	case "AGO":
		m.execAGO(stmt)
	case "ACTR":
		m.execACTR(stmt)
	case "SETA", "SETB", "SETC":
		m.execSET(stmt, instr)
	case "GBLA", "GBLB", "GBLC":
		m.execDecl(stmt, instr, symbols.ScopeGlobal)
	case "LCLA", "LCLB", "LCLC":
		m.execDecl(stmt, instr, symbols.ScopeLocal)
	case "AREAD":
		m.execAREAD(stmt)
	case "AINSERT":
		m.execAINSERT(stmt)
	default:
		if def, ok := m.Store.LookupMacro(instr); ok {
			m.InvokeMacro(def, stmt)
		} else if instr != "" {
			m.validateMachineInstruction(stmt, instr)
		}
	}
}

// validateMachineInstruction hands a reparsed machine-instruction
// statement to the configured InstructionValidator (§1 "the individual
// machine-instruction operand-validity checkers... specified only as a
// trait the pipeline consults"). Findings are re-stamped with the
// statement's operand range before joining the diagnostic collector.
func (m *Manager) validateMachineInstruction(stmt *statement.Statement, instr string) {
	if m.Validator == nil {
		return
	}
	for _, v := range m.Validator.Validate(instr, stmt.Operands, m.Available) {
		rng := stmt.DeferredRange
		if v.OperandIndex >= 0 && v.OperandIndex < len(stmt.Operands) {
			rng = stmt.Operands[v.OperandIndex].Range
		}
		m.Diags.Add(diag.New(v.Code, diag.SeverityError, rng, v.Message))
	}
}

func (m *Manager) defineOrdinarySymbol(stmt *statement.Statement, instr string) {
	attrs := symbols.Attributes{Type: 'U'}
	switch instr {
	case "DC", "DS":
		attrs.Type = 'U' // refined by the data-definition evaluator once operand typing is wired in
	case "EQU":
		attrs.Type = 'U'
	default:
		attrs.Type = 'I' // instruction/ordinary-label default
	}
	if err := m.Store.Ordinary.Define("", stmt.Label, 0, attrs); err != nil {
		m.Diags.Add(diag.Errorf("E033", stmt.LabelRange, "%v", err))
	}
}

// processLookahead implements the lookahead processor (§4.G "Lookahead
// processor"): it observes statements purely to find Target, routing any
// diagnostics it would otherwise raise into a discard sink instead of
// the real collector (§4.J "Collectors can be silenced").
func (m *Manager) processLookahead(st *LookaheadState, stmt *statement.Statement) (done bool) {
	switch st.Kind {
	case LookaheadSequence:
		if !strings.HasPrefix(stmt.Label, ".") {
			return false
		}
		if stmt.Label == "."+st.Target {
			st.Found = true
			if st.OnFound != nil {
				st.OnFound(stmt)
			}
			return true
		}
		// A label the scan passes over that already names a differently
		// positioned sequence symbol is a provisional redefinition: it is
		// only real if this lookahead never reaches its own target by
		// another path (§3, §8 scenario 2).
		cand := &symbols.SequenceSymbol{
			Name: stmt.Label,
			Location: symbols.Location{
				File: stmt.LabelRange.Start.File, Line: stmt.LabelRange.Start.Line, Column: stmt.LabelRange.Start.Column,
			},
			Kind: symbols.SequenceOpenCode,
		}
		if redefined, msg := m.Store.Sequence.Define(cand); redefined {
			m.Store.Sequence.QueuePending(stmt.Label, msg)
		}
	case LookaheadOrdinary:
		if stmt.Label == st.Target {
			attrs := symbols.Attributes{Type: 'U', Defined: true}
			m.Store.Ordinary.Define("", st.Target, 0, attrs)
			st.Found = true
			if st.OnFound != nil {
				st.OnFound(stmt)
			}
			return true
		}
	}
	return false
}

func (m *Manager) defineSequenceSymbol(stmt *statement.Statement) {
	sym := &symbols.SequenceSymbol{
		Name: stmt.Label,
		Location: symbols.Location{
			File: stmt.LabelRange.Start.File, Line: stmt.LabelRange.Start.Line, Column: stmt.LabelRange.Start.Column,
		},
		Kind: symbols.SequenceOpenCode,
	}
	if m.Store.Frames.Top() != nil {
		sym.Kind = symbols.SequenceMacro
		sym.StatementOffset = m.StatementCount
	}
	if redefined, msg := m.Store.Sequence.Define(sym); redefined {
		m.Diags.Add(diag.Errorf("E045", stmt.LabelRange, "%s", msg))
	}
}

func (m *Manager) beginMacroDefinition(protoStmt *statement.Statement) {
	// the MACRO statement itself names no macro; the prototype ("[&label]
	// NAME [&p1,&p2,...]") is the next statement, so the definition
	// processor learns the name the first time it is invoked.
	m.pushProcessor(&Processor{Kind: ProcKindMacroDefinition, MacroDef: &MacroDefState{Def: symbols.NewMacroDefinition("")}})
}

// processMacroDefinition captures MACRO...MEND body text (§4.G
// "Macro-definition processor").
func (m *Manager) processMacroDefinition(st *MacroDefState, stmt *statement.Statement) (done bool) {
	instr := instructionUpper(stmt)

	if st.Def.Name == "" && !st.sawProto {
		// this is the prototype statement: "[&label] NAME [&p1,&p2,...]"
		st.sawProto = true
		st.Def.Name = instr
		st.Def.PrototypeLabel = stmt.Label
		for _, op := range stmt.Operands {
			text := strings.TrimSpace(op.Text)
			if text == "" {
				continue
			}
			if eq := strings.IndexByte(text, '='); eq >= 0 {
				st.Def.Keyword[strings.ToUpper(text[:eq])] = text[eq+1:]
			} else {
				st.Def.Positional = append(st.Def.Positional, strings.ToUpper(text))
			}
		}
		return false
	}

	switch instr {
	case "MACRO":
		st.nested()
		st.Def.Body = append(st.Def.Body, reconstructLine(stmt))
		return false
	case "MEND":
		if st.unnest() {
			st.Def.Body = append(st.Def.Body, reconstructLine(stmt))
			return false
		}
		m.Store.DefineMacro(st.Def)
		return true
	}

	if strings.HasPrefix(stmt.Label, ".") {
		st.Def.Sequences[stmt.Label] = &symbols.SequenceSymbol{
			Name: stmt.Label, Kind: symbols.SequenceMacro, StatementOffset: len(st.Def.Body),
		}
	}
	st.Def.Body = append(st.Def.Body, reconstructLine(stmt))
	return false
}

func (st *MacroDefState) nested() { st.bodyOffset++ }
func (st *MacroDefState) unnest() bool {
	if st.bodyOffset > 0 {
		st.bodyOffset--
		return true
	}
	return false
}

// reconstructLine rebuilds an approximate source line from a statement's
// structured fields (label, instruction, deferred operand text), good
// enough to re-lex after macro-parameter substitution; exact column
// placement of the original line is not preserved.
func reconstructLine(stmt *statement.Statement) string {
	var sb strings.Builder
	if stmt.Label != "" {
		sb.WriteString(stmt.Label)
		sb.WriteString(" ")
	} else {
		// keep the instruction out of the label column when re-lexed
		sb.WriteString(" ")
	}
	if stmt.Instruction != "" {
		sb.WriteString(stmt.Instruction)
		sb.WriteString(" ")
	}
	sb.WriteString(stmt.DeferredText)
	return sb.String()
}

// execDecl handles GBLx/LCLx declarations.
func (m *Manager) execDecl(stmt *statement.Statement, instr string, scope symbols.Scope) {
	t := setTypeOf(instr)
	target := m.Store.CurrentScope()
	if scope == symbols.ScopeGlobal {
		target = m.Store.Global
	}
	for _, op := range stmt.Operands {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimSuffix(op.Text, "()")))
		if name == "" {
			continue
		}
		target.Declare(name, t, scope)
	}
}

func setTypeOf(instr string) symbols.SetType {
	switch instr[len(instr)-1] {
	case 'A':
		return symbols.SetA
	case 'B':
		return symbols.SetB
	default:
		return symbols.SetC
	}
}

// execSET handles SETA/SETB/SETC assignment.
func (m *Manager) execSET(stmt *statement.Statement, instr string) {
	if stmt.Label == "" || len(stmt.Operands) == 0 {
		m.Diags.Add(diag.Errorf("E050", stmt.InstrRange, "%s requires a variable label and a value", instr))
		return
	}
	t := setTypeOf(instr)
	scope := m.Store.CurrentScope()
	v, ok := scope.Lookup(stmt.Label)
	if !ok {
		v = scope.Declare(stmt.Label, t, symbols.ScopeLocal)
	}
	ctx := m.caContext(stmt.InstrRange)
	node, err := expr.ParseCA(stmt.Operands[0].Text)
	if err != nil {
		m.Diags.Add(diag.Errorf("CE050", stmt.Operands[0].Range, "%v", err))
		return
	}
	val := expr.EvalCA(ctx, node)
	if val.Kind == expr.KindSentinel {
		return
	}
	setVal := setValueOf(t, val)
	if err := v.Set(setVal); err != nil {
		m.Diags.Add(diag.Errorf("E051", stmt.Operands[0].Range, "%v", err))
	}
}

func setValueOf(t symbols.SetType, v expr.Value) symbols.SetValue {
	switch t {
	case symbols.SetA:
		return symbols.SetValue{Type: symbols.SetA, A: v.Int}
	case symbols.SetB:
		return symbols.SetValue{Type: symbols.SetB, B: v.Bool || (v.Kind == expr.KindInt && v.Int != 0)}
	default:
		return symbols.SetValue{Type: symbols.SetC, C: v.Char}
	}
}

// execAIF evaluates an AIF's boolean condition, written as
// "(condition).TARGET", and branches if true.
func (m *Manager) execAIF(stmt *statement.Statement) {
	text := ""
	if len(stmt.Operands) > 0 {
		text = strings.TrimSpace(stmt.Operands[0].Text)
	}
	depth, end := 0, -1
	for i := 0; i < len(text) && end < 0; i++ {
		if text[i] == '(' {
			depth++
		} else if text[i] == ')' {
			if depth--; depth == 0 {
				end = i
			}
		}
	}
	if !strings.HasPrefix(text, "(") || end < 0 || !strings.HasPrefix(text[end+1:], ".") {
		m.Diags.Add(diag.Errorf("E052", stmt.InstrRange, "AIF requires (condition).target"))
		return
	}
	condText := text[1:end]
	node, err := expr.ParseCA(condText)
	if err != nil {
		m.Diags.Add(diag.Errorf("CE051", stmt.Operands[0].Range, "%v", err))
		return
	}
	val := expr.EvalCA(m.caContext(stmt.Operands[0].Range), node)
	if val.Kind != expr.KindBool || !val.Bool {
		return
	}
	m.Branch(strings.TrimSpace(text[end+2:]), stmt.InstrRange)
}

// execAGO performs an unconditional branch.
func (m *Manager) execAGO(stmt *statement.Statement) {
	if len(stmt.Operands) == 0 {
		m.Diags.Add(diag.Errorf("E053", stmt.InstrRange, "AGO requires a sequence target"))
		return
	}
	target := strings.TrimSpace(stmt.Operands[0].Text)
	m.Branch(strings.TrimPrefix(target, "."), stmt.InstrRange)
}

// execACTR resets the active macro frame's branch counter.
func (m *Manager) execACTR(stmt *statement.Statement) {
	f := m.Store.Frames.Top()
	if f == nil || len(stmt.Operands) == 0 {
		return
	}
	node, err := expr.ParseCA(stmt.Operands[0].Text)
	if err != nil {
		return
	}
	val := expr.EvalCA(m.caContext(stmt.Operands[0].Range), node)
	if val.Kind == expr.KindInt {
		f.BranchCount = int(val.Int)
	}
}

// Branch implements AGO/AIF's jump mechanism (§4.H "AGO / AIF / AIF-jump"):
// locate the sequence symbol in the active sequence-target provider (the
// current macro body, or open code), move that provider's read cursor,
// and, only for a backward branch (target at or before the current
// position), charge the invoking frame's branch counter. A forward
// branch — skipping ahead, never looping — never decrements it; a macro
// that only ever skips forward (e.g. a chain of forward AIFs) must not
// be able to exhaust ACTR.
func (m *Manager) Branch(target string, at diag.Range) {
	prov := m.activeSequenceProvider()
	fromIdx := prov.Mark()
	idx, ok := prov.IndexOfSequence("." + target)
	backward := ok && idx <= fromIdx
	if !ok {
		var found jumpable
		found, idx, ok = m.lookaheadSequence(prov, target, at)
		if !ok {
			m.Diags.Add(diag.Errorf("E047", at, "sequence symbol %q not found", target))
			return
		}
		prov = found // crossing into a freshly activated COPY member is always a forward branch
	}
	if backward {
		if f := m.Store.Frames.Top(); f != nil {
			if err := f.DecrementBranch(); err != nil {
				m.Diags.Add(diag.Errorf("E073", at, "%v", err))
				return
			}
		}
	}
	prov.Jump(idx)
}

// lookaheadSequence implements sequence lookahead (§4.H "Sequence
// lookahead"): scan forward from prov's current position, following any
// COPY statement it crosses, for a statement labelled target. The scan
// runs through a dedicated lookahead processor so it never applies real
// semantic side effects (symbol definition, AGO/AIF, SET assignment);
// any sequence-symbol redefinition it observes along the way is queued
// rather than reported immediately, and only committed as a real
// diagnostic once the scan exhausts every path without reaching target
// (§3, §8 scenario 2).
func (m *Manager) lookaheadSequence(prov jumpable, target string, at diag.Range) (jumpable, int, bool) {
	lp := NewLookaheadProcessor(LookaheadSequence, target)
	base := prov.Mark()
	for i, s := range prov.StatementsFrom(base) {
		// target cannot be among prov's own statements here: Branch
		// already ran IndexOfSequence over all of them before calling in.
		lp.ProcessStatement(m, s)
		if instructionUpper(s) == "COPY" {
			// statements ahead of the cursor are usually not reparsed yet
			member := strings.TrimSpace(s.DeferredText)
			if len(s.Operands) > 0 {
				member = strings.TrimSpace(s.Operands[0].Text)
			}
			if cp, idx, ok := m.lookaheadIntoCopy(lp, member, target); ok {
				m.Store.Sequence.DiscardPending()
				// the COPY statement itself is consumed by following it;
				// once cp runs dry, prov must resume just past it, not
				// re-activate the same member for real a second time.
				prov.Jump(base + i + 1)
				return cp, idx, true
			}
		}
	}
	for _, pr := range m.Store.Sequence.CommitPending() {
		m.Diags.Add(diag.Errorf("E045", at, "%s", pr.Message))
	}
	return nil, 0, false
}

// lookaheadIntoCopy fetches member speculatively (without the
// diagnostics-frame/provider bookkeeping a real COPY activation performs)
// and scans its statements for target. On success it performs the real
// activation, so the provider it returns is the one the main loop will
// actually resume reading from.
func (m *Manager) lookaheadIntoCopy(lp *Processor, member, target string) (jumpable, int, bool) {
	if member == "" || m.ctx.Err() != nil {
		return nil, 0, false
	}
	src, ok, err := m.Library.GetLibrary(m.ctx, member)
	if err != nil || !ok {
		return nil, 0, false
	}
	stmts := ParseSource(src.Text, src.Location, diag.NewCollector())
	for _, s := range stmts {
		if lp.ProcessStatement(m, s) {
			m.ActivateCopy(member)
			cp := m.copyProviders[len(m.copyProviders)-1]
			idx, _ := cp.IndexOfSequence("." + target)
			return cp, idx, true
		}
	}
	return nil, 0, false
}

// ActivateCopy implements COPY activation (§4.H "COPY activation"): fetch
// the member, parse it, and splice its statements in ahead of whatever
// is currently active, wrapped in copy-definition bookkeeping so the
// diagnostics stack and SYSNDX-less member nesting is tracked correctly.
func (m *Manager) ActivateCopy(member string) {
	if member == "" {
		return
	}
	if err := m.ctx.Err(); err != nil {
		m.Diags.Add(diag.Errorf("E062", diag.Range{}, "COPY member %q not fetched: %v", member, err))
		return
	}
	src, ok, err := m.Library.GetLibrary(m.ctx, member)
	if err != nil {
		m.Diags.Add(diag.Errorf("E060", diag.Range{}, "error fetching COPY member %q: %v", member, err))
		return
	}
	if !ok {
		m.Diags.Add(diag.Errorf("E061", diag.Range{}, "COPY member %q not found", member))
		return
	}
	m.Diags.PushFrame(diag.Frame{File: src.Location, CopyName: member})
	stmts := ParseSource(src.Text, src.Location, m.Diags)
	m.copyProviders = append(m.copyProviders, NewCopyProvider(member, stmts))
	m.pushProcessor(NewCopyDefinitionProcessor(m.topProcessor(), member))
}

// InvokeMacro implements macro invocation (§4.C "Macro invocation
// frame", §4.H): bind parameters, substitute the body, and push a fresh
// provider/processor pair scoped to the call.
func (m *Manager) InvokeMacro(def *symbols.MacroDefinition, call *statement.Statement) {
	sysndx := m.Store.NextSYSNDX()
	frame := symbols.NewFrame(def, sysndx, time.Now().UnixNano())
	bindParams(frame, def, call)
	m.Store.Frames.Push(frame)
	m.Diags.PushFrame(diag.Frame{MacroName: def.Name})

	substituted := substituteParams(def.Body, frame)
	stmts := ParseSource(substituted, m.filename, m.Diags)
	m.macroProviders = append(m.macroProviders, NewMacroProvider(def.Name, stmts))
	m.pushProcessor(&Processor{Kind: ProcKindOrdinary, OwningProviderKind: ProviderMacro, HasOwner: true, macroFrame: frame})
}

func bindParams(frame *symbols.Frame, def *symbols.MacroDefinition, call *statement.Statement) {
	positional := make([]string, 0, len(call.Operands))
	for _, op := range call.Operands {
		text := strings.TrimSpace(op.Text)
		if eq := strings.IndexByte(text, '='); eq >= 0 {
			name := strings.ToUpper(text[:eq])
			if _, isKeyword := def.Keyword[name]; isKeyword {
				v := frame.Params.Declare(name, symbols.SetC, symbols.ScopeLocal)
				v.Set(symbols.SetValue{Type: symbols.SetC, C: text[eq+1:]})
				continue
			}
		}
		positional = append(positional, text)
	}
	for i, name := range def.Positional {
		val := ""
		if i < len(positional) {
			val = positional[i]
		}
		v := frame.Params.Declare(name, symbols.SetC, symbols.ScopeLocal)
		v.Set(symbols.SetValue{Type: symbols.SetC, C: val})
	}
	for name, defaultText := range def.Keyword {
		if _, ok := frame.Params.Lookup(name); !ok {
			v := frame.Params.Declare(name, symbols.SetC, symbols.ScopeLocal)
			v.Set(symbols.SetValue{Type: symbols.SetC, C: defaultText})
		}
	}
}

// substituteParams performs the token-level &NAME substitution macro
// body expansion needs (a simplification of HLASM's full model-statement
// substitution rules, which also handle ampersand-doubling escapes and
// string-typed substitution).
func substituteParams(body []string, frame *symbols.Frame) string {
	var out strings.Builder
	for _, line := range body {
		out.WriteString(substituteLine(line, frame))
		out.WriteString("\n")
	}
	return out.String()
}

func substituteLine(line string, frame *symbols.Frame) string {
	var sb strings.Builder
	i := 0
	for i < len(line) {
		if line[i] == '&' && i+1 < len(line) && isWordStart(line[i+1]) {
			j := i + 1
			for j < len(line) && isWordByteManager(line[j]) {
				j++
			}
			name := strings.ToUpper(line[i+1 : j])
			if name == "SYSNDX" {
				sb.WriteString(strconv.Itoa(frame.SYSNDX))
				i = j
				continue
			}
			if v, ok := frame.Params.Lookup(name); ok {
				sb.WriteString(stringifySetValue(v.Get()))
				i = j
				continue
			}
			sb.WriteByte('&')
			i++
			continue
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
func isWordByteManager(c byte) bool {
	return c == '_' || c == '#' || c == '$' || c == '@' ||
		(c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func stringifySetValue(v symbols.SetValue) string {
	switch v.Type {
	case symbols.SetA:
		return strconv.Itoa(int(v.A))
	case symbols.SetB:
		if v.B {
			return "1"
		}
		return "0"
	default:
		return v.C
	}
}

// caContext builds the expr.Context a CA-expression evaluation at this
// point in processing should use: variable lookups resolve against the
// current scope (macro locals, else globals), attribute lookups resolve
// against the ordinary symbol table, triggering attribute lookahead on a
// miss.
func (m *Manager) caContext(rng diag.Range) *expr.Context {
	return &expr.Context{
		Attrs:     managerAttrs{m},
		Variables: managerVars{m},
		Diags:     m.Diags,
		Range:     rng,
	}
}

type managerAttrs struct{ m *Manager }

func (a managerAttrs) LookupAttribute(attr byte, symbol string) (expr.Value, bool) {
	sym, ok := a.m.Store.Ordinary.Lookup("", symbol)
	if !ok || !sym.Defined {
		if a.m.TriggerAttributeLookahead(symbol) {
			sym, ok = a.m.Store.Ordinary.Lookup("", symbol)
		}
	}
	if !ok || sym == nil {
		return expr.Value{}, false
	}
	switch attr {
	case 'T':
		return expr.Value{Kind: expr.KindChar, Char: string(sym.Attrs.Type)}, true
	case 'L':
		return expr.Value{Kind: expr.KindInt, Int: int32(sym.Attrs.Length)}, true
	case 'S':
		return expr.Value{Kind: expr.KindInt, Int: int32(sym.Attrs.Scale)}, true
	case 'I':
		return expr.Value{Kind: expr.KindInt, Int: int32(sym.Attrs.Integer)}, true
	default:
		return expr.Value{}, false
	}
}

type managerVars struct{ m *Manager }

func (v managerVars) LookupVariable(name string, index expr.Node, eval func(expr.Node) expr.Value) (expr.Value, bool) {
	scope := v.m.Store.CurrentScope()
	sv, ok := scope.Lookup(name)
	if !ok {
		sv, ok = v.m.Store.Global.Lookup(name)
	}
	if !ok {
		return expr.Value{}, false
	}
	var raw symbols.SetValue
	if index != nil {
		idxVal := eval(index)
		if idxVal.Kind != expr.KindInt {
			return expr.Value{}, false
		}
		raw = sv.GetIndexed(int(idxVal.Int))
	} else {
		raw = sv.Get()
	}
	switch raw.Type {
	case symbols.SetA:
		return expr.Value{Kind: expr.KindInt, Int: raw.A}, true
	case symbols.SetB:
		return expr.Value{Kind: expr.KindBool, Bool: raw.B}, true
	default:
		return expr.Value{Kind: expr.KindChar, Char: raw.C}, true
	}
}

// TriggerAttributeLookahead implements attribute lookahead (§4.H
// "Attribute lookahead"): scan forward through the active provider's
// already-lexed statements for a definition of symbol, without
// disturbing the normal read cursor or re-running side effects, and
// reserve/define it in the ordinary symbol table so the caller's lookup
// can retry.
func (m *Manager) TriggerAttributeLookahead(symbol string) bool {
	prov := m.activeSequenceProvider()
	lp, ok := prov.(interface {
		StatementsFrom(int) []*statement.Statement
	})
	if !ok {
		return false
	}
	for _, s := range lp.StatementsFrom(prov.Mark()) {
		if s.Label == symbol {
			attrs := symbols.Attributes{Type: 'U', Defined: true}
			m.Store.Ordinary.Define("", symbol, 0, attrs)
			return true
		}
	}
	return false
}
