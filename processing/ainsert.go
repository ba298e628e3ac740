package processing

import (
	"strings"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/statement"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

// execAREAD implements the AREAD direct-stream facility (supplemented
// from original_source's aread_time.cpp, dropped by the distilled
// spec): it pulls one raw physical line directly from the active
// provider's underlying text, bypassing normal statement parsing, and
// binds it to the statement's label as a SETC value.
func (m *Manager) execAREAD(stmt *statement.Statement) {
	if stmt.Label == "" {
		m.Diags.Add(diag.Errorf("E070", stmt.InstrRange, "AREAD requires a SETC target label"))
		return
	}
	scope := m.Store.CurrentScope()
	v, ok := scope.Lookup(stmt.Label)
	if !ok {
		v = scope.Declare(stmt.Label, symbols.SetC, symbols.ScopeLocal)
	}
	v.Set(symbols.SetValue{Type: symbols.SetC, C: stmt.AreadLine})
}

// execAINSERT implements AINSERT (§4.H "AINSERT"): the operand's
// literal text becomes a new synthetic statement spliced into the
// preprocessor provider, at the front or back of the queue depending on
// the second operand.
func (m *Manager) execAINSERT(stmt *statement.Statement) {
	if len(stmt.Operands) == 0 {
		m.Diags.Add(diag.Errorf("E071", stmt.InstrRange, "AINSERT requires a quoted string operand"))
		return
	}
	text := strings.Trim(stmt.Operands[0].Text, "'")
	back := true
	if len(stmt.Operands) > 1 && strings.EqualFold(strings.TrimSpace(stmt.Operands[1].Text), "FRONT") {
		back = false
	}

	if m.preprocessor == nil {
		m.preprocessor = NewPreprocessorProvider(nil)
	}
	inserted := ParseSource(text, stmt.InstrRange.Start.File, m.Diags)
	if back {
		m.preprocessor.InsertBack(inserted)
	} else {
		m.preprocessor.InsertFront(inserted)
	}
}
