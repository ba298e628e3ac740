package tools

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/processing"
)

// ReferenceType indicates how a symbol is used in one operand field.
type ReferenceType int

const (
	RefDefinition ReferenceType = iota // symbol's label field
	RefBranch                          // AGO/AIF sequence-symbol target
	RefOperand                         // appears in an instruction's operand field
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefBranch:
		return "branch"
	case RefOperand:
		return "operand"
	default:
		return "unknown"
	}
}

// Reference is a single use of a symbol at a source location.
type Reference struct {
	Type   ReferenceType
	Line   int
	Column int
	Source string // the statement's operand text
}

// Symbol is a name plus every place it was defined or referenced,
// the "references" editor service gestured at in spec.md §1's Purpose.
type Symbol struct {
	Name        string
	Definition  *Reference
	References  []*Reference
	IsSequence  bool // name begins with '.'
	IsInstrUsed bool // name appears as an instruction mnemonic (macro call)
}

var wordPattern = regexp.MustCompile(`[.&]?[A-Za-z#$@][A-Za-z0-9#$@]*`)

// XRefGenerator builds cross-reference information directly from the
// Initial-mode statement stream (processing.ParseSource), the way the
// teacher's XRefGenerator built it from a full parser.Program — this one
// does not need the full processing manager's semantic resolution since
// "references" only needs label fields and the operand text each
// statement already carries at Initial-mode parse time.
type XRefGenerator struct {
	symbols map[string]*Symbol
}

// NewXRefGenerator creates an empty cross-reference generator.
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: make(map[string]*Symbol)}
}

// Generate scans source for label definitions and operand-field symbol
// references.
func (x *XRefGenerator) Generate(source, filename string) (map[string]*Symbol, error) {
	diags := diag.NewCollector()
	stmts := processing.ParseSource(source, filename, diags)

	for _, stmt := range stmts {
		if stmt.Label != "" {
			x.define(stmt.Label, stmt.LabelRange.Start.Line, stmt.LabelRange.Start.Column, stmt.DeferredText)
		}

		instr := strings.ToUpper(stmt.Instruction)
		if instr == "AGO" || instr == "AIF" {
			for _, word := range wordPattern.FindAllString(stmt.DeferredText, -1) {
				if strings.HasPrefix(word, ".") {
					x.addReference(word, RefBranch, stmt.InstrRange.Start.Line, stmt.InstrRange.Start.Column, stmt.DeferredText)
				}
			}
			continue
		}

		for _, word := range wordPattern.FindAllString(stmt.DeferredText, -1) {
			if word == stmt.Label {
				continue
			}
			x.addReference(word, RefOperand, stmt.InstrRange.Start.Line, stmt.InstrRange.Start.Column, stmt.DeferredText)
		}
	}

	return x.symbols, nil
}

func (x *XRefGenerator) ensure(name string) *Symbol {
	if sym, ok := x.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, IsSequence: strings.HasPrefix(name, ".")}
	x.symbols[name] = sym
	return sym
}

func (x *XRefGenerator) define(name string, line, column int, source string) {
	sym := x.ensure(name)
	sym.Definition = &Reference{Type: RefDefinition, Line: line, Column: column, Source: source}
}

func (x *XRefGenerator) addReference(name string, t ReferenceType, line, column int, source string) {
	sym := x.ensure(name)
	sym.References = append(sym.References, &Reference{Type: t, Line: line, Column: column, Source: source})
}

// GetSymbols returns every symbol found in the source.
func (x *XRefGenerator) GetSymbols() map[string]*Symbol { return x.symbols }

// GetSymbol returns one symbol by name.
func (x *XRefGenerator) GetSymbol(name string) (*Symbol, bool) {
	sym, ok := x.symbols[name]
	return sym, ok
}

// GetUndefinedSymbols returns symbols referenced but never defined.
func (x *XRefGenerator) GetUndefinedSymbols() []*Symbol {
	return x.filterSort(func(s *Symbol) bool { return s.Definition == nil && len(s.References) > 0 })
}

// GetUnusedSymbols returns symbols defined but never referenced.
func (x *XRefGenerator) GetUnusedSymbols() []*Symbol {
	return x.filterSort(func(s *Symbol) bool { return s.Definition != nil && len(s.References) == 0 })
}

func (x *XRefGenerator) filterSort(keep func(*Symbol) bool) []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if keep(sym) {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// XRefReport formats cross-reference information as text.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport builds a report over symbols, sorted by name.
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &XRefReport{symbols: sorted}
}

func (r *XRefReport) String() string {
	var sb strings.Builder
	sb.WriteString("Symbol Cross-Reference\n")
	sb.WriteString("======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-30s", sym.Name))
		if sym.IsSequence {
			sb.WriteString(" [sequence]")
		} else {
			sb.WriteString(" [symbol]")
		}
		sb.WriteString("\n")

		if sym.Definition != nil {
			sb.WriteString(fmt.Sprintf("  Defined:     line %d\n", sym.Definition.Line))
		} else {
			sb.WriteString("  Defined:     (undefined)\n")
		}

		if len(sym.References) == 0 {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total symbols:     %d\n", len(r.symbols)))
	sb.WriteString(fmt.Sprintf("Undefined:         %d\n", countWhere(r.symbols, func(s *Symbol) bool { return s.Definition == nil })))
	sb.WriteString(fmt.Sprintf("Unused:            %d\n", countWhere(r.symbols, func(s *Symbol) bool { return len(s.References) == 0 })))
	return sb.String()
}

func countWhere(syms []*Symbol, pred func(*Symbol) bool) int {
	n := 0
	for _, s := range syms {
		if pred(s) {
			n++
		}
	}
	return n
}

// GenerateXRef is a convenience wrapper producing a formatted report in
// one call.
func GenerateXRef(source, filename string) (string, error) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, filename)
	if err != nil {
		return "", err
	}
	return NewXRefReport(symbols).String(), nil
}
