package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/hlasm-ls/analyzer"
	"github.com/lookbusy1344/hlasm-ls/diag"
)

// LintLevel mirrors diag.Severity at the lint-report boundary.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
	LintInfo
	LintHint
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	case LintHint:
		return "hint"
	default:
		return "unknown"
	}
}

func levelFromSeverity(s diag.Severity) LintLevel {
	switch s {
	case diag.SeverityError:
		return LintError
	case diag.SeverityWarning:
		return LintWarning
	case diag.SeverityInfo:
		return LintInfo
	default:
		return LintHint
	}
}

// LintIssue is one reported finding, either a diagnostic from the real
// analyzer pipeline or a supplementary unused/undefined-symbol check
// from XRefGenerator.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Column  int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d:%d: %s: %s [%s]", i.Line, i.Column, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior.
type LintOptions struct {
	CheckUnused    bool // report symbols defined but never referenced
	CheckUndefined bool // report symbols referenced but never defined (beyond the analyzer's own diagnostics)
}

// DefaultLintOptions returns the default linter options.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{CheckUnused: true, CheckUndefined: true}
}

// Linter runs the real analysis pipeline over source and reformats its
// diagnostics as LintIssues, the way the teacher's Linter wrapped its
// parser's error list — generalized here to wrap diag.Collector instead
// of a single parser.ErrorList, and supplemented with the xref-derived
// unused/undefined-symbol checks spec.md's Purpose calls out as editor
// services.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue
}

// NewLinter creates a new linter; nil options uses the default.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options}
}

// Lint analyzes source and filename, returning every issue found.
func (l *Linter) Lint(source, filename string) []*LintIssue {
	l.issues = nil

	result := analyzer.Analyze(context.Background(), filename, source, analyzer.Options{})
	for _, d := range result.Diagnostics {
		l.issues = append(l.issues, &LintIssue{
			Level:   levelFromSeverity(d.Severity),
			Line:    d.Range.Start.Line + 1,
			Column:  d.Range.Start.Column + 1,
			Message: d.Message,
			Code:    d.Code,
		})
	}

	if l.options.CheckUnused || l.options.CheckUndefined {
		gen := NewXRefGenerator()
		if _, err := gen.Generate(source, filename); err == nil {
			if l.options.CheckUndefined {
				for _, sym := range gen.GetUndefinedSymbols() {
					ref := sym.References[0]
					l.issues = append(l.issues, &LintIssue{
						Level:   LintError,
						Line:    ref.Line + 1,
						Column:  ref.Column + 1,
						Message: fmt.Sprintf("undefined symbol %q", sym.Name),
						Code:    "UNDEF_SYMBOL",
					})
				}
			}
			if l.options.CheckUnused {
				for _, sym := range gen.GetUnusedSymbols() {
					if isSpecialLabel(sym.Name) {
						continue
					}
					l.issues = append(l.issues, &LintIssue{
						Level:   LintWarning,
						Line:    sym.Definition.Line + 1,
						Column:  sym.Definition.Column + 1,
						Message: fmt.Sprintf("symbol %q defined but never referenced", sym.Name),
						Code:    "UNUSED_SYMBOL",
					})
				}
			}
		}
	}

	sort.Slice(l.issues, func(i, j int) bool {
		if l.issues[i].Line == l.issues[j].Line {
			return l.issues[i].Column < l.issues[j].Column
		}
		return l.issues[i].Line < l.issues[j].Line
	})

	return l.issues
}

// isSpecialLabel reports whether label is a conventional entry-point
// name this linter should not flag as unused.
func isSpecialLabel(label string) bool {
	switch strings.ToUpper(label) {
	case "START", "MAIN", "BEGIN":
		return true
	default:
		return false
	}
}
