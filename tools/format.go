package tools

import (
	"strings"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/processing"
)

// FormatStyle defines formatting options.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // standard column layout
	FormatCompact                     // minimal whitespace, single space between fields
	FormatExpanded                    // extra whitespace for readability
)

// FormatOptions controls formatter behavior. The column defaults mirror
// HLASM's conventional label/instruction/operand layout within the
// BEGIN..END fixed-format window (spec.md §4.A), not an arbitrary style
// choice.
type FormatOptions struct {
	Style             FormatStyle
	InstructionColumn int // column the instruction field starts at
	OperandColumn     int // column the operand field starts at
	AlignOperands     bool
}

// DefaultFormatOptions returns the conventional HLASM layout.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:             FormatDefault,
		InstructionColumn: 9,
		OperandColumn:     16,
		AlignOperands:     true,
	}
}

// CompactFormatOptions returns options for compact formatting.
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatCompact}
}

// ExpandedFormatOptions returns options for expanded formatting.
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.InstructionColumn = 13
	opts.OperandColumn = 24
	return opts
}

// Formatter reformats HLASM source into the conventional label/
// instruction/operand column layout, adapted from the teacher's
// register-assembly Formatter but driven off statement.Statement's
// Label/Instruction/DeferredText fields (the operand field is
// reformatted as-is; it is not re-lexed, since re-lexing needs a known
// processing form per spec.md §4.B and this is a pure text layout tool).
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
}

// NewFormatter creates a new formatter; nil options uses the default.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format reformats source into the configured column layout.
func (f *Formatter) Format(source, filename string) (string, error) {
	diags := diag.NewCollector()
	stmts := processing.ParseSource(source, filename, diags)
	f.output.Reset()

	for _, stmt := range stmts {
		if stmt.IsEOF() {
			continue
		}
		f.formatStatement(stmt.Label, stmt.Instruction, stmt.DeferredText)
	}

	return f.output.String(), nil
}

func (f *Formatter) formatStatement(label, instr, operands string) {
	line := strings.Builder{}

	switch f.options.Style {
	case FormatCompact:
		if label != "" {
			line.WriteString(label)
			line.WriteString(" ")
		}
		line.WriteString(instr)
		if strings.TrimSpace(operands) != "" {
			line.WriteString(" ")
			line.WriteString(strings.TrimSpace(operands))
		}
	default:
		line.WriteString(label)
		f.padToColumn(&line, f.options.InstructionColumn)
		line.WriteString(instr)
		if strings.TrimSpace(operands) != "" {
			if f.options.AlignOperands {
				f.padToColumn(&line, f.options.OperandColumn)
			} else {
				line.WriteString(" ")
			}
			line.WriteString(strings.TrimSpace(operands))
		}
	}

	f.output.WriteString(line.String())
	f.output.WriteString("\n")
}

func (f *Formatter) padToColumn(sb *strings.Builder, column int) {
	current := sb.Len()
	switch {
	case current < column:
		sb.WriteString(strings.Repeat(" ", column-current))
	case current == column:
	default:
		sb.WriteString(" ")
	}
}

// FormatString formats source with default options.
func FormatString(source, filename string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(source, filename)
}

// FormatStringWithStyle formats source with the given style.
func FormatStringWithStyle(source, filename string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	return NewFormatter(options).Format(source, filename)
}
