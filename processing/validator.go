package processing

import (
	"github.com/lookbusy1344/hlasm-ls/config"
	"github.com/lookbusy1344/hlasm-ls/statement"
)

// InstructionValidator is the trait the ordinary processor consults for
// machine-instruction operand validity (spec.md §1 "Deliberately out of
// scope": "the individual machine-instruction operand-validity checkers
// are specified only as a trait the pipeline consults"). The bodies of
// the per-instruction checks live outside this module entirely; Manager
// only needs somewhere to hand a resolved, typed operand list to one.
type InstructionValidator interface {
	// Validate is called once an instruction mnemonic's operand field has
	// been reparsed under FormMachine. available is the instruction-set
	// version bitfield the active MACHINE/OPTABLE option resolved to
	// (config.InstructionSetVersion); a validator uses it to reject an
	// instruction introduced after the selected architecture.
	Validate(mnemonic string, operands []statement.Operand, available config.InstructionSetVersion) []ValidationDiagnostic
}

// ValidationDiagnostic is one finding an InstructionValidator reports;
// the manager re-stamps it with the statement's range before adding it
// to the diagnostic collector.
type ValidationDiagnostic struct {
	Code     string
	Message  string
	OperandIndex int // -1 for a whole-statement diagnostic
}

// NoopValidator accepts every instruction; it is the default when no
// validator is configured, matching spec.md §1's framing of the checkers
// as an external collaborator this module does not implement.
type NoopValidator struct{}

func (NoopValidator) Validate(string, []statement.Operand, config.InstructionSetVersion) []ValidationDiagnostic {
	return nil
}
