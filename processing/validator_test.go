package processing

import (
	"context"
	"testing"

	"github.com/lookbusy1344/hlasm-ls/config"
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/statement"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

type rejectAllValidator struct{}

func (rejectAllValidator) Validate(mnemonic string, _ []statement.Operand, _ config.InstructionSetVersion) []ValidationDiagnostic {
	return []ValidationDiagnostic{{Code: "I001", Message: "rejected " + mnemonic, OperandIndex: -1}}
}

func TestValidatorConsultedForMachineInstructions(t *testing.T) {
	diags := diag.NewCollector()
	stmts := ParseSource("       LR 1,2\n", "t.hlasm", diags)
	store := symbols.NewStore()
	mgr := NewManager("t.hlasm", stmts, store, diags, nil)
	mgr.Validator = rejectAllValidator{}
	mgr.Run(context.Background(), 100)

	found := false
	for _, d := range diags.All() {
		if d.Code == "I001" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected validator diagnostic I001, got %v", diags.All())
	}
}

func TestValidatorNotConsultedForMacroCalls(t *testing.T) {
	diags := diag.NewCollector()
	src := "       MACRO\n       M\n       MEND\n       M\n"
	stmts := ParseSource(src, "t.hlasm", diags)
	store := symbols.NewStore()
	mgr := NewManager("t.hlasm", stmts, store, diags, nil)
	mgr.Validator = rejectAllValidator{}
	mgr.Run(context.Background(), 100)

	for _, d := range diags.All() {
		if d.Code == "I001" {
			t.Errorf("did not expect validator diagnostic for a macro call, got %v", d)
		}
	}
}
