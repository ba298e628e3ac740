package expr

import (
	"testing"

	"github.com/lookbusy1344/hlasm-ls/diag"
)

func newTestCollector() *diag.Collector { return diag.NewCollector() }

func TestEvalCA_Arithmetic(t *testing.T) {
	ctx := &Context{}
	n := BinaryOp{Op: "+", Left: IntLit{Value: 2}, Right: IntLit{Value: 3}}
	v := EvalCA(ctx, n)
	if v.Kind != KindInt || v.Int != 5 {
		t.Fatalf("expected 5, got %+v", v)
	}
}

func TestEvalCA_DivisionByZero(t *testing.T) {
	ctx := &Context{}
	n := BinaryOp{Op: "/", Left: IntLit{Value: 1}, Right: IntLit{Value: 0}}
	v := EvalCA(ctx, n)
	if v.Kind != KindSentinel {
		t.Fatalf("expected sentinel on division by zero, got %+v", v)
	}
}

func TestEvalCA_StringConcat(t *testing.T) {
	ctx := &Context{}
	n := BinaryOp{Op: ".", Left: StringLit{Value: "AB"}, Right: StringLit{Value: "CD"}}
	v := EvalCA(ctx, n)
	if v.Kind != KindChar || v.Char != "ABCD" {
		t.Fatalf("expected ABCD, got %+v", v)
	}
}

func TestEvalCA_ANDRequiresBoolean(t *testing.T) {
	ctx := &Context{}
	n := BinaryOp{Op: "AND", Left: IntLit{Value: 0}, Right: IntLit{Value: 0}}
	v := EvalCA(ctx, n)
	if v.Kind != KindSentinel {
		t.Fatalf("expected sentinel: AND requires boolean operands, got %+v", v)
	}
}

func TestEvalCA_ANDShortCircuits(t *testing.T) {
	ctx := &Context{Diags: newTestCollector()}
	falseLeft := BinaryOp{Op: "EQ", Left: IntLit{Value: 1}, Right: IntLit{Value: 2}}
	malformedRight := BinaryOp{Op: "AND", Left: IntLit{Value: 0}, Right: IntLit{Value: 0}} // would itself fail if evaluated
	v := EvalCA(ctx, BinaryOp{Op: "AND", Left: falseLeft, Right: malformedRight})
	if v.Kind != KindBool || v.Bool {
		t.Fatalf("expected false without evaluating the malformed right side, got %+v", v)
	}
}

func TestEvalCA_Compare(t *testing.T) {
	ctx := &Context{}
	n := BinaryOp{Op: "LT", Left: IntLit{Value: 1}, Right: IntLit{Value: 2}}
	v := EvalCA(ctx, n)
	if v.Kind != KindBool || !v.Bool {
		t.Fatalf("expected true, got %+v", v)
	}
}

func TestEvalCA_SubstrCall(t *testing.T) {
	ctx := &Context{}
	n := Call{Name: "SUBSTR", Args: []Node{IntLit{Value: 2}, IntLit{Value: 3}, StringLit{Value: "ABCDEF"}}}
	v := EvalCA(ctx, n)
	if v.Kind != KindChar || v.Char != "BCD" {
		t.Fatalf("expected BCD, got %+v", v)
	}
}

func TestEvalCA_SubstrOutOfRange(t *testing.T) {
	ctx := &Context{}
	n := Call{Name: "SUBSTR", Args: []Node{IntLit{Value: 10}, IntLit{Value: 3}, StringLit{Value: "AB"}}}
	v := EvalCA(ctx, n)
	if v.Kind != KindSentinel {
		t.Fatalf("expected sentinel for out-of-range SUBSTR, got %+v", v)
	}
}

func TestEvalCA_UndefinedVariableWithoutContext(t *testing.T) {
	ctx := &Context{}
	n := SymbolRef{Name: "&X"}
	v := EvalCA(ctx, n)
	if v.Kind != KindSentinel {
		t.Fatalf("expected sentinel with no variable lookup configured, got %+v", v)
	}
}

type mapVariables map[string]Value

func (m mapVariables) LookupVariable(name string, index Node, eval func(Node) Value) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

func TestEvalCA_VariableLookup(t *testing.T) {
	ctx := &Context{Variables: mapVariables{"&X": {Kind: KindInt, Int: 9}}}
	v := EvalCA(ctx, SymbolRef{Name: "&X"})
	if v.Kind != KindInt || v.Int != 9 {
		t.Fatalf("expected 9, got %+v", v)
	}
}

type mapAttrs map[string]Value

func (m mapAttrs) LookupAttribute(attr byte, symbol string) (Value, bool) {
	v, ok := m[string(attr)+symbol]
	return v, ok
}

func TestEvalCA_AttrLookup(t *testing.T) {
	ctx := &Context{Attrs: mapAttrs{"LSYM": {Kind: KindInt, Int: 4}}}
	v := EvalCA(ctx, AttrRef{Attr: 'L', Symbol: "SYM"})
	if v.Kind != KindInt || v.Int != 4 {
		t.Fatalf("expected 4, got %+v", v)
	}
}

func TestEvalCA_UpperFunction(t *testing.T) {
	ctx := &Context{}
	v := EvalCA(ctx, Call{Name: "UPPER", Args: []Node{StringLit{Value: "abc"}}})
	if v.Char != "ABC" {
		t.Fatalf("expected ABC, got %+v", v)
	}
}

func TestEvalCA_D2AandA2D(t *testing.T) {
	ctx := &Context{}
	v := EvalCA(ctx, Call{Name: "D2A", Args: []Node{StringLit{Value: "42"}}})
	if v.Kind != KindInt || v.Int != 42 {
		t.Fatalf("expected 42, got %+v", v)
	}
	v2 := EvalCA(ctx, Call{Name: "A2D", Args: []Node{IntLit{Value: 42}}})
	if v2.Kind != KindChar || v2.Char != "42" {
		t.Fatalf("expected \"42\", got %+v", v2)
	}
}
