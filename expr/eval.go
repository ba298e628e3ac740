package expr

import "github.com/lookbusy1344/hlasm-ls/diag"

// ValueKind tags a CA evaluation result.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindBool
	KindChar
	KindSentinel // evaluation failed; lets the caller proceed without cascading
)

// Value is the result of evaluating a conditional-assembly expression.
type Value struct {
	Kind ValueKind
	Int  int32
	Bool bool
	Char string
}

// SentinelValue is returned whenever a sub-expression fails to evaluate;
// it lets the surrounding expression keep evaluating instead of
// aborting (§4.D "Evaluation is pure...").
var SentinelValue = Value{Kind: KindSentinel}

// AttributeLookup is consulted for T'/L'/S'/I'/K' references. ok is false
// when the symbol is undefined and not resolved by attribute lookahead;
// the caller (processing.Manager) is responsible for triggering lookahead
// before re-attempting.
type AttributeLookup interface {
	LookupAttribute(attr byte, symbol string) (value Value, ok bool)
}

// VariableLookup is consulted for SETA/SETB/SETC and macro-parameter
// reads.
type VariableLookup interface {
	LookupVariable(name string, index Node, eval func(Node) Value) (Value, bool)
}

// Context bundles everything a CA-expression evaluation may read.
type Context struct {
	Attrs     AttributeLookup
	Variables VariableLookup
	Diags     *diag.Collector
	Range     diag.Range
}

func (c *Context) fail(code, msg string) Value {
	if c.Diags != nil {
		c.Diags.Add(diag.Errorf(code, c.Range, "%s", msg))
	}
	return SentinelValue
}
