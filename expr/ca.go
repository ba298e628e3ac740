package expr

import "strings"

// EvalCA evaluates a conditional-assembly expression: integer, boolean,
// or character, with string operations (concatenation, substring, byte,
// double-byte, find-index, upper-case, numeric conversion) and
// short-circuiting boolean operators (§4.D "Conditional-assembly
// expressions").
func EvalCA(ctx *Context, n Node) Value {
	switch e := n.(type) {
	case IntLit:
		return Value{Kind: KindInt, Int: e.Value}
	case StringLit:
		return Value{Kind: KindChar, Char: e.Value}
	case SymbolRef:
		if ctx.Variables == nil {
			return ctx.fail("CE001", "no variable context available")
		}
		v, ok := ctx.Variables.LookupVariable(e.Name, e.Index, func(n Node) Value { return EvalCA(ctx, n) })
		if !ok {
			return ctx.fail("CE002", "undefined SET variable or macro parameter: "+e.Name)
		}
		return v
	case AttrRef:
		if ctx.Attrs == nil {
			return ctx.fail("CE003", "no attribute context available")
		}
		v, ok := ctx.Attrs.LookupAttribute(e.Attr, e.Symbol)
		if !ok {
			return ctx.fail("CE004", "attribute of undefined symbol: "+e.Symbol)
		}
		return v
	case UnaryOp:
		return evalCAUnary(ctx, e)
	case BinaryOp:
		return evalCABinary(ctx, e)
	case Call:
		return evalCACall(ctx, e)
	default:
		return ctx.fail("CE099", "unsupported expression node")
	}
}

func evalCAUnary(ctx *Context, e UnaryOp) Value {
	switch e.Op {
	case "NOT":
		v := EvalCA(ctx, e.Operand)
		if v.Kind != KindBool {
			return ctx.fail("CE010", "NOT requires a boolean operand")
		}
		return Value{Kind: KindBool, Bool: !v.Bool}
	case "-":
		v := EvalCA(ctx, e.Operand)
		if v.Kind != KindInt {
			return ctx.fail("CE011", "unary - requires an arithmetic operand")
		}
		return Value{Kind: KindInt, Int: -v.Int}
	case "+":
		return EvalCA(ctx, e.Operand)
	default:
		return ctx.fail("CE012", "unsupported unary operator: "+e.Op)
	}
}

func evalCABinary(ctx *Context, e BinaryOp) Value {
	switch e.Op {
	case "AND":
		l := EvalCA(ctx, e.Left)
		if l.Kind != KindBool {
			return ctx.fail("CE020", "AND requires boolean operands")
		}
		if !l.Bool {
			return Value{Kind: KindBool, Bool: false} // short-circuit
		}
		r := EvalCA(ctx, e.Right)
		if r.Kind != KindBool {
			return ctx.fail("CE020", "AND requires boolean operands")
		}
		return r
	case "OR":
		l := EvalCA(ctx, e.Left)
		if l.Kind != KindBool {
			return ctx.fail("CE021", "OR requires boolean operands")
		}
		if l.Bool {
			return Value{Kind: KindBool, Bool: true} // short-circuit
		}
		r := EvalCA(ctx, e.Right)
		if r.Kind != KindBool {
			return ctx.fail("CE021", "OR requires boolean operands")
		}
		return r
	case ".":
		l := EvalCA(ctx, e.Left)
		r := EvalCA(ctx, e.Right)
		if l.Kind == KindSentinel || r.Kind == KindSentinel {
			return SentinelValue
		}
		return Value{Kind: KindChar, Char: charOf(l) + charOf(r)}
	case "EQ", "NE", "LT", "LE", "GT", "GE":
		return evalCACompare(ctx, e)
	case "+", "-", "*", "/":
		l := EvalCA(ctx, e.Left)
		r := EvalCA(ctx, e.Right)
		if l.Kind != KindInt || r.Kind != KindInt {
			return ctx.fail("CE022", "arithmetic operator requires integer operands")
		}
		switch e.Op {
		case "+":
			return Value{Kind: KindInt, Int: l.Int + r.Int}
		case "-":
			return Value{Kind: KindInt, Int: l.Int - r.Int}
		case "*":
			return Value{Kind: KindInt, Int: l.Int * r.Int}
		case "/":
			if r.Int == 0 {
				return ctx.fail("CE023", "division by zero")
			}
			return Value{Kind: KindInt, Int: l.Int / r.Int}
		}
	}
	return ctx.fail("CE024", "unsupported binary operator: "+e.Op)
}

func evalCACompare(ctx *Context, e BinaryOp) Value {
	l := EvalCA(ctx, e.Left)
	r := EvalCA(ctx, e.Right)
	if l.Kind == KindSentinel || r.Kind == KindSentinel {
		return SentinelValue
	}
	// a boolean compared with an arithmetic value counts as 0 or 1
	if l.Kind == KindBool && r.Kind == KindInt {
		l = Value{Kind: KindInt, Int: boolInt(l.Bool)}
	} else if r.Kind == KindBool && l.Kind == KindInt {
		r = Value{Kind: KindInt, Int: boolInt(r.Bool)}
	}
	var cmp int
	switch {
	case l.Kind == KindInt && r.Kind == KindInt:
		cmp = compareInt(l.Int, r.Int)
	case l.Kind == KindChar && r.Kind == KindChar:
		cmp = strings.Compare(l.Char, r.Char)
	default:
		return ctx.fail("CE025", "comparison requires operands of the same type")
	}
	var b bool
	switch e.Op {
	case "EQ":
		b = cmp == 0
	case "NE":
		b = cmp != 0
	case "LT":
		b = cmp < 0
	case "LE":
		b = cmp <= 0
	case "GT":
		b = cmp > 0
	case "GE":
		b = cmp >= 0
	}
	return Value{Kind: KindBool, Bool: b}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func compareInt(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func charOf(v Value) string {
	if v.Kind == KindChar {
		return v.Char
	}
	return ""
}

// evalCACall implements the CA built-in string functions.
func evalCACall(ctx *Context, e Call) Value {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = EvalCA(ctx, a)
		if args[i].Kind == KindSentinel {
			return SentinelValue
		}
	}
	switch strings.ToUpper(e.Name) {
	case "SUBSTR":
		if len(args) != 3 || args[0].Kind != KindInt || args[1].Kind != KindInt || args[2].Kind != KindChar {
			return ctx.fail("CE030", "SUBSTR requires (start,length,string)")
		}
		start, length, s := int(args[0].Int), int(args[1].Int), args[2].Char
		if start < 1 || length < 0 || start-1+length > len(s) {
			return ctx.fail("CE031", "SUBSTR out of range")
		}
		return Value{Kind: KindChar, Char: s[start-1 : start-1+length]}
	case "BYTE":
		if len(args) != 1 || args[0].Kind != KindInt {
			return ctx.fail("CE032", "BYTE requires one arithmetic argument")
		}
		return Value{Kind: KindChar, Char: string([]byte{byte(args[0].Int)})}
	case "DBYTE":
		if len(args) != 1 || args[0].Kind != KindInt {
			return ctx.fail("CE033", "DBYTE requires one arithmetic argument")
		}
		v := uint16(args[0].Int)
		return Value{Kind: KindChar, Char: string([]byte{byte(v >> 8), byte(v)})}
	case "FIND":
		if len(args) != 2 || args[0].Kind != KindChar || args[1].Kind != KindChar {
			return ctx.fail("CE034", "FIND requires two character arguments")
		}
		idx := strings.IndexAny(args[0].Char, args[1].Char)
		return Value{Kind: KindInt, Int: int32(idx + 1)}
	case "INDEX":
		if len(args) != 2 || args[0].Kind != KindChar || args[1].Kind != KindChar {
			return ctx.fail("CE035", "INDEX requires two character arguments")
		}
		idx := strings.Index(args[0].Char, args[1].Char)
		return Value{Kind: KindInt, Int: int32(idx + 1)}
	case "UPPER":
		if len(args) != 1 || args[0].Kind != KindChar {
			return ctx.fail("CE036", "UPPER requires one character argument")
		}
		return Value{Kind: KindChar, Char: strings.ToUpper(args[0].Char)}
	case "D2A":
		if len(args) != 1 || args[0].Kind != KindChar {
			return ctx.fail("CE037", "D2A requires one character argument")
		}
		n, err := parseInt32(args[0].Char)
		if err != nil {
			return ctx.fail("CE038", "D2A: not a valid number: "+args[0].Char)
		}
		return Value{Kind: KindInt, Int: n}
	case "A2D":
		if len(args) != 1 || args[0].Kind != KindInt {
			return ctx.fail("CE039", "A2D requires one arithmetic argument")
		}
		return Value{Kind: KindChar, Char: itoa(args[0].Int)}
	default:
		return ctx.fail("CE040", "unknown CA function: "+e.Name)
	}
}

func parseInt32(s string) (int32, error) {
	var neg bool
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotNumber
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		n = -n
	}
	return int32(n), nil
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	var u uint32
	if neg {
		u = uint32(-n)
	} else {
		u = uint32(n)
	}
	var buf [12]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var errNotNumber = &numberError{}

type numberError struct{}

func (*numberError) Error() string { return "not a number" }
