package eval

import (
	"strconv"
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/logger"
)

// evalExpr is the central dispatch for spec §4.G expression evaluation:
// leaf literals pass through unchanged, everything else is reduced to one
// of the value kinds listed on cssast.Value.
func (ev *Evaluator) evalExpr(e cssast.Expr) cssast.Value {
	switch v := e.(type) {
	case *cssast.Number, *cssast.Color, *cssast.Boolean, *cssast.Null, *cssast.StringQuoted:
		return v

	case *cssast.StringConstant:
		return v

	case *cssast.StringSchema:
		if !v.Quoted {
			return &cssast.StringConstant{Value: ev.evalSchemaToText(v)}
		}
		return &cssast.StringQuoted{Value: ev.evalSchemaToText(v), Quote: v.Quote}

	case *cssast.Variable:
		if val, ok := ev.Env.Lookup(v.Name); ok {
			return val
		}
		ev.errAt(v.Span(), logger.Undefined, "undefined variable \"$%s\"", v.Name)
		return &cssast.Null{}

	case *cssast.ParentReference:
		return &cssast.StringQuoted{Value: cssast.FormatSelectorList(currentSelector(ev))}

	case *cssast.Important:
		return &cssast.StringConstant{Value: "!important"}

	case *cssast.Unary:
		return ev.evalUnary(v)

	case *cssast.Binary:
		return ev.evalBinary(v)

	case *cssast.List:
		items := make([]cssast.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = ev.evalExpr(it)
		}
		return &cssast.List{Separator: v.Separator, Items: items, Bracketed: v.Bracketed}

	case *cssast.Map:
		pairs := make([]cssast.MapPair, len(v.Pairs))
		for i, p := range v.Pairs {
			pairs[i] = cssast.MapPair{Key: ev.evalExpr(p.Key), Value: ev.evalExpr(p.Value)}
		}
		return &cssast.Map{Pairs: pairs}

	case *cssast.FunctionCall:
		return ev.evalFunctionCall(v)
	}
	return &cssast.Null{}
}

func (ev *Evaluator) evalUnary(u *cssast.Unary) cssast.Value {
	operand := ev.evalExpr(u.Operand)
	switch u.Op {
	case cssast.UnaryNot:
		return &cssast.Boolean{Value: !cssast.IsTruthy(operand)}
	case cssast.UnaryMinus:
		if n, ok := operand.(*cssast.Number); ok {
			return &cssast.Number{Value: -n.Value, NumeratorUnits: n.NumeratorUnits, DenominatorUnits: n.DenominatorUnits}
		}
		ev.errAt(u.Span(), logger.Type, "cannot negate a non-number")
		return &cssast.Null{}
	case cssast.UnaryPlus:
		return operand
	}
	return operand
}

func (ev *Evaluator) evalBinary(b *cssast.Binary) cssast.Value {
	if b.Op == cssast.BinOr {
		lhs := ev.evalExpr(b.Lhs)
		if cssast.IsTruthy(lhs) {
			return lhs
		}
		return ev.evalExpr(b.Rhs)
	}
	if b.Op == cssast.BinAnd {
		lhs := ev.evalExpr(b.Lhs)
		if !cssast.IsTruthy(lhs) {
			return lhs
		}
		return ev.evalExpr(b.Rhs)
	}

	lhs := ev.evalExpr(b.Lhs)
	rhs := ev.evalExpr(b.Rhs)

	switch b.Op {
	case cssast.BinEq:
		return &cssast.Boolean{Value: valuesEqual(lhs, rhs)}
	case cssast.BinNeq:
		return &cssast.Boolean{Value: !valuesEqual(lhs, rhs)}
	}

	if ln, lok := lhs.(*cssast.Number); lok {
		if rn, rok := rhs.(*cssast.Number); rok {
			return ev.numBinary(b, ln, rn)
		}
	}
	if lc, lok := lhs.(*cssast.Color); lok {
		switch r := rhs.(type) {
		case *cssast.Color:
			return colorBinary(b.Op, lc, r)
		case *cssast.Number:
			return colorNumberBinary(b.Op, lc, r)
		}
	}

	switch b.Op {
	case cssast.BinGt, cssast.BinGte, cssast.BinLt, cssast.BinLte:
		ls, rs := stringifyLoose(lhs), stringifyLoose(rhs)
		cmp := strings.Compare(ls, rs)
		return &cssast.Boolean{Value: compareSatisfies(b.Op, cmp)}
	case cssast.BinAdd:
		return stringConcat(lhs, rhs, "")
	case cssast.BinSub:
		return stringConcat(lhs, rhs, "-")
	case cssast.BinMul, cssast.BinDiv, cssast.BinMod:
		ev.errAt(b.Span(), logger.Type, "cannot apply arithmetic to non-numeric operands")
		return &cssast.Null{}
	}
	return &cssast.Null{}
}

func (ev *Evaluator) numBinary(b *cssast.Binary, l, r *cssast.Number) cssast.Value {
	switch b.Op {
	case cssast.BinAdd:
		n, err := NumAdd(l, r, false)
		if err != nil {
			ev.errAt(b.Span(), logger.Unit, "%s", err.Error())
			return &cssast.Null{}
		}
		return n
	case cssast.BinSub:
		n, err := NumAdd(l, r, true)
		if err != nil {
			ev.errAt(b.Span(), logger.Unit, "%s", err.Error())
			return &cssast.Null{}
		}
		return n
	case cssast.BinMul:
		return NumMul(l, r)
	case cssast.BinDiv:
		n, err := NumDiv(l, r)
		if err != nil {
			ev.errAt(b.Span(), logger.Unit, "%s", err.Error())
			return &cssast.Null{}
		}
		return n
	case cssast.BinMod:
		n, err := NumMod(l, r)
		if err != nil {
			ev.errAt(b.Span(), logger.Unit, "%s", err.Error())
			return &cssast.Null{}
		}
		return n
	case cssast.BinGt, cssast.BinGte, cssast.BinLt, cssast.BinLte:
		cmp, comparable := CompareNumbers(l, r)
		if !comparable {
			ev.errAt(b.Span(), logger.Unit, "incompatible units in comparison")
			return &cssast.Boolean{Value: false}
		}
		return &cssast.Boolean{Value: compareSatisfies(b.Op, cmp)}
	}
	return &cssast.Null{}
}

func compareSatisfies(op cssast.BinaryOp, cmp int) bool {
	switch op {
	case cssast.BinGt:
		return cmp > 0
	case cssast.BinGte:
		return cmp >= 0
	case cssast.BinLt:
		return cmp < 0
	case cssast.BinLte:
		return cmp <= 0
	}
	return false
}

// stringConcat implements spec §4.G's Add/Sub-as-concatenation fallback
// for non-numeric operands: the result is quoted exactly when the
// left-hand operand was quoted, matching the "quotedness propagates from
// the left" rule.
func stringConcat(lhs, rhs cssast.Value, joiner string) cssast.Value {
	_, lquoted := lhs.(*cssast.StringQuoted)
	text := stringify(lhs) + joiner + stringify(rhs)
	if lquoted {
		return &cssast.StringQuoted{Value: text}
	}
	return &cssast.StringConstant{Value: text}
}

// valuesEqual implements spec §4.G's Eq/Neq: structural equality that
// ignores quoting (a quoted and unquoted string with the same text are
// equal) and compares numbers via CompareNumbers so "1in == 96px" holds.
func valuesEqual(a, b cssast.Value) bool {
	if an, ok := a.(*cssast.Number); ok {
		if bn, ok := b.(*cssast.Number); ok {
			cmp, comparable := CompareNumbers(an, bn)
			return comparable && cmp == 0
		}
		return false
	}
	if ac, ok := a.(*cssast.Color); ok {
		if bc, ok := b.(*cssast.Color); ok {
			return ac.R == bc.R && ac.G == bc.G && ac.B == bc.B && ac.A == bc.A
		}
		return false
	}
	if ab, ok := a.(*cssast.Boolean); ok {
		bb, ok := b.(*cssast.Boolean)
		return ok && ab.Value == bb.Value
	}
	_, aNull := a.(*cssast.Null)
	_, bNull := b.(*cssast.Null)
	if aNull || bNull {
		return aNull && bNull
	}
	if al, ok := a.(*cssast.List); ok {
		bl, ok := b.(*cssast.List)
		if !ok || len(al.Items) != len(bl.Items) || al.Separator != bl.Separator {
			return false
		}
		for i := range al.Items {
			if !valuesEqual(al.Items[i], bl.Items[i]) {
				return false
			}
		}
		return true
	}
	return stringifyLoose(a) == stringifyLoose(b)
}

func stringifyLoose(v cssast.Value) string {
	switch t := v.(type) {
	case *cssast.StringQuoted:
		return t.Value
	case *cssast.StringConstant:
		return t.Value
	default:
		return stringify(v)
	}
}

// stringify renders a value the way it would appear spliced into an
// interpolation hole (spec §4.C): quotes are stripped, numbers/colors use
// the formatter's own text form so "1px + 1px" inside "#{...}" reads
// "2px" rather than a Go %v dump.
func (ev *Evaluator) stringify(v cssast.Value) string {
	return stringifyPrec(v, ev.Precision)
}

// stringify is the precision-5 fallback used by stringConcat/valuesEqual,
// which run without an Evaluator (and so without a configured Precision)
// during plain expression arithmetic.
func stringify(v cssast.Value) string {
	return stringifyPrec(v, 5)
}

func stringifyPrec(v cssast.Value, precision int) string {
	switch t := v.(type) {
	case *cssast.Number:
		return cssast.FormatNumber(t, precision)
	case *cssast.Color:
		return cssast.FormatColor(t)
	case *cssast.Boolean:
		return strconv.FormatBool(t.Value)
	case *cssast.Null:
		return ""
	case *cssast.StringQuoted:
		return t.Value
	case *cssast.StringConstant:
		return t.Value
	case *cssast.List:
		sep := ", "
		if t.Separator == cssast.SepSpace {
			sep = " "
		}
		parts := make([]string, len(t.Items))
		for i, it := range t.Items {
			parts[i] = stringifyPrec(it, precision)
		}
		s := strings.Join(parts, sep)
		if t.Bracketed {
			return "[" + s + "]"
		}
		return s
	case *cssast.Map:
		parts := make([]string, len(t.Pairs))
		for i, p := range t.Pairs {
			parts[i] = stringifyPrec(p.Key, precision) + ": " + stringifyPrec(p.Value, precision)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return ""
}
