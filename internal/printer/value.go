package printer

import (
	"strings"

	"github.com/riftss/riftss/internal/cssast"
)

// ValueText renders an already-evaluated Expr as CSS text. It differs from
// the evaluator's own stringify (internal/eval) in one deliberate way:
// quoted strings keep their quotes here, since stringify's job is to
// produce the *contents* of a string (e.g. for concatenation), while the
// printer's job is to emit valid CSS, where `content: "a"` and
// `content: a` mean different things.
func ValueText(v cssast.Expr, precision int) string {
	switch e := v.(type) {
	case *cssast.Number:
		return cssast.FormatNumber(e, precision)
	case *cssast.Color:
		return cssast.FormatColor(e)
	case *cssast.Boolean:
		if e.Value {
			return "true"
		}
		return "false"
	case *cssast.Null:
		return ""
	case *cssast.StringConstant:
		return e.Value
	case *cssast.StringQuoted:
		return quote(e.Value, e.Quote)
	case *cssast.List:
		return listText(e, precision)
	case *cssast.Map:
		return mapText(e, precision)
	case *cssast.FunctionCall:
		return functionCallText(e, precision)
	case *cssast.ParentReference:
		return "&"
	case *cssast.Important:
		return "!important"
	}
	return ""
}

func quote(s string, q cssast.QuoteMark) string {
	ch := byte('"')
	if q == cssast.QuoteSingle {
		ch = '\''
	}
	var sb strings.Builder
	sb.WriteByte(ch)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ch || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(ch)
	return sb.String()
}

func listText(l *cssast.List, precision int) string {
	sep := " "
	if l.Separator == cssast.SepComma {
		sep = ", "
	}
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = ValueText(it, precision)
	}
	text := strings.Join(parts, sep)
	if l.Bracketed {
		return "[" + text + "]"
	}
	return text
}

// mapText is never reachable from valid CSS output (a map surviving to
// the printer means a stray `@return $map-literal` reached a declaration
// value); it renders defensively rather than panicking.
func mapText(m *cssast.Map, precision int) string {
	parts := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		parts[i] = ValueText(p.Key, precision) + ": " + ValueText(p.Value, precision)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func functionCallText(f *cssast.FunctionCall, precision int) string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	first := true
	if f.Arguments != nil {
		for _, a := range f.Arguments.Positional {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(ValueText(a.Value, precision))
		}
		for _, a := range f.Arguments.Named {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString("$" + a.Name + ": " + ValueText(a.Value, precision))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
